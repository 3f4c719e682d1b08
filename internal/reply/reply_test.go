package reply

import "testing"

func TestFormat(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"key value pairs", "Price: 200\n\nDate: tomorrow", "- Price: 200\n- Date: tomorrow"},
		{"empty", "", ""},
		{"whitespace only", " \n\n\t\n", ""},
		{"existing dash", "- already\nnew", "- already\n- new"},
		{"emoji markers", "✈️ LHR → JFK\n💰 $200\n📅 June 1", "✈️ LHR → JFK\n💰 $200\n📅 June 1"},
		{"bullet dot", "• one\n  two  ", "• one\n- two"},
		{"crlf", "Price: 200\r\n\r\nDate: tomorrow\r\n", "- Price: 200\n- Date: tomorrow"},
		{"many blank lines", "a\n\n\n\nb", "- a\n- b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Format(tt.in); got != tt.want {
				t.Errorf("Format(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormat_Idempotent(t *testing.T) {
	t.Parallel()
	inputs := []string{
		"",
		"Price: 200\n\nDate: tomorrow",
		"Here are your options:\n1. Cheap\n2. Fast",
		"✈ without variation selector",
		"✅ done\n\n\n-dash without space\n🔍 searching",
		"   leading spaces\n\ttabs\t",
		"mixed\r\nline\rendings\n",
	}
	for _, in := range inputs {
		once := Format(in)
		if twice := Format(once); twice != once {
			t.Errorf("Format not idempotent for %q: %q != %q", in, twice, once)
		}
	}
}
