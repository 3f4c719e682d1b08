package session

import (
	"errors"
	"slices"
	"testing"

	"github.com/ZuhaMK/Flight-AI/pkg/types"
)

// countMessages counts one token per message.
type countMessages struct{ err error }

func (c countMessages) CountTokens(msgs []types.Message) (int, error) { return len(msgs), c.err }

func history() []types.Message {
	return []types.Message{
		{Role: types.RoleSystem, Content: "sys"},
		{Role: types.RoleUser, Content: "u1"},
		{Role: types.RoleAssistant, ToolCalls: []types.ToolCall{{ID: "a", Name: "get_flight_prices"}}},
		{Role: types.RoleTool, ToolCallID: "a"},
		{Role: types.RoleAssistant, Content: "r1"},
		{Role: types.RoleUser, Content: "u2"},
		{Role: types.RoleAssistant, Content: "r2"},
		{Role: types.RoleUser, Content: "u3"},
		{Role: types.RoleAssistant, Content: "r3"},
	}
}

func contents(msgs []types.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Role + ":" + m.Content
	}
	return out
}

func TestTrim(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		budget int
		want   []string
	}{
		{"disabled", 0, contents(history())},
		{"fits", 9, contents(history())},
		{"drops tool turn", 5, []string{"system:sys", "user:u2", "assistant:r2", "user:u3", "assistant:r3"}},
		{"keeps last turn", 1, []string{"system:sys", "user:u3", "assistant:r3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Trim(history(), tt.budget, countMessages{})
			if err != nil {
				t.Fatalf("Trim: %v", err)
			}
			if !slices.Equal(contents(got), tt.want) {
				t.Errorf("Trim = %v, want %v", contents(got), tt.want)
			}
		})
	}
}

func TestTrim_CounterError(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	if _, err := Trim(history(), 3, countMessages{err: boom}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
}
