package tools

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/ZuhaMK/Flight-AI/pkg/types"
)

type priceCall struct {
	origin, destination, date string
}

type fakePrices struct {
	mu     sync.Mutex
	calls  []priceCall
	result string
}

func (f *fakePrices) Prices(_ context.Context, origin, destination, date string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, priceCall{origin, destination, date})
	if f.result == "" {
		return `{"data":[]}`
	}
	return f.result
}

type fakeResolver map[string]string

func (f fakeResolver) Resolve(place string) (string, bool) {
	code, ok := f[place]
	if !ok {
		return place, false
	}
	return code, true
}

func errorMessage(t *testing.T, content string) string {
	t.Helper()
	var m map[string]string
	if err := json.Unmarshal([]byte(content), &m); err != nil {
		t.Fatalf("content %q is not a JSON object: %v", content, err)
	}
	return m["error"]
}

func TestParseID(t *testing.T) {
	t.Parallel()
	if id, ok := ParseID("get_flight_prices"); !ok || id != FlightPrices {
		t.Errorf("ParseID(get_flight_prices) = %q, %v", id, ok)
	}
	for _, name := range []string{"", "get_hotel_prices", "GET_FLIGHT_PRICES"} {
		if _, ok := ParseID(name); ok {
			t.Errorf("ParseID(%q) should fail", name)
		}
	}
}

func TestDefinitions(t *testing.T) {
	t.Parallel()
	r := NewRegistry(&fakePrices{})
	defs := r.Definitions()
	if len(defs) != 1 {
		t.Fatalf("got %d definitions, want 1", len(defs))
	}
	d := defs[0]
	if d.Name != "get_flight_prices" || d.Description != FlightPricesDescription {
		t.Errorf("unexpected definition %+v", d)
	}
	required, _ := d.Parameters["required"].([]string)
	if strings.Join(required, ",") != "origin,destination" {
		t.Errorf("required = %v, want [origin destination]", required)
	}

	// Mutating a returned copy must not leak into later calls.
	d.Parameters["type"] = "array"
	d.Parameters["properties"].(map[string]any)["origin"] = nil
	again := r.Definitions()[0]
	if again.Parameters["type"] != "object" {
		t.Error("Definitions must return an independent copy")
	}
	if again.Parameters["properties"].(map[string]any)["origin"] == nil {
		t.Error("nested schema must be copied too")
	}
}

func TestDispatch_Success(t *testing.T) {
	t.Parallel()
	prices := &fakePrices{result: `{"data":[{"value":200}]}`}
	r := NewRegistry(prices)

	out := r.Dispatch(context.Background(), types.ToolCall{
		ID:        "call_1",
		Name:      "get_flight_prices",
		Arguments: `{"origin":"LHR","destination":"JFK","date":"2024-06-01"}`,
	})
	if out.Kind != Success {
		t.Fatalf("Kind = %v, want success", out.Kind)
	}
	if out.Content != `{"data":[{"value":200}]}` {
		t.Errorf("Content = %s", out.Content)
	}
	if len(prices.calls) != 1 || prices.calls[0] != (priceCall{"LHR", "JFK", "2024-06-01"}) {
		t.Errorf("calls = %+v", prices.calls)
	}
}

func TestDispatch_ResolvesLocations(t *testing.T) {
	t.Parallel()
	prices := &fakePrices{}
	r := NewRegistry(prices, WithLocationResolver(fakeResolver{"London": "LON"}))

	out := r.Dispatch(context.Background(), types.ToolCall{
		ID:        "call_1",
		Name:      "get_flight_prices",
		Arguments: `{"origin":"London","destination":"Atlantis"}`,
	})
	if out.Kind != Success {
		t.Fatalf("Kind = %v, want success", out.Kind)
	}
	if got := prices.calls[0]; got.origin != "LON" || got.destination != "Atlantis" {
		t.Errorf("call = %+v, want LON -> Atlantis", got)
	}
}

func TestDispatch_UnknownTool(t *testing.T) {
	t.Parallel()
	prices := &fakePrices{}
	r := NewRegistry(prices)

	out := r.Dispatch(context.Background(), types.ToolCall{ID: "call_9", Name: "book_hotel", Arguments: `{}`})
	if out.Kind != UnknownTool {
		t.Fatalf("Kind = %v, want unknown_tool", out.Kind)
	}
	if out.Content != `{"error": "Unknown tool: book_hotel"}` {
		t.Errorf("Content = %s", out.Content)
	}
	if len(prices.calls) != 0 {
		t.Error("no lookup expected for unknown tool")
	}
}

func TestDispatch_MalformedArguments(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		args string
		want string
	}{
		{"invalid json", `{"origin":`, "Invalid arguments for get_flight_prices: "},
		{"empty", ``, "Invalid arguments for get_flight_prices: "},
		{"missing destination", `{"origin":"LHR"}`, "missing required parameter(s): destination"},
		{"blank both", `{"origin":" ","destination":""}`, "missing required parameter(s): origin, destination"},
		{"wrong type", `{"origin":1,"destination":"JFK"}`, "Invalid arguments for get_flight_prices: "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			prices := &fakePrices{}
			r := NewRegistry(prices)
			out := r.Dispatch(context.Background(), types.ToolCall{ID: "c", Name: "get_flight_prices", Arguments: tt.args})
			if out.Kind != MalformedArguments {
				t.Fatalf("Kind = %v, want malformed_arguments", out.Kind)
			}
			if msg := errorMessage(t, out.Content); !strings.Contains(msg, tt.want) {
				t.Errorf("error = %q, want substring %q", msg, tt.want)
			}
			if len(prices.calls) != 0 {
				t.Error("handler must not reach the price source")
			}
		})
	}
}

func TestDispatch_ExecutionFailure(t *testing.T) {
	t.Parallel()
	prices := &fakePrices{result: `{"error": "Flight API network problem: boom"}`}
	r := NewRegistry(prices)

	out := r.Dispatch(context.Background(), types.ToolCall{
		ID: "c", Name: "get_flight_prices", Arguments: `{"origin":"LHR","destination":"JFK"}`,
	})
	if out.Kind != ExecutionFailure {
		t.Fatalf("Kind = %v, want execution_failure", out.Kind)
	}
	if out.Content != prices.result {
		t.Errorf("payload must be forwarded unchanged, got %s", out.Content)
	}
}

type panicPrices struct{}

func (panicPrices) Prices(context.Context, string, string, string) string { panic("kaboom") }

func TestDispatch_RecoversPanics(t *testing.T) {
	t.Parallel()
	r := NewRegistry(panicPrices{})
	out := r.Dispatch(context.Background(), types.ToolCall{
		ID: "c", Name: "get_flight_prices", Arguments: `{"origin":"LHR","destination":"JFK"}`,
	})
	if out.Kind != ExecutionFailure {
		t.Fatalf("Kind = %v, want execution_failure", out.Kind)
	}
	if msg := errorMessage(t, out.Content); !strings.Contains(msg, "kaboom") {
		t.Errorf("error = %q", msg)
	}
}

func TestKind_String(t *testing.T) {
	t.Parallel()
	for k, want := range map[Kind]string{
		Success:            "success",
		MalformedArguments: "malformed_arguments",
		UnknownTool:        "unknown_tool",
		ExecutionFailure:   "execution_failure",
		Kind(42):           "unknown",
	} {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(k), got, want)
		}
	}
}
