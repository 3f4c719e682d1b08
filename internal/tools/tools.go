// Package tools is the closed registry of functions the model may call.
//
// Every supported tool has an [ID] bound at construction time to a typed
// handler. [Registry.Dispatch] never panics or returns a Go error: each call
// yields an [Outcome] whose Content is always a JSON string suitable as the
// tool-result message, so every tool call gets exactly one paired reply.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ZuhaMK/Flight-AI/pkg/types"
)

// ID identifies a supported tool. The zero value is not a valid ID.
type ID string

const (
	// FlightPrices looks up current prices between two locations.
	FlightPrices ID = "get_flight_prices"
)

// allIDs lists every supported tool in declaration order.
var allIDs = []ID{FlightPrices}

// ParseID maps a model-supplied function name to an [ID].
func ParseID(name string) (ID, bool) {
	for _, id := range allIDs {
		if string(id) == name {
			return id, true
		}
	}
	return "", false
}

// Kind classifies the result of a dispatched tool call.
type Kind int

const (
	// Success means the handler ran and returned a result payload.
	Success Kind = iota

	// MalformedArguments means the argument JSON could not be decoded or a
	// required parameter was missing. The handler did not run.
	MalformedArguments

	// UnknownTool means the model named a function that is not registered.
	UnknownTool

	// ExecutionFailure means the handler ran but reported an error payload.
	ExecutionFailure
)

// String returns the label used in logs and metrics.
func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case MalformedArguments:
		return "malformed_arguments"
	case UnknownTool:
		return "unknown_tool"
	case ExecutionFailure:
		return "execution_failure"
	default:
		return "unknown"
	}
}

// Outcome is the result of [Registry.Dispatch].
type Outcome struct {
	Kind Kind

	// Content is the JSON payload forwarded to the model as the tool result.
	Content string
}

// PriceLookup is the flight price source backing [FlightPrices].
type PriceLookup interface {
	Prices(ctx context.Context, origin, destination, date string) string
}

// LocationResolver normalises place names to IATA codes.
type LocationResolver interface {
	Resolve(place string) (code string, ok bool)
}

// errInvalidArgs marks handler errors that stem from bad input.
type errInvalidArgs struct{ err error }

func (e errInvalidArgs) Error() string { return e.err.Error() }
func (e errInvalidArgs) Unwrap() error { return e.err }

// handler decodes args and returns the JSON result. Argument problems are
// reported as errInvalidArgs.
type handler func(ctx context.Context, args string) (string, error)

type entry struct {
	def     types.ToolDefinition
	handler handler
}

// Option is a functional option for [NewRegistry].
type Option func(*Registry)

// WithLocationResolver normalises origin and destination before lookup.
func WithLocationResolver(r LocationResolver) Option {
	return func(reg *Registry) {
		reg.resolver = r
	}
}

// Registry holds the tool set. It is immutable after construction and safe
// for concurrent use.
type Registry struct {
	entries  map[ID]entry
	resolver LocationResolver
}

// NewRegistry binds every supported tool to its handler.
func NewRegistry(prices PriceLookup, opts ...Option) *Registry {
	r := &Registry{entries: make(map[ID]entry, len(allIDs))}
	for _, o := range opts {
		o(r)
	}
	r.entries[FlightPrices] = entry{
		def:     flightPricesDefinition(),
		handler: r.flightPricesHandler(prices),
	}
	return r
}

// Definitions returns the tool declarations offered to the model. The result
// is a fresh copy on every call.
func (r *Registry) Definitions() []types.ToolDefinition {
	defs := make([]types.ToolDefinition, 0, len(allIDs))
	for _, id := range allIDs {
		e := r.entries[id]
		def := e.def
		def.Parameters = cloneSchema(e.def.Parameters)
		defs = append(defs, def)
	}
	return defs
}

// Dispatch runs the tool named by call.
func (r *Registry) Dispatch(ctx context.Context, call types.ToolCall) (out Outcome) {
	id, ok := ParseID(call.Name)
	if !ok {
		slog.Warn("tools: unknown tool requested", "tool", call.Name, "call_id", call.ID)
		return Outcome{Kind: UnknownTool, Content: types.ErrorPayload("Unknown tool: " + call.Name)}
	}
	e := r.entries[id]

	defer func() {
		if p := recover(); p != nil {
			slog.Error("tools: handler panicked", "tool", call.Name, "panic", p)
			out = Outcome{Kind: ExecutionFailure, Content: types.ErrorPayload(fmt.Sprintf("Tool %s failed: %v", call.Name, p))}
		}
	}()

	content, err := e.handler(ctx, call.Arguments)
	if err != nil {
		var invalid errInvalidArgs
		if errors.As(err, &invalid) {
			slog.Warn("tools: malformed arguments", "tool", call.Name, "call_id", call.ID, "err", err)
			return Outcome{Kind: MalformedArguments, Content: types.ErrorPayload(fmt.Sprintf("Invalid arguments for %s: %v", call.Name, err))}
		}
		return Outcome{Kind: ExecutionFailure, Content: types.ErrorPayload(fmt.Sprintf("Tool %s failed: %v", call.Name, err))}
	}
	if isErrorPayload(content) {
		return Outcome{Kind: ExecutionFailure, Content: content}
	}
	return Outcome{Kind: Success, Content: content}
}

// isErrorPayload reports whether content is a JSON object with an "error" key.
func isErrorPayload(content string) bool {
	var probe struct {
		Error *string `json:"error"`
	}
	if err := json.Unmarshal([]byte(content), &probe); err != nil {
		return false
	}
	return probe.Error != nil
}

func cloneSchema(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch tv := v.(type) {
		case map[string]any:
			out[k] = cloneSchema(tv)
		case []string:
			out[k] = append([]string(nil), tv...)
		case []any:
			out[k] = append([]any(nil), tv...)
		default:
			out[k] = v
		}
	}
	return out
}
