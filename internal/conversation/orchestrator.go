package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ZuhaMK/Flight-AI/internal/observe"
	"github.com/ZuhaMK/Flight-AI/internal/reply"
	"github.com/ZuhaMK/Flight-AI/internal/tools"
	"github.com/ZuhaMK/Flight-AI/pkg/provider/llm"
	"github.com/ZuhaMK/Flight-AI/pkg/types"
)

// ToolDispatcher is the tool registry consulted by the orchestrator.
type ToolDispatcher interface {
	Definitions() []types.ToolDefinition
	Dispatch(ctx context.Context, call types.ToolCall) tools.Outcome
}

// Option is a functional option for [NewOrchestrator].
type Option func(*Orchestrator)

// WithMetrics records latencies and counters to m instead of
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithProviderName sets the provider label used in metrics. Default: "llm".
func WithProviderName(name string) Option {
	return func(o *Orchestrator) {
		o.providerName = name
	}
}

// WithFormatter replaces [reply.Format] as the final-reply transform.
func WithFormatter(fn func(string) string) Option {
	return func(o *Orchestrator) {
		o.format = fn
	}
}

// Orchestrator runs the tool-calling loop. It holds no per-conversation
// state and is safe for concurrent use across conversations.
type Orchestrator struct {
	llm          llm.Provider
	tools        ToolDispatcher
	metrics      *observe.Metrics
	providerName string
	format       func(string) string
}

// NewOrchestrator wires an LLM provider to a tool registry.
func NewOrchestrator(provider llm.Provider, registry ToolDispatcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		llm:          provider,
		tools:        registry,
		providerName: "llm",
		format:       reply.Format,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = observe.DefaultMetrics()
	}
	return o
}

// Run answers text within conv and returns the formatted reply.
//
// The model is first offered the tool declarations with automatic tool
// choice. If it requests tool calls they are dispatched in order, each
// producing exactly one tool message, and the model is asked once more, with
// no tools, for the final reply. The turn is committed to conv only on
// success; provider errors are returned wrapped and leave conv unchanged.
func (o *Orchestrator) Run(ctx context.Context, conv *Conversation, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyInput
	}

	ctx, span := observe.StartSpan(ctx, "conversation.run")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", conv.ID))

	conv.mu.Lock()
	defer conv.mu.Unlock()

	// Staged history: committed messages followed by this turn's additions.
	history := cloneAll(conv.messages)
	committed := len(history)
	history = append(history, types.Message{Role: types.RoleUser, Content: text})

	first, err := o.complete(ctx, "plan", llm.CompletionRequest{
		Messages:   history,
		Tools:      o.tools.Definitions(),
		ToolChoice: llm.ToolChoiceAuto,
	})
	if err != nil {
		return "", o.fail(ctx, span, err)
	}
	history = append(history, first.Message())

	final := first.Content
	path := "direct"
	if len(first.ToolCalls) > 0 {
		path = "tool"
		for _, call := range first.ToolCalls {
			history = append(history, o.dispatch(ctx, call))
		}

		second, err := o.complete(ctx, "final", llm.CompletionRequest{Messages: history})
		if err != nil {
			return "", o.fail(ctx, span, err)
		}
		final = second.Content
		if n := len(second.ToolCalls); n > 0 {
			observe.Logger(ctx).Warn("final reply requested further tool calls; they are not run",
				"tool_calls", n, "empty_reply", strings.TrimSpace(second.Content) == "")
		}
	}

	formatted := o.format(final)
	history = append(history, types.Message{Role: types.RoleAssistant, Content: formatted})

	conv.messages = append(conv.messages, history[committed:]...)
	o.metrics.RecordTurn(ctx, path)
	span.SetAttributes(attribute.String("conversation.path", path))
	return formatted, nil
}

// complete calls the provider and records latency and request metrics.
func (o *Orchestrator) complete(ctx context.Context, stage string, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	ctx, span := observe.StartSpan(ctx, "llm.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.stage", stage),
		attribute.Int("llm.messages", len(req.Messages)),
		attribute.Int("llm.tools", len(req.Tools)),
	)

	start := time.Now()
	resp, err := o.llm.Complete(ctx, req)
	if err == nil && resp == nil {
		err = errors.New("empty response")
	}
	o.metrics.RecordCompletion(ctx, o.providerName, stage, time.Since(start), err)
	if err != nil {
		observe.Fail(span, err)
		return nil, fmt.Errorf("conversation: %s completion: %w", stage, err)
	}
	span.SetAttributes(
		attribute.Int("llm.tool_calls", len(resp.ToolCalls)),
		attribute.Int("llm.total_tokens", resp.Usage.TotalTokens),
	)
	return resp, nil
}

// dispatch executes one tool call and returns its paired tool message.
func (o *Orchestrator) dispatch(ctx context.Context, call types.ToolCall) types.Message {
	ctx, span := observe.StartSpan(ctx, "tool.dispatch")
	defer span.End()
	span.SetAttributes(
		attribute.String("tool.name", call.Name),
		attribute.String("tool.call_id", call.ID),
	)

	log := observe.Logger(ctx)
	log.Info("calling tool", "tool", call.Name, "call_id", call.ID, "args", call.Arguments)

	start := time.Now()
	out := o.tools.Dispatch(ctx, call)
	o.metrics.RecordToolCall(ctx, call.Name, out.Kind.String(), time.Since(start))

	span.SetAttributes(attribute.String("tool.outcome", out.Kind.String()))
	if out.Kind != tools.Success {
		span.SetStatus(codes.Error, out.Kind.String())
		log.Warn("tool call did not succeed", "tool", call.Name, "call_id", call.ID, "outcome", out.Kind.String())
	}

	return types.Message{
		Role:       types.RoleTool,
		Content:    out.Content,
		Name:       call.Name,
		ToolCallID: call.ID,
	}
}

func (o *Orchestrator) fail(ctx context.Context, span trace.Span, err error) error {
	o.metrics.RecordTurn(ctx, "error")
	observe.Fail(span, err)
	return err
}
