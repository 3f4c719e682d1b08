package resilience

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ZuhaMK/Flight-AI/pkg/provider/llm"
	"github.com/ZuhaMK/Flight-AI/pkg/types"
)

// LLMFallback is an [llm.Provider] that fails over across an ordered chain of
// model backends, each behind its own circuit breaker. Both completions of a
// conversation turn go through the chain independently, so a turn may be
// planned by one backend and answered by the next.
type LLMFallback struct {
	group *FallbackGroup[llm.Provider]
}

var _ llm.Provider = (*LLMFallback)(nil)

// NewLLMFallback starts a chain with primary as the preferred backend.
func NewLLMFallback(primary llm.Provider, primaryName string, cfg FallbackConfig) *LLMFallback {
	return &LLMFallback{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback appends a backend to the chain.
func (f *LLMFallback) AddFallback(name string, provider llm.Provider) {
	f.group.AddFallback(name, provider)
}

// Names lists the backends in failover order.
func (f *LLMFallback) Names() []string { return f.group.Names() }

// Check reports an error only while every backend's circuit is open. It is
// used as the "llm" readiness check.
func (f *LLMFallback) Check(context.Context) error { return f.group.Healthy() }

// Complete sends req to the first backend that answers. The name of that
// backend is added to the active span as llm.backend.
func (f *LLMFallback) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	resp, served, err := execute(ctx, f.group, func(p llm.Provider) (*llm.CompletionResponse, error) {
		return p.Complete(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("llm.backend", served))
	return resp, nil
}

// CountTokens uses the primary's estimate.
func (f *LLMFallback) CountTokens(messages []types.Message) (int, error) {
	return f.group.Primary().CountTokens(messages)
}

// Capabilities is the intersection over the chain: the smallest context
// window and output limit, and tool calling only if every backend has it.
func (f *LLMFallback) Capabilities() types.ModelCapabilities {
	caps := f.group.Primary().Capabilities()
	for _, e := range f.group.entries[1:] {
		c := e.value.Capabilities()
		caps.ContextWindow = minPositive(caps.ContextWindow, c.ContextWindow)
		caps.MaxOutputTokens = minPositive(caps.MaxOutputTokens, c.MaxOutputTokens)
		caps.SupportsToolCalling = caps.SupportsToolCalling && c.SupportsToolCalling
	}
	return caps
}

// minPositive treats zero as unknown.
func minPositive(a, b int) int {
	switch {
	case a <= 0:
		return b
	case b <= 0:
		return a
	}
	return min(a, b)
}
