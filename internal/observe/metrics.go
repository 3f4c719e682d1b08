// Package observe holds flightai's telemetry: OpenTelemetry instruments for
// the conversation loop, span helpers, context-aware loggers, and the HTTP
// middleware that ties requests to traces.
//
// Instruments are created from a [metric.MeterProvider]. [InitProvider]
// installs a global provider exported through Prometheus, and
// [DefaultMetrics] binds to whatever global provider is installed. Tests
// build their own with [NewMetrics] and a ManualReader.
package observe

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/ZuhaMK/Flight-AI"

// Metrics is the instrument set. All fields are safe for concurrent use.
type Metrics struct {
	// LLMDuration is completion latency by provider and stage
	// ("plan" for the tool-selecting call, "final" for the answer).
	LLMDuration metric.Float64Histogram

	// ToolExecutionDuration is tool dispatch latency by tool, including
	// the remote price lookup and its retries.
	ToolExecutionDuration metric.Float64Histogram

	// HTTPRequestDuration is request latency by method, route and status.
	HTTPRequestDuration metric.Float64Histogram

	// ProviderRequests counts completions by provider, kind and status.
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts failed completions by provider and kind.
	ProviderErrors metric.Int64Counter

	// ToolCalls counts tool dispatches by tool and outcome status.
	ToolCalls metric.Int64Counter

	// ConversationTurns counts orchestrator runs by path
	// ("direct", "tool" or "error").
	ConversationTurns metric.Int64Counter

	// SessionsCreated counts new conversations by history mode.
	SessionsCreated metric.Int64Counter
}

// latencyBuckets are sized for remote completions and price lookups, in
// seconds.
var latencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30}

// NewMetrics creates every instrument on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)
	m := &Metrics{}

	histogram := func(dst *metric.Float64Histogram, name, desc string, buckets ...float64) error {
		opts := []metric.Float64HistogramOption{metric.WithDescription(desc), metric.WithUnit("s")}
		if len(buckets) > 0 {
			opts = append(opts, metric.WithExplicitBucketBoundaries(buckets...))
		}
		h, err := meter.Float64Histogram(name, opts...)
		*dst = h
		return err
	}
	counter := func(dst *metric.Int64Counter, name, desc string) error {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		*dst = c
		return err
	}

	err := errors.Join(
		histogram(&m.LLMDuration, "flightai.llm.duration", "Latency of LLM completions.", latencyBuckets...),
		histogram(&m.ToolExecutionDuration, "flightai.tool_execution.duration", "Latency of tool dispatch.", latencyBuckets...),
		histogram(&m.HTTPRequestDuration, "flightai.http.request.duration", "HTTP request latency by route."),
		counter(&m.ProviderRequests, "flightai.provider.requests", "Provider requests by provider, kind and status."),
		counter(&m.ProviderErrors, "flightai.provider.errors", "Provider errors by provider and kind."),
		counter(&m.ToolCalls, "flightai.tool.calls", "Tool calls by tool and outcome."),
		counter(&m.ConversationTurns, "flightai.conversation.turns", "Conversation turns by path."),
		counter(&m.SessionsCreated, "flightai.sessions.created", "Chat sessions started by history mode."),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns a shared [Metrics] bound to the global meter
// provider at first use. Call it after [InitProvider].
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		m, err := NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: default metrics: " + err.Error())
		}
		defaultMetrics = m
	})
	return defaultMetrics
}

// RecordCompletion records one LLM call: its latency, the request counter,
// and the error counter when err is non-nil.
func (m *Metrics) RecordCompletion(ctx context.Context, provider, stage string, elapsed time.Duration, err error) {
	m.LLMDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("stage", stage),
	))
	status := "ok"
	if err != nil {
		status = "error"
		m.ProviderErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", "llm"),
		))
	}
	m.ProviderRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("kind", "llm"),
		attribute.String("status", status),
	))
}

// RecordToolCall records one tool dispatch. status is the outcome kind, e.g.
// "success" or "unknown_tool". A zero elapsed skips the latency sample.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string, elapsed time.Duration) {
	if elapsed > 0 {
		m.ToolExecutionDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("tool", tool)))
	}
	m.ToolCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("status", status),
	))
}

// RecordTurn counts a finished conversation turn.
func (m *Metrics) RecordTurn(ctx context.Context, path string) {
	m.ConversationTurns.Add(ctx, 1, metric.WithAttributes(attribute.String("path", path)))
}

// RecordSessionStarted counts a new conversation in the given history mode.
func (m *Metrics) RecordSessionStarted(ctx context.Context, mode string) {
	m.SessionsCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
}
