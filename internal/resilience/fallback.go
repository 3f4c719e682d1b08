package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllFailed is returned when every entry in a [FallbackGroup] fails or has an
// open circuit breaker.
var ErrAllFailed = errors.New("all providers failed")

// FallbackConfig configures the per-entry circuit breaker created for each
// provider in a [FallbackGroup].
type FallbackConfig struct {
	CircuitBreaker CircuitBreakerConfig
}

// fallbackEntry pairs a provider value with its dedicated circuit breaker.
type fallbackEntry[T any] struct {
	name    string
	value   T
	breaker *CircuitBreaker
}

// FallbackGroup wraps a primary and zero or more fallback instances of the same
// provider type. When the primary fails (or its circuit breaker is open), the
// next healthy fallback is tried in registration order.
//
// Entries must be registered before the group is used concurrently.
type FallbackGroup[T any] struct {
	entries []fallbackEntry[T]
	cfg     FallbackConfig
}

// NewFallbackGroup creates a [FallbackGroup] with primary as the first entry.
func NewFallbackGroup[T any](primary T, primaryName string, cfg FallbackConfig) *FallbackGroup[T] {
	fg := &FallbackGroup[T]{cfg: cfg}
	fg.AddFallback(primaryName, primary)
	return fg
}

// AddFallback appends a fallback provider. Fallbacks are tried in the order they
// are added, after the primary.
func (fg *FallbackGroup[T]) AddFallback(name string, fallback T) {
	cbCfg := fg.cfg.CircuitBreaker
	cbCfg.Name = name
	fg.entries = append(fg.entries, fallbackEntry[T]{
		name:    name,
		value:   fallback,
		breaker: NewCircuitBreaker(cbCfg),
	})
}

// Names returns the entry names in the order they are tried.
func (fg *FallbackGroup[T]) Names() []string {
	names := make([]string, len(fg.entries))
	for i, e := range fg.entries {
		names[i] = e.name
	}
	return names
}

// Primary returns the first registered entry.
func (fg *FallbackGroup[T]) Primary() T {
	return fg.entries[0].value
}

// Healthy returns nil when at least one entry's circuit is not open.
func (fg *FallbackGroup[T]) Healthy() error {
	for i := range fg.entries {
		if fg.entries[i].breaker.State() != StateOpen {
			return nil
		}
	}
	return fmt.Errorf("%w: every circuit is open", ErrAllFailed)
}

// Execute tries fn against each entry in order until one succeeds.
func (fg *FallbackGroup[T]) Execute(ctx context.Context, fn func(T) error) error {
	_, err := ExecuteWithResult(ctx, fg, func(v T) (struct{}, error) {
		return struct{}{}, fn(v)
	})
	return err
}

// ExecuteWithResult tries fn against each entry in order until one succeeds.
// Entries with an open circuit are skipped. When every entry fails the error
// wraps [ErrAllFailed] and the last failure. Failover stops once ctx is done.
func ExecuteWithResult[T any, R any](ctx context.Context, fg *FallbackGroup[T], fn func(T) (R, error)) (R, error) {
	r, _, err := execute(ctx, fg, fn)
	return r, err
}

// execute is [ExecuteWithResult] that also reports which entry answered.
func execute[T any, R any](ctx context.Context, fg *FallbackGroup[T], fn func(T) (R, error)) (result R, served string, err error) {
	var lastErr error
	for i := range fg.entries {
		entry := &fg.entries[i]
		var r R
		err := entry.breaker.Execute(func() error {
			var callErr error
			r, callErr = fn(entry.value)
			return callErr
		})
		if err == nil {
			return r, entry.name, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return result, "", fmt.Errorf("%s: %w", entry.name, err)
		}
		if errors.Is(err, ErrCircuitOpen) {
			slog.Debug("resilience: circuit open, skipping", "backend", entry.name)
			continue
		}
		slog.Warn("resilience: backend failed, trying next", "backend", entry.name, "err", err)
	}
	return result, "", fmt.Errorf("%w: %w", ErrAllFailed, lastErr)
}
