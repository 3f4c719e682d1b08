// Package resilience provides circuit breaker, retry, and provider failover
// primitives for the outbound calls made while answering a chat turn.
//
// [CircuitBreaker] wraps a failsafe-go breaker behind a small error-returning
// API. [FallbackGroup] composes multiple instances of any provider type with
// per-entry circuit breakers so that a failing primary is automatically
// bypassed in favour of healthy fallbacks. [NewRetryClient] builds the
// retrying HTTP client used for the flight price API.
//
// All types are safe for concurrent use.
package resilience

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
)

// ErrCircuitOpen is returned by [CircuitBreaker.Execute] when the breaker is in
// the open state and the reset timeout has not yet elapsed.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State represents the current operating mode of a [CircuitBreaker].
type State int

const (
	// StateClosed is the normal operating state; all calls are forwarded.
	StateClosed State = iota

	// StateOpen indicates the breaker has tripped due to consecutive failures.
	StateOpen

	// StateHalfOpen is the probe state entered after the reset timeout.
	StateHalfOpen
)

// String returns the human-readable name of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds tuning knobs for a [CircuitBreaker].
type CircuitBreakerConfig struct {
	// Name is a human-readable label used in log messages.
	Name string

	// MaxFailures is the number of consecutive failures in the closed state
	// before the breaker opens. Default: 5.
	MaxFailures int

	// ResetTimeout is how long the breaker stays open before transitioning to
	// half-open. Default: 30s.
	ResetTimeout time.Duration

	// HalfOpenMax is the number of successful probe calls required in the
	// half-open state before the breaker closes again. Default: 1.
	HalfOpenMax int
}

// CircuitBreaker is a named three-state breaker.
type CircuitBreaker struct {
	name string
	cb   circuitbreaker.CircuitBreaker[any]
}

// NewCircuitBreaker creates a [CircuitBreaker] with the supplied configuration.
// Zero-value config fields are replaced with defaults.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.HalfOpenMax <= 0 {
		cfg.HalfOpenMax = 1
	}
	name := cfg.Name
	cb := circuitbreaker.NewBuilder[any]().
		WithFailureThreshold(uint(cfg.MaxFailures)).
		WithDelay(cfg.ResetTimeout).
		WithSuccessThreshold(uint(cfg.HalfOpenMax)).
		OnOpen(func(circuitbreaker.StateChangedEvent) {
			slog.Warn("circuit breaker opened", "name", name)
		}).
		OnHalfOpen(func(circuitbreaker.StateChangedEvent) {
			slog.Info("circuit breaker transitioning to half-open", "name", name)
		}).
		OnClose(func(circuitbreaker.StateChangedEvent) {
			slog.Info("circuit breaker closed", "name", name)
		}).
		Build()
	return &CircuitBreaker{name: name, cb: cb}
}

// Name returns the label the breaker was created with.
func (b *CircuitBreaker) Name() string { return b.name }

// Execute runs fn if the breaker allows it. In the open state it returns an
// error wrapping [ErrCircuitOpen] without calling fn.
func (b *CircuitBreaker) Execute(fn func() error) error {
	err := failsafe.With[any](b.cb).Run(fn)
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return fmt.Errorf("%w: %s", ErrCircuitOpen, b.name)
	}
	return err
}

// State returns the current [State] of the breaker.
func (b *CircuitBreaker) State() State {
	switch {
	case b.cb.IsOpen():
		return StateOpen
	case b.cb.IsHalfOpen():
		return StateHalfOpen
	default:
		return StateClosed
	}
}

// Reset manually forces the breaker back to [StateClosed].
func (b *CircuitBreaker) Reset() {
	b.cb.Close()
	slog.Info("circuit breaker manually reset", "name", b.name)
}
