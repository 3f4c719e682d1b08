package resilience

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/failsafehttp"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/failsafe-go/failsafe-go/timeout"
)

// RetryableStatuses are the HTTP status codes that trigger a retry.
var RetryableStatuses = []int{
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// RetryConfig tunes the client returned by [NewRetryClient].
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first. Default: 3.
	MaxAttempts int

	// Backoff is the delay before the first retry; it doubles per retry up to
	// MaxBackoff. Default: 500ms.
	Backoff time.Duration

	// MaxBackoff caps the retry delay. Default: 4s.
	MaxBackoff time.Duration

	// AttemptTimeout bounds each individual attempt. Default: 10s.
	AttemptTimeout time.Duration

	// Transport is the underlying round tripper. Default: http.DefaultTransport.
	Transport http.RoundTripper
}

func (c *RetryConfig) applyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.Backoff <= 0 {
		c.Backoff = 500 * time.Millisecond
	}
	if c.MaxBackoff < c.Backoff {
		c.MaxBackoff = max(4*time.Second, c.Backoff)
	}
	if c.Transport == nil {
		c.Transport = http.DefaultTransport
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = 10 * time.Second
	}
}

// NewRetryClient returns an HTTP client that retries transport errors and
// [RetryableStatuses] with exponential backoff. Each attempt has its own
// timeout. When every attempt fails, the last response or error is returned
// to the caller unchanged.
func NewRetryClient(cfg RetryConfig) *http.Client {
	cfg.applyDefaults()

	retryPolicy := retrypolicy.NewBuilder[*http.Response]().
		HandleIf(func(resp *http.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp != nil && slices.Contains(RetryableStatuses, resp.StatusCode)
		}).
		WithBackoff(cfg.Backoff, cfg.MaxBackoff).
		WithMaxAttempts(cfg.MaxAttempts).
		ReturnLastFailure().
		OnRetry(func(e failsafe.ExecutionEvent[*http.Response]) {
			attrs := []any{"attempt", e.Attempts()}
			if resp := e.LastResult(); resp != nil {
				attrs = append(attrs, "status", resp.StatusCode)
			}
			if err := e.LastError(); err != nil {
				attrs = append(attrs, "error", err)
			}
			slog.Debug("retrying http request", attrs...)
		}).
		Build()

	timeoutPolicy := timeout.New[*http.Response](cfg.AttemptTimeout)

	return &http.Client{
		Transport: failsafehttp.NewRoundTripper(cfg.Transport, retryPolicy, timeoutPolicy),
	}
}
