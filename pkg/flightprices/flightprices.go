// Package flightprices is a client for the Travelpayouts "latest prices" API.
//
// [Client.Prices] never fails: every problem (missing token, transport error,
// non-2xx status after retries, malformed body) is folded into a JSON error
// payload so it can be handed to the model as an ordinary tool result.
package flightprices

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/ZuhaMK/Flight-AI/internal/resilience"
	"github.com/ZuhaMK/Flight-AI/pkg/types"
)

// DefaultBaseURL is the public Travelpayouts API root.
const DefaultBaseURL = "https://api.travelpayouts.com"

// pricesPath is appended to the base URL.
const pricesPath = "/v2/prices/latest"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 4 << 20

// MissingTokenMessage is the error reported when no API token is configured.
const MissingTokenMessage = "Missing API token for flight service."

// Client queries flight prices. It is safe for concurrent use.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

// Option is a functional option for Client.
type Option func(*Client)

// WithBaseURL overrides [DefaultBaseURL].
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient replaces the default retrying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithRetry configures the default retrying HTTP client.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Client) {
		c.http = resilience.NewRetryClient(cfg)
	}
}

// New creates a Client. An empty token is accepted; every lookup then
// returns the missing-token payload.
func New(token string, opts ...Option) *Client {
	c := &Client{token: token, baseURL: DefaultBaseURL}
	for _, o := range opts {
		o(c)
	}
	if c.http == nil {
		c.http = resilience.NewRetryClient(resilience.RetryConfig{})
	}
	return c
}

// Prices returns the latest known prices between origin and destination as a
// compact JSON string, or a {"error": ...} payload. date is accepted for
// forward compatibility; the remote endpoint ignores it.
func (c *Client) Prices(ctx context.Context, origin, destination, date string) string {
	if c.token == "" {
		slog.Warn("flightprices: lookup without api token")
		return types.ErrorPayload(MissingTokenMessage)
	}

	body, err := c.fetch(ctx, origin, destination)
	if err != nil {
		slog.Warn("flightprices: lookup failed",
			"origin", origin, "destination", destination, "date", date, "err", err)
		return types.ErrorPayload("Flight API network problem: " + err.Error())
	}
	return body
}

func (c *Client) fetch(ctx context.Context, origin, destination string) (string, error) {
	u, err := url.Parse(c.baseURL + pricesPath)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	q := u.Query()
	q.Set("origin", origin)
	q.Set("destination", destination)
	q.Set("token", c.token)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", redact(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	var out bytes.Buffer
	if err := json.Compact(&out, raw); err != nil {
		return "", fmt.Errorf("invalid JSON response: %w", err)
	}
	return out.String(), nil
}

// redact drops the request URL, which carries the API token, from transport
// errors.
func redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}
