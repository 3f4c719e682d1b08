// Package mcpserver exposes the flight tools to MCP clients.
//
// Every call goes through the same [tools.Registry] the chat orchestrator
// uses, so argument checks, location resolution, and error payloads are
// identical on both surfaces. Tool failures are reported as results with
// IsError set; they are never protocol errors.
package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ZuhaMK/Flight-AI/internal/observe"
	"github.com/ZuhaMK/Flight-AI/internal/tools"
	"github.com/ZuhaMK/Flight-AI/pkg/types"
)

// Implementation name and version announced to clients.
const (
	serverName    = "flightai"
	serverVersion = "1.0.0"
)

// Dispatcher runs a tool call. [*tools.Registry] satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, call types.ToolCall) tools.Outcome
}

// Server wraps an MCP server with the flight tools registered.
type Server struct {
	mcp     *mcp.Server
	tools   Dispatcher
	metrics *observe.Metrics
}

// Option is a functional option for [New].
type Option func(*Server)

// WithMetrics records tool calls to m instead of [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// New creates a Server backed by registry.
func New(registry Dispatcher, opts ...Option) *Server {
	s := &Server{
		mcp:   mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil),
		tools: registry,
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        string(tools.FlightPrices),
		Description: tools.FlightPricesDescription,
	}, s.flightPrices)
	return s
}

// MCP returns the underlying SDK server.
func (s *Server) MCP() *mcp.Server { return s.mcp }

// RunStdio serves a single client over stdin and stdout until ctx is
// cancelled or the client disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns a stateless streamable HTTP handler.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, &mcp.StreamableHTTPOptions{
		Stateless: true,
	})
}

func (s *Server) flightPrices(ctx context.Context, _ *mcp.CallToolRequest, in tools.FlightPricesArgs) (*mcp.CallToolResult, any, error) {
	args, err := json.Marshal(in)
	if err != nil {
		return nil, nil, err
	}
	call := types.ToolCall{
		ID:        "mcp_" + uuid.NewString(),
		Name:      string(tools.FlightPrices),
		Arguments: string(args),
	}
	start := time.Now()
	out := s.tools.Dispatch(ctx, call)
	s.metrics.RecordToolCall(ctx, call.Name, out.Kind.String(), time.Since(start))
	observe.Logger(ctx).Info("mcp tool call", "tool", call.Name, "outcome", out.Kind.String())

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: out.Content}},
		IsError: out.Kind != tools.Success,
	}, nil, nil
}
