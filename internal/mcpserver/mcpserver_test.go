package mcpserver

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ZuhaMK/Flight-AI/internal/tools"
)

// fakePrices records lookups and returns a fixed payload.
type fakePrices struct {
	calls []string
	reply string
}

func (f *fakePrices) Prices(_ context.Context, origin, destination, _ string) string {
	f.calls = append(f.calls, origin+"-"+destination)
	return f.reply
}

func connect(t *testing.T, s *Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	ct, st := mcp.NewInMemoryTransports()
	ss, err := s.MCP().Connect(ctx, st, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	var sb strings.Builder
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}

func TestListTools(t *testing.T) {
	t.Parallel()
	cs := connect(t, New(tools.NewRegistry(&fakePrices{})))

	res, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(res.Tools) != 1 {
		t.Fatalf("got %d tools, want 1", len(res.Tools))
	}
	if res.Tools[0].Name != "get_flight_prices" {
		t.Errorf("tool name = %q", res.Tools[0].Name)
	}
	if res.Tools[0].Description != tools.FlightPricesDescription {
		t.Errorf("description = %q", res.Tools[0].Description)
	}
}

func TestCallTool_Success(t *testing.T) {
	t.Parallel()
	prices := &fakePrices{reply: `{"success":true,"data":[]}`}
	cs := connect(t, New(tools.NewRegistry(prices)))

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "get_flight_prices",
		Arguments: map[string]any{"origin": "DXB", "destination": "LON"},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if res.IsError {
		t.Errorf("IsError = true, want false")
	}
	if got := text(t, res); got != prices.reply {
		t.Errorf("content = %q, want %q", got, prices.reply)
	}
	if len(prices.calls) != 1 || prices.calls[0] != "DXB-LON" {
		t.Errorf("lookups = %v", prices.calls)
	}
}

func TestCallTool_ErrorPayloadSetsIsError(t *testing.T) {
	t.Parallel()
	prices := &fakePrices{reply: `{"error": "Missing API token for flight service."}`}
	cs := connect(t, New(tools.NewRegistry(prices)))

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "get_flight_prices",
		Arguments: map[string]any{"origin": "DXB", "destination": "LON"},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !res.IsError {
		t.Error("IsError = false, want true")
	}
	if got := text(t, res); got != prices.reply {
		t.Errorf("content = %q", got)
	}
}

func TestHandler_ServesHTTP(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(New(tools.NewRegistry(&fakePrices{reply: `{}`})).Handler())
	t.Cleanup(srv.Close)

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "v0"}, nil)
	cs, err := client.Connect(context.Background(), &mcp.StreamableClientTransport{Endpoint: srv.URL}, nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = cs.Close() })

	res, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(res.Tools) != 1 {
		t.Errorf("got %d tools, want 1", len(res.Tools))
	}
}
