package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ZuhaMK/Flight-AI/pkg/provider/llm"
	"github.com/ZuhaMK/Flight-AI/pkg/types"
)

func TestConvertMessage_System(t *testing.T) {
	param, err := convertMessage(types.Message{Role: types.RoleSystem, Content: "You are helpful."})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if param.OfSystem == nil {
		t.Fatal("expected OfSystem to be set")
	}
}

func TestConvertMessage_User(t *testing.T) {
	param, err := convertMessage(types.Message{Role: types.RoleUser, Content: "Flights to Tokyo?"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if param.OfUser == nil {
		t.Fatal("expected OfUser to be set")
	}
}

// TestConvertMessage_AssistantWithToolCalls checks tool call conversion.
func TestConvertMessage_AssistantWithToolCalls(t *testing.T) {
	msg := types.Message{
		Role: types.RoleAssistant,
		ToolCalls: []types.ToolCall{
			{ID: "call_1", Name: "get_flight_prices", Arguments: `{"origin":"LHR","destination":"JFK","date":"2024-06-01"}`},
		},
	}
	param, err := convertMessage(msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if param.OfAssistant == nil {
		t.Fatal("expected OfAssistant to be set")
	}
	if len(param.OfAssistant.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(param.OfAssistant.ToolCalls))
	}
	tc := param.OfAssistant.ToolCalls[0]
	if tc.ID != "call_1" {
		t.Errorf("expected ID call_1, got %s", tc.ID)
	}
	if tc.Function.Name != "get_flight_prices" {
		t.Errorf("expected function name get_flight_prices, got %s", tc.Function.Name)
	}
}

func TestConvertMessage_Tool(t *testing.T) {
	param, err := convertMessage(types.Message{Role: types.RoleTool, Content: "{}", ToolCallID: "call_1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if param.OfTool == nil {
		t.Fatal("expected OfTool to be set")
	}
	if param.OfTool.ToolCallID != "call_1" {
		t.Errorf("expected ToolCallID call_1, got %s", param.OfTool.ToolCallID)
	}
}

func TestConvertMessage_ToolWithoutID(t *testing.T) {
	if _, err := convertMessage(types.Message{Role: types.RoleTool, Content: "{}"}); err == nil {
		t.Fatal("expected error for tool message without tool_call_id")
	}
}

func TestConvertMessage_UnknownRole(t *testing.T) {
	if _, err := convertMessage(types.Message{Role: "unknown", Content: "test"}); err == nil {
		t.Fatal("expected error for unknown role, got nil")
	}
}

func TestModelCapabilities(t *testing.T) {
	tests := []struct {
		model       string
		window      int
		toolCalling bool
	}{
		{"gpt-4-turbo", 128_000, true},
		{"gpt-4o-mini", 128_000, true},
		{"gpt-4", 8_192, true},
		{"gpt-3.5-turbo", 16_385, true},
		{"o1-mini", 128_000, false},
		{"o3", 200_000, true},
		{"gpt-4.1-mini", 1_047_576, true},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			caps := modelCapabilities(tt.model)
			if caps.ContextWindow != tt.window {
				t.Errorf("ContextWindow = %d, want %d", caps.ContextWindow, tt.window)
			}
			if caps.SupportsToolCalling != tt.toolCalling {
				t.Errorf("SupportsToolCalling = %v, want %v", caps.SupportsToolCalling, tt.toolCalling)
			}
		})
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New("", "gpt-4-turbo"); err == nil {
		t.Error("expected error for empty apiKey")
	}
	if _, err := New("sk-test", ""); err == nil {
		t.Error("expected error for empty model")
	}
}

func TestComplete_ToolCallRoundTrip(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 0,
			"model": "gpt-4-turbo",
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": null,
					"tool_calls": [{
						"id": "call_1",
						"type": "function",
						"function": {"name": "get_flight_prices", "arguments": "{\"origin\":\"LHR\"}"}
					}]
				}
			}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`)
	}))
	defer srv.Close()

	p, err := New("sk-test", "gpt-4-turbo", WithBaseURL(srv.URL+"/v1/"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	resp, err := p.Complete(context.Background(), llm.CompletionRequest{
		Messages: []types.Message{
			{Role: types.RoleSystem, Content: "be brief"},
			{Role: types.RoleUser, Content: "LHR to JFK"},
		},
		Tools: []types.ToolDefinition{{
			Name:        "get_flight_prices",
			Description: "Get flight prices",
			Parameters:  map[string]any{"type": "object"},
		}},
		ToolChoice: llm.ToolChoiceAuto,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].ID != "call_1" || resp.ToolCalls[0].Name != "get_flight_prices" {
		t.Fatalf("unexpected tool calls: %+v", resp.ToolCalls)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("TotalTokens = %d, want 15", resp.Usage.TotalTokens)
	}
	if body["model"] != "gpt-4-turbo" {
		t.Errorf("model = %v, want gpt-4-turbo", body["model"])
	}
	if body["tool_choice"] != "auto" {
		t.Errorf("tool_choice = %v, want auto", body["tool_choice"])
	}
	if tools, _ := body["tools"].([]any); len(tools) != 1 {
		t.Errorf("expected 1 tool in request, got %v", body["tools"])
	}
}

func TestComplete_NoToolsOmitsToolChoice(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c","object":"chat.completion","created":0,"model":"gpt-4-turbo",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"- Price: 200"}}],
			"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`)
	}))
	defer srv.Close()

	p, err := New("sk-test", "gpt-4-turbo", WithBaseURL(srv.URL+"/v1/"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	resp, err := p.Complete(context.Background(), llm.CompletionRequest{
		Messages:   []types.Message{{Role: types.RoleUser, Content: "hi"}},
		ToolChoice: llm.ToolChoiceAuto,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "- Price: 200" {
		t.Errorf("Content = %q", resp.Content)
	}
	if _, ok := body["tool_choice"]; ok {
		t.Error("tool_choice must be omitted when no tools are offered")
	}
	if _, ok := body["tools"]; ok {
		t.Error("tools must be omitted when none are offered")
	}
}

func TestComplete_RefusalBecomesContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c","object":"chat.completion","created":0,"model":"gpt-4o",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":null,"refusal":"I can't help with that."}}]}`)
	}))
	defer srv.Close()

	p, err := New("sk-test", "gpt-4o", WithBaseURL(srv.URL+"/v1/"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	resp, err := p.Complete(context.Background(), llm.CompletionRequest{
		Messages: []types.Message{{Role: types.RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "I can't help with that." {
		t.Errorf("Content = %q, want the refusal text", resp.Content)
	}
}

func TestComplete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c","object":"chat.completion","created":0,"model":"gpt-4o","choices":[]}`)
	}))
	defer srv.Close()

	p, err := New("sk-test", "gpt-4o", WithBaseURL(srv.URL+"/v1/"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = p.Complete(context.Background(), llm.CompletionRequest{
		Messages: []types.Message{{Role: types.RoleUser, Content: "hi"}},
	})
	if !errors.Is(err, ErrNoChoices) {
		t.Errorf("err = %v, want ErrNoChoices", err)
	}
}
