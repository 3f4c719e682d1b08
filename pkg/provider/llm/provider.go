// Package llm defines the Provider interface for Large Language Model backends.
//
// An LLM provider wraps a remote or local model API (e.g., OpenAI GPT-4 Turbo,
// Anthropic Claude, or a local Ollama instance) and exposes a uniform interface
// for the conversation orchestrator to perform completions, count tokens, and
// inspect model capabilities without coupling to any specific SDK.
//
// Implementors must be safe for concurrent use.
package llm

import (
	"context"

	"github.com/ZuhaMK/Flight-AI/pkg/types"
)

// ToolChoice controls whether the model may call the offered tools.
type ToolChoice string

const (
	// ToolChoiceDefault leaves the field unset; the provider applies its own default.
	ToolChoiceDefault ToolChoice = ""

	// ToolChoiceAuto lets the model decide between replying and calling tools.
	ToolChoiceAuto ToolChoice = "auto"

	// ToolChoiceNone forbids tool calls even when tools are offered.
	ToolChoiceNone ToolChoice = "none"
)

// Usage holds token accounting information returned by the LLM backend.
type Usage struct {
	// PromptTokens is the number of tokens consumed by the input messages.
	PromptTokens int

	// CompletionTokens is the number of tokens generated in the response.
	CompletionTokens int

	// TotalTokens is PromptTokens + CompletionTokens.
	TotalTokens int
}

// CompletionRequest carries everything the LLM needs to produce a response.
// Callers should treat a zero-value request as invalid; at minimum Messages must
// be non-empty.
type CompletionRequest struct {
	// Messages is the ordered conversation history, including the system
	// message that seeds it.
	Messages []types.Message

	// Tools is the set of function/tool definitions offered to the model. The model
	// may choose to call one or more of them in its response.
	Tools []types.ToolDefinition

	// ToolChoice is only sent when Tools is non-empty.
	ToolChoice ToolChoice

	// Temperature controls output randomness in the range [0.0, 2.0]. Zero
	// means use the provider default.
	Temperature float64

	// MaxTokens caps the number of completion tokens the model may generate.
	// Zero means use the provider default.
	MaxTokens int
}

// CompletionResponse is returned by Complete.
type CompletionResponse struct {
	// Content is the full text of the assistant's reply. Empty when the model
	// responds exclusively with tool calls.
	Content string

	// ToolCalls lists all tool invocations requested by the model, in the
	// order the model listed them. The caller is responsible for executing
	// them and appending one result message per call to the conversation.
	ToolCalls []types.ToolCall

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// Message returns the assistant message that represents r in a conversation
// history.
func (r *CompletionResponse) Message() types.Message {
	msg := types.Message{Role: types.RoleAssistant, Content: r.Content}
	if len(r.ToolCalls) > 0 {
		msg.ToolCalls = make([]types.ToolCall, len(r.ToolCalls))
		copy(msg.ToolCalls, r.ToolCalls)
	}
	return msg
}

// Provider is the abstraction over any LLM backend.
//
// Implementations must be safe for concurrent use from multiple goroutines and
// must return promptly when ctx is cancelled.
type Provider interface {
	// Complete sends req to the model and waits for the full response.
	//
	// Returns an error if the request fails (network, quota, rejected
	// request) or if ctx is cancelled before the completion arrives.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// CountTokens estimates the number of tokens that the given message list would
	// consume in the model's context window. The result need not be exact but
	// should not undercount.
	CountTokens(messages []types.Message) (int, error)

	// Capabilities returns static metadata describing what this provider's underlying
	// model supports.
	Capabilities() types.ModelCapabilities
}

// EstimateTokens is the ~4 characters per token approximation shared by the
// built-in providers.
func EstimateTokens(messages []types.Message) int {
	total := 0
	for _, m := range messages {
		total += (len(m.Content) + 3) / 4
		for _, tc := range m.ToolCalls {
			total += (len(tc.Name) + len(tc.Arguments) + 3) / 4
		}
		// Per-message overhead (role + formatting).
		total += 4
	}
	return total
}
