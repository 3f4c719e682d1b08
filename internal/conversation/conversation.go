// Package conversation owns chat history and the tool-calling loop that turns
// one user message into one formatted reply.
package conversation

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ZuhaMK/Flight-AI/pkg/types"
)

// ErrEmptyInput is returned by [Orchestrator.Run] for blank user text.
var ErrEmptyInput = errors.New("conversation: empty input")

// DefaultSystemPrompt asks the model for bullet-only markdown.
const DefaultSystemPrompt = "You are a helpful flight assistant that ALWAYS responds in clean markdown bullet points.\n" +
	"Each key parameter or data point must start with a dash (-) or emoji bullet (•, ✈️, 💰, 📅, etc.).\n" +
	"Never write paragraphs. Never use numbering. Only structured bullets."

// Conversation is an append-only message history owned by one chat session.
// It is safe for concurrent use; [Orchestrator.Run] holds its lock for the
// whole turn so turns on the same conversation never interleave.
type Conversation struct {
	// ID identifies the session this history belongs to.
	ID string

	mu       sync.Mutex
	messages []types.Message
}

// NewConversation returns a history seeded with systemPrompt. An empty
// prompt yields an empty history.
func NewConversation(id, systemPrompt string) *Conversation {
	c := &Conversation{ID: id}
	if systemPrompt != "" {
		c.messages = append(c.messages, types.Message{Role: types.RoleSystem, Content: systemPrompt})
	}
	return c
}

// Restore rebuilds a conversation from persisted messages. It fails if the
// messages violate the tool-call pairing rules.
func Restore(id string, messages []types.Message) (*Conversation, error) {
	if err := Validate(messages); err != nil {
		return nil, fmt.Errorf("conversation: restore %q: %w", id, err)
	}
	c := &Conversation{ID: id, messages: make([]types.Message, len(messages))}
	for i, m := range messages {
		c.messages[i] = m.Clone()
	}
	return c, nil
}

// Messages returns a deep copy of the history.
func (c *Conversation) Messages() []types.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneAll(c.messages)
}

// Len returns the number of messages in the history.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// Validate checks the history against the pairing rules; see [Validate].
func (c *Conversation) Validate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Validate(c.messages)
}

// Validate reports whether messages satisfy the pairing rules the providers
// enforce:
//
//   - every tool message answers a tool call requested by an earlier
//     assistant message, and no call is answered twice;
//   - once an assistant message requests tool calls, every one of them is
//     answered before the next non-tool message.
func Validate(messages []types.Message) error {
	pending := map[string]bool{}
	for i, m := range messages {
		switch m.Role {
		case types.RoleTool:
			if m.ToolCallID == "" {
				return fmt.Errorf("message %d: tool message without tool_call_id", i)
			}
			if !pending[m.ToolCallID] {
				return fmt.Errorf("message %d: tool result %q does not answer an open tool call", i, m.ToolCallID)
			}
			delete(pending, m.ToolCallID)
			continue
		case types.RoleSystem, types.RoleUser, types.RoleAssistant:
		default:
			return fmt.Errorf("message %d: unknown role %q", i, m.Role)
		}

		if len(pending) > 0 {
			return fmt.Errorf("message %d: %d tool call(s) left unanswered", i, len(pending))
		}
		for _, tc := range m.ToolCalls {
			if m.Role != types.RoleAssistant {
				return fmt.Errorf("message %d: %s message carries tool calls", i, m.Role)
			}
			if tc.ID == "" {
				return fmt.Errorf("message %d: tool call %q without id", i, tc.Name)
			}
			pending[tc.ID] = true
		}
	}
	if len(pending) > 0 {
		return fmt.Errorf("%d tool call(s) left unanswered", len(pending))
	}
	return nil
}

func cloneAll(msgs []types.Message) []types.Message {
	out := make([]types.Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}
