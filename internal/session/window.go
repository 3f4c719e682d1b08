package session

import (
	"github.com/ZuhaMK/Flight-AI/pkg/types"
)

// TokenCounter estimates the prompt size of a message list. Every
// llm.Provider satisfies it.
type TokenCounter interface {
	CountTokens(messages []types.Message) (int, error)
}

// Trim drops the oldest whole turns from messages until counter reports at
// most budget tokens. A turn starts at a user message and runs to the next
// one, so tool calls and their results are always dropped together. Leading
// system messages and the most recent turn are always kept. A budget of zero
// or less disables trimming.
func Trim(messages []types.Message, budget int, counter TokenCounter) ([]types.Message, error) {
	if budget <= 0 || counter == nil {
		return messages, nil
	}

	head := 0
	for head < len(messages) && messages[head].Role == types.RoleSystem {
		head++
	}
	var starts []int
	for i := head; i < len(messages); i++ {
		if messages[i].Role == types.RoleUser {
			starts = append(starts, i)
		}
	}

	cut := head
	for n := 0; n < len(starts); n++ {
		window := joinWindow(messages[:head], messages[cut:])
		tokens, err := counter.CountTokens(window)
		if err != nil {
			return nil, err
		}
		if tokens <= budget || n == len(starts)-1 {
			return window, nil
		}
		cut = starts[n+1]
	}
	return messages, nil
}

func joinWindow(system, rest []types.Message) []types.Message {
	out := make([]types.Message, 0, len(system)+len(rest))
	out = append(out, system...)
	return append(out, rest...)
}
