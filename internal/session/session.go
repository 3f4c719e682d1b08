// Package session maps chat session ids to conversation histories.
//
// A [Manager] resolves a session id to a [conversation.Conversation], runs one
// turn through the orchestrator, and persists the messages the turn added to
// a [Store]. Two stores are provided: [MemoryStore] for single-process use
// and the PostgreSQL store in the postgres sub-package.
//
// All exported types are safe for concurrent use.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/ZuhaMK/Flight-AI/pkg/types"
)

// ErrNotFound is returned by [Store.Load] when no messages exist for the
// session id.
var ErrNotFound = errors.New("session: not found")

// Store persists conversation histories keyed by session id.
type Store interface {
	// Load returns every stored message of the session in order, or
	// ErrNotFound when the session has none.
	Load(ctx context.Context, sessionID string) ([]types.Message, error)

	// Save appends messages to the session. Callers pass only the messages
	// that have not been stored yet.
	Save(ctx context.Context, sessionID string, messages []types.Message) error

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// Mode selects how history is kept between turns.
type Mode string

const (
	// ModeStateful keeps one history per session id.
	ModeStateful Mode = "stateful"

	// ModeStateless rebuilds the history from the system prompt for every
	// turn. Nothing is stored.
	ModeStateless Mode = "stateless"
)

// ParseMode converts a configuration value to a Mode. The empty string maps
// to [ModeStateful].
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeStateful:
		return ModeStateful, nil
	case ModeStateless:
		return ModeStateless, nil
	default:
		return "", fmt.Errorf("session: unknown mode %q (want %q or %q)", s, ModeStateful, ModeStateless)
	}
}
