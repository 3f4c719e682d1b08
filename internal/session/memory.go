package session

import (
	"context"
	"sync"

	"github.com/ZuhaMK/Flight-AI/pkg/types"
)

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps histories in process memory. Histories are lost on
// restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]types.Message
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]types.Message)}
}

// Load implements [Store].
func (s *MemoryStore) Load(_ context.Context, sessionID string) ([]types.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneMessages(msgs), nil
}

// Save implements [Store].
func (s *MemoryStore) Save(_ context.Context, sessionID string, messages []types.Message) error {
	if len(messages) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], cloneMessages(messages)...)
	return nil
}

// Ping implements [Store]. It always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Len returns the number of sessions held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func cloneMessages(msgs []types.Message) []types.Message {
	out := make([]types.Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}
