package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ZuhaMK/Flight-AI/internal/conversation"
	"github.com/ZuhaMK/Flight-AI/internal/observe"
	"github.com/ZuhaMK/Flight-AI/pkg/types"
)

// Runner executes one conversation turn. [*conversation.Orchestrator]
// satisfies it.
type Runner interface {
	Run(ctx context.Context, conv *conversation.Conversation, text string) (string, error)
}

// ManagerOption is a functional option for [NewManager].
type ManagerOption func(*Manager)

// WithStore replaces the default [MemoryStore].
func WithStore(s Store) ManagerOption {
	return func(m *Manager) {
		m.store = s
	}
}

// WithMode sets the history mode. Default: [ModeStateful].
func WithMode(mode Mode) ManagerOption {
	return func(m *Manager) {
		m.mode = mode
	}
}

// WithSystemPrompt overrides [conversation.DefaultSystemPrompt].
func WithSystemPrompt(prompt string) ManagerOption {
	return func(m *Manager) {
		m.systemPrompt = prompt
	}
}

// WithHistoryBudget trims the history sent to the model to at most maxTokens
// as estimated by counter. The stored history is never trimmed.
func WithHistoryBudget(maxTokens int, counter TokenCounter) ManagerOption {
	return func(m *Manager) {
		m.budget = maxTokens
		m.counter = counter
	}
}

// WithManagerMetrics records session counters to met instead of
// [observe.DefaultMetrics].
func WithManagerMetrics(met *observe.Metrics) ManagerOption {
	return func(m *Manager) {
		m.metrics = met
	}
}

// Manager serves chat turns for many sessions. Turns on the same session run
// one at a time; different sessions run in parallel.
type Manager struct {
	runner       Runner
	store        Store
	mode         Mode
	systemPrompt string
	budget       int
	counter      TokenCounter
	metrics      *observe.Metrics

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewManager creates a Manager that runs turns with runner.
func NewManager(runner Runner, opts ...ManagerOption) *Manager {
	m := &Manager{
		runner:       runner,
		mode:         ModeStateful,
		systemPrompt: conversation.DefaultSystemPrompt,
		locks:        make(map[string]*sessionLock),
	}
	for _, o := range opts {
		o(m)
	}
	if m.store == nil {
		m.store = NewMemoryStore()
	}
	if m.metrics == nil {
		m.metrics = observe.DefaultMetrics()
	}
	return m
}

// Chat answers text in the session identified by sessionID and returns the
// reply together with the session id used. An empty sessionID starts a new
// session. An unknown sessionID starts a new history under that id.
func (m *Manager) Chat(ctx context.Context, sessionID, text string) (reply, id string, err error) {
	id = sessionID
	if id == "" {
		id = uuid.NewString()
	}
	ctx = observe.WithSession(ctx, id)

	unlock := m.lock(id)
	defer unlock()

	if m.mode == ModeStateless {
		m.metrics.RecordSessionStarted(ctx, string(m.mode))
		conv := conversation.NewConversation(id, m.systemPrompt)
		reply, err = m.runner.Run(ctx, conv, text)
		return reply, id, err
	}

	stored, err := m.store.Load(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		stored = nil
	case err != nil:
		return "", id, fmt.Errorf("session: load %q: %w", id, err)
	}

	// Persisted history of a new session starts with the system prompt.
	var pending []types.Message
	if len(stored) == 0 {
		m.metrics.RecordSessionStarted(ctx, string(m.mode))
		observe.Logger(ctx).Debug("session started")
		pending = conversation.NewConversation(id, m.systemPrompt).Messages()
		stored = pending
	}

	window, err := Trim(stored, m.budget, m.counter)
	if err != nil {
		return "", id, fmt.Errorf("session: trim %q: %w", id, err)
	}
	conv, err := conversation.Restore(id, window)
	if err != nil {
		return "", id, fmt.Errorf("session: %w", err)
	}

	reply, err = m.runner.Run(ctx, conv, text)
	if err != nil {
		return "", id, err
	}

	added := conv.Messages()[len(window):]
	if err := m.store.Save(ctx, id, append(pending, added...)); err != nil {
		return "", id, fmt.Errorf("session: save %q: %w", id, err)
	}
	return reply, id, nil
}

// History returns the stored messages of a session.
func (m *Manager) History(ctx context.Context, sessionID string) ([]types.Message, error) {
	return m.store.Load(ctx, sessionID)
}

// Ping checks the backing store.
func (m *Manager) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}

// lock acquires the per-session lock and returns its release function. The
// lock entry is dropped once no caller holds or waits for it.
func (m *Manager) lock(id string) func() {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &sessionLock{}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, id)
		}
		m.mu.Unlock()
	}
}
