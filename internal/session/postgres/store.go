package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ZuhaMK/Flight-AI/internal/session"
	"github.com/ZuhaMK/Flight-AI/pkg/types"
)

// Compile-time interface check.
var _ session.Store = (*Store)(nil)

// Store persists conversation histories in PostgreSQL. All methods are safe
// for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to the database at dsn, verifies the connection, and
// runs [Migrate].
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Load implements [session.Store].
func (s *Store) Load(ctx context.Context, sessionID string) ([]types.Message, error) {
	const q = `
		SELECT role, content, name, tool_call_id, tool_calls
		FROM   conversation_messages
		WHERE  session_id = $1
		ORDER  BY position`

	rows, err := s.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("postgres store: load: %w", err)
	}
	msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.Message, error) {
		var (
			m     types.Message
			calls []byte
		)
		if err := row.Scan(&m.Role, &m.Content, &m.Name, &m.ToolCallID, &calls); err != nil {
			return m, err
		}
		if err := json.Unmarshal(calls, &m.ToolCalls); err != nil {
			return m, fmt.Errorf("decode tool_calls: %w", err)
		}
		if len(m.ToolCalls) == 0 {
			m.ToolCalls = nil
		}
		return m, nil
	})
	if err != nil {
		return nil, fmt.Errorf("postgres store: load: %w", err)
	}
	if len(msgs) == 0 {
		return nil, session.ErrNotFound
	}
	return msgs, nil
}

// Save implements [session.Store]. The messages are appended after the
// session's current last position in a single transaction.
func (s *Store) Save(ctx context.Context, sessionID string, messages []types.Message) error {
	if len(messages) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres store: save: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var next int
	const qNext = `SELECT COALESCE(MAX(position) + 1, 0) FROM conversation_messages WHERE session_id = $1`
	if err := tx.QueryRow(ctx, qNext, sessionID).Scan(&next); err != nil {
		return fmt.Errorf("postgres store: save: next position: %w", err)
	}

	const qInsert = `
		INSERT INTO conversation_messages
		    (session_id, position, role, content, name, tool_call_id, tool_calls)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	batch := &pgx.Batch{}
	for i, m := range messages {
		calls := m.ToolCalls
		if calls == nil {
			calls = []types.ToolCall{}
		}
		raw, err := json.Marshal(calls)
		if err != nil {
			return fmt.Errorf("postgres store: save: encode tool_calls: %w", err)
		}
		batch.Queue(qInsert, sessionID, next+i, m.Role, m.Content, m.Name, m.ToolCallID, raw)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("postgres store: save: insert: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres store: save: commit: %w", err)
	}
	return nil
}

// Ping implements [session.Store].
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases all connections held by the pool.
func (s *Store) Close() {
	s.pool.Close()
}
