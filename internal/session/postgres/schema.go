// Package postgres provides a PostgreSQL-backed [session.Store].
//
// Each message is one row of the conversation_messages table, ordered by a
// per-session position. Tool calls are stored as JSONB. [Migrate] creates the
// table when missing and is run by [NewStore].
//
// Usage:
//
//	store, err := postgres.NewStore(ctx, dsn)
//	if err != nil { … }
//	defer store.Close()
//
//	mgr := session.NewManager(orch, session.WithStore(store))
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ddlConversationMessages = `
CREATE TABLE IF NOT EXISTS conversation_messages (
    session_id    TEXT         NOT NULL,
    position      INTEGER      NOT NULL,
    role          TEXT         NOT NULL,
    content       TEXT         NOT NULL DEFAULT '',
    name          TEXT         NOT NULL DEFAULT '',
    tool_call_id  TEXT         NOT NULL DEFAULT '',
    tool_calls    JSONB        NOT NULL DEFAULT '[]',
    created_at    TIMESTAMPTZ  NOT NULL DEFAULT now(),
    PRIMARY KEY (session_id, position)
);

CREATE INDEX IF NOT EXISTS idx_conversation_messages_created_at
    ON conversation_messages (created_at);
`

// Migrate creates the conversation_messages table and its indexes. It is
// idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, ddlConversationMessages); err != nil {
		return fmt.Errorf("migrate conversation_messages: %w", err)
	}
	return nil
}
