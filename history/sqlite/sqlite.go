// Package sqlite provides a core.HistoryStore backed by SQLite via the
// pure-Go modernc.org/sqlite driver, for transcripts that survive restarts.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/npcflow/core"
)

// Defaults mirror the in-memory store.
const (
	DefaultMaxMessages = 10
	DefaultTTL         = time.Hour
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	npc_id     TEXT    NOT NULL,
	player_id  TEXT    NOT NULL,
	role       TEXT    NOT NULL,
	content    TEXT    NOT NULL,
	created_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_pair ON messages(npc_id, player_id, id);
`

// StoreOptions configure a Store.
type StoreOptions struct {
	// MaxMessages caps each pair's transcript; the newest rows win.
	MaxMessages int

	// TTL is how long a pair's transcript survives without activity.
	TTL time.Duration
}

// Store is a durable core.HistoryStore. Each message is one row; the cap and
// the TTL are enforced on write and read respectively, so the table never
// grows past MaxMessages rows per active pair.
type Store struct {
	db   *sql.DB
	opts StoreOptions
}

// Open creates or opens the database at path and prepares the schema.
func Open(path string, optFns ...func(o *StoreOptions)) (*Store, error) {
	opts := StoreOptions{
		MaxMessages: DefaultMaxMessages,
		TTL:         DefaultTTL,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare schema: %w", err)
	}

	return &Store{db: db, opts: opts}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// History implements core.HistoryStore. Expired rows are pruned, then the
// newest MaxMessages rows are returned oldest-first.
func (s *Store) History(ctx context.Context, npcID, playerID string) ([]core.Message, error) {
	now := time.Now().Unix()

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM messages WHERE npc_id = ? AND player_id = ? AND expires_at <= ?`,
		npcID, playerID, now,
	); err != nil {
		return nil, fmt.Errorf("prune expired messages: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content FROM messages
		 WHERE npc_id = ? AND player_id = ?
		 ORDER BY id DESC LIMIT ?`,
		npcID, playerID, s.opts.MaxMessages,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var newest []core.Message
	for rows.Next() {
		var m core.Message
		if err := rows.Scan(&m.Role, &m.Content); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		newest = append(newest, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	// Newest-first from the query; flip into stored order.
	out := make([]core.Message, len(newest))
	for i, m := range newest {
		out[len(newest)-1-i] = m
	}

	return out, nil
}

// Append implements core.HistoryStore: insert the trimmed message, drop rows
// beyond the cap and refresh the whole pair's expiry, atomically.
func (s *Store) Append(ctx context.Context, npcID, playerID, role, content string) error {
	now := time.Now()
	expiresAt := now.Add(s.opts.TTL).Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (npc_id, player_id, role, content, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		npcID, playerID, role, strings.TrimSpace(content), now.Unix(), expiresAt,
	); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM messages WHERE npc_id = ? AND player_id = ? AND id NOT IN (
			SELECT id FROM messages WHERE npc_id = ? AND player_id = ?
			ORDER BY id DESC LIMIT ?
		)`,
		npcID, playerID, npcID, playerID, s.opts.MaxMessages,
	); err != nil {
		return fmt.Errorf("prune messages: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE messages SET expires_at = ? WHERE npc_id = ? AND player_id = ?`,
		expiresAt, npcID, playerID,
	); err != nil {
		return fmt.Errorf("refresh expiry: %w", err)
	}

	return tx.Commit()
}

// ExtendExpiry implements core.HistoryStore.
func (s *Store) ExtendExpiry(ctx context.Context, npcID, playerID string) error {
	expiresAt := time.Now().Add(s.opts.TTL).Unix()

	if _, err := s.db.ExecContext(ctx,
		`UPDATE messages SET expires_at = ? WHERE npc_id = ? AND player_id = ?`,
		expiresAt, npcID, playerID,
	); err != nil {
		return fmt.Errorf("refresh expiry: %w", err)
	}

	return nil
}

// Clear implements core.HistoryStore.
func (s *Store) Clear(ctx context.Context, npcID, playerID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM messages WHERE npc_id = ? AND player_id = ?`,
		npcID, playerID,
	); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}

	return nil
}
