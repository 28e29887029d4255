// Package sqlite provides a durable, vector-ranked core.EpisodicStore over
// the pure-Go modernc.org/sqlite driver. Entries are embedded on write;
// Search embeds the query and ranks the NPC's rows by cosine similarity.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/npcflow/core"
	"github.com/hupe1980/npcflow/embedding"
)

const schema = `
CREATE TABLE IF NOT EXISTS episodic_entries (
	id         TEXT PRIMARY KEY,
	npc_id     TEXT NOT NULL,
	content    TEXT NOT NULL,
	speaker    TEXT NOT NULL DEFAULT '',
	player_id  TEXT NOT NULL DEFAULT '',
	kind       TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	embedding  BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_episodic_npc ON episodic_entries(npc_id, created_at);
`

// Store is a durable core.EpisodicStore. The well-known metadata keys the
// persistence stage writes (speaker, player_id, type) are promoted to
// columns; everything else about an entry lives in content + embedding.
type Store struct {
	db       *sql.DB
	embedder embedding.Embedder
}

// Open creates or opens the database at path and prepares the schema. The
// embedder is required: it defines the vector space rows are ranked in.
func Open(path string, embedder embedding.Embedder) (*Store, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
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

	return &Store{db: db, embedder: embedder}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Add implements core.EpisodicStore: one batched embedding call, then all
// inserts inside a transaction.
func (s *Store) Add(ctx context.Context, npcID string, entries []core.EpisodicEntry) error {
	if len(entries) == 0 {
		return nil
	}

	texts := make([]string, len(entries))
	for i, entry := range entries {
		texts[i] = entry.Content
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed entries: %w", err)
	}
	if len(vectors) != len(entries) {
		return fmt.Errorf("embedder returned %d vectors, want %d", len(vectors), len(entries))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for i, entry := range entries {
		blob, err := EncodeVector(vectors[i])
		if err != nil {
			return fmt.Errorf("encode embedding: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO episodic_entries (id, npc_id, content, speaker, player_id, kind, created_at, embedding)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			core.NewID(), npcID, entry.Content,
			metaString(entry.Metadata, "speaker"),
			metaString(entry.Metadata, "player_id"),
			metaString(entry.Metadata, "type"),
			now, blob,
		); err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}
	}

	return tx.Commit()
}

// Search implements core.EpisodicStore. An empty query returns no hits
// without touching the embedder. Rows whose stored vector is corrupt or of a
// different dimension than the query are skipped, not fatal.
func (s *Store) Search(ctx context.Context, npcID, query string, k int) ([]core.EpisodicHit, error) {
	if k <= 0 || strings.TrimSpace(query) == "" {
		return nil, nil
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, speaker, player_id, kind, created_at, embedding
		 FROM episodic_entries WHERE npc_id = ?`,
		npcID,
	)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var hits []core.EpisodicHit
	for rows.Next() {
		var (
			id, content, speaker, playerID, kind string
			createdAt                            int64
			blob                                 []byte
		)
		if err := rows.Scan(&id, &content, &speaker, &playerID, &kind, &createdAt, &blob); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		vec, err := DecodeVector(blob)
		if err != nil || len(vec) != len(queryVec) {
			continue
		}

		score, err := CosineSimilarity(queryVec, vec)
		if err != nil {
			continue
		}

		hits = append(hits, core.EpisodicHit{
			ID:       id,
			Content:  content,
			Score:    score,
			Metadata: rowMetadata(speaker, playerID, kind, createdAt),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}

	return hits, nil
}

// All implements core.EpisodicStore: insertion-ordered entries, up to limit
// (a limit <= 0 means no limit).
func (s *Store) All(ctx context.Context, npcID string, limit int) ([]core.EpisodicEntry, error) {
	q := `SELECT content, speaker, player_id, kind, created_at
	      FROM episodic_entries WHERE npc_id = ? ORDER BY created_at, rowid`
	args := []any{npcID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var out []core.EpisodicEntry
	for rows.Next() {
		var (
			content, speaker, playerID, kind string
			createdAt                        int64
		)
		if err := rows.Scan(&content, &speaker, &playerID, &kind, &createdAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, core.EpisodicEntry{
			Content:  content,
			Metadata: rowMetadata(speaker, playerID, kind, createdAt),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return out, nil
}

// Clear implements core.EpisodicStore.
func (s *Store) Clear(ctx context.Context, npcID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM episodic_entries WHERE npc_id = ?`, npcID,
	); err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}

	return nil
}

func metaString(md map[string]any, key string) string {
	if md == nil {
		return ""
	}
	if v, ok := md[key].(string); ok {
		return v
	}
	return ""
}

func rowMetadata(speaker, playerID, kind string, createdAt int64) map[string]any {
	return map[string]any{
		"speaker":   speaker,
		"player_id": playerID,
		"timestamp": time.Unix(createdAt, 0).Format(time.RFC3339),
		"type":      kind,
	}
}
