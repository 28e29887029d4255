package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/npcflow/core"
)

// InMemoryStore is a naive process-local core.EpisodicStore. It keeps one
// insertion-ordered entry slice per NPC and serves Search by case-insensitive
// substring matching, assigning a constant score of 1.0 to every hit.
// Suitable for tests and ephemeral scenes; swap in memory/sqlite for durable,
// vector-ranked recall.
//
// Concurrency: protected by RWMutex.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]storedEntry
	counter int
}

type storedEntry struct {
	id    string
	entry core.EpisodicEntry
}

// NewInMemoryStore creates an empty in-memory episodic store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string][]storedEntry)}
}

// Search implements core.EpisodicStore. An empty query matches everything up
// to k entries in insertion order.
func (s *InMemoryStore) Search(_ context.Context, npcID, query string, k int) ([]core.EpisodicHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if k <= 0 {
		return nil, nil
	}

	needle := strings.ToLower(query)

	var hits []core.EpisodicHit
	for _, st := range s.entries[npcID] {
		if needle != "" && !strings.Contains(strings.ToLower(st.entry.Content), needle) {
			continue
		}
		hits = append(hits, core.EpisodicHit{
			ID:       st.id,
			Content:  st.entry.Content,
			Score:    1.0,
			Metadata: st.entry.Metadata,
		})
		if len(hits) == k {
			break
		}
	}

	return hits, nil
}

// Add implements core.EpisodicStore, generating simple incremental ids.
func (s *InMemoryStore) Add(_ context.Context, npcID string, entries []core.EpisodicEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range entries {
		s.counter++
		s.entries[npcID] = append(s.entries[npcID], storedEntry{
			id:    fmt.Sprintf("mem_%d", s.counter),
			entry: entry,
		})
	}

	return nil
}

// All implements core.EpisodicStore: insertion-ordered entries, up to limit
// (a limit <= 0 means no limit).
func (s *InMemoryStore) All(_ context.Context, npcID string, limit int) ([]core.EpisodicEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.entries[npcID]
	n := len(stored)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]core.EpisodicEntry, 0, n)
	for _, st := range stored[:n] {
		out = append(out, st.entry)
	}

	return out, nil
}

// Clear implements core.EpisodicStore.
func (s *InMemoryStore) Clear(_ context.Context, npcID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, npcID)

	return nil
}
