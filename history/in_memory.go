package history

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/npcflow/core"
)

// Defaults for transcript capping and expiry.
const (
	DefaultMaxMessages = 10
	DefaultTTL         = time.Hour
)

// InMemoryStoreOptions configure an InMemoryStore.
type InMemoryStoreOptions struct {
	// MaxMessages caps each pair's transcript; the newest messages win.
	MaxMessages int

	// TTL is how long a pair's transcript survives without activity.
	TTL time.Duration
}

// InMemoryStore is a process-local core.HistoryStore. It keeps one bounded
// message slice per NPC/player pair and expires whole transcripts after the
// TTL; expired transcripts read as empty and are lazily dropped.
//
// Concurrency: protected by RWMutex. Reads return copies so callers can hold
// the transcript across turns.
type InMemoryStore struct {
	mu    sync.RWMutex
	pairs map[string]*transcript
	opts  InMemoryStoreOptions
}

type transcript struct {
	messages  []core.Message
	expiresAt time.Time
}

func pairKey(npcID, playerID string) string { return npcID + ":" + playerID }

// NewInMemoryStore creates an empty in-memory history store.
func NewInMemoryStore(optFns ...func(o *InMemoryStoreOptions)) *InMemoryStore {
	opts := InMemoryStoreOptions{
		MaxMessages: DefaultMaxMessages,
		TTL:         DefaultTTL,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &InMemoryStore{
		pairs: make(map[string]*transcript),
		opts:  opts,
	}
}

// History implements core.HistoryStore. The returned slice is a copy, ordered
// oldest first.
func (s *InMemoryStore) History(_ context.Context, npcID, playerID string) ([]core.Message, error) {
	key := pairKey(npcID, playerID)

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.pairs[key]
	if !ok {
		return nil, nil
	}
	if time.Now().After(t.expiresAt) {
		delete(s.pairs, key)
		return nil, nil
	}

	out := make([]core.Message, len(t.messages))
	copy(out, t.messages)

	return out, nil
}

// Append implements core.HistoryStore. Content is stored trimmed; the oldest
// message is evicted once the transcript exceeds the cap, and the pair's
// expiry deadline is refreshed.
func (s *InMemoryStore) Append(_ context.Context, npcID, playerID, role, content string) error {
	key := pairKey(npcID, playerID)

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.pairs[key]
	if !ok || time.Now().After(t.expiresAt) {
		t = &transcript{}
		s.pairs[key] = t
	}

	t.messages = append(t.messages, core.Message{Role: role, Content: strings.TrimSpace(content)})
	if len(t.messages) > s.opts.MaxMessages {
		t.messages = t.messages[len(t.messages)-s.opts.MaxMessages:]
	}
	t.expiresAt = time.Now().Add(s.opts.TTL)

	return nil
}

// ExtendExpiry implements core.HistoryStore. Unknown pairs are a no-op.
func (s *InMemoryStore) ExtendExpiry(_ context.Context, npcID, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.pairs[pairKey(npcID, playerID)]; ok {
		t.expiresAt = time.Now().Add(s.opts.TTL)
	}

	return nil
}

// Clear implements core.HistoryStore.
func (s *InMemoryStore) Clear(_ context.Context, npcID, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pairs, pairKey(npcID, playerID))

	return nil
}
