package core

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/hupe1980/npcflow/logging"
)

// TurnKey derives the registry key for a turn context from its identifying
// fields. Keys are unique per exchange because creation time is part of them.
func TurnKey(npcID, playerID string, createdAt time.Time) string {
	return npcID + ":" + playerID + ":" + strconv.FormatInt(createdAt.UnixNano(), 10)
}

// TurnRegistry tracks live TurnContexts keyed by NPC, player and creation
// time. The registry exclusively owns its entries; stages only borrow a
// context for the duration of one turn. Removal of finished turns is driven
// externally via Cleanup (typically by a scheduler sweep). Safe for
// concurrent use.
type TurnRegistry struct {
	mu    sync.RWMutex
	turns map[string]*TurnContext
}

// NewTurnRegistry creates an empty TurnRegistry.
func NewTurnRegistry() *TurnRegistry {
	return &TurnRegistry{turns: map[string]*TurnContext{}}
}

// Create constructs a TurnContext for the exchange and registers it.
func (r *TurnRegistry) Create(ctx context.Context, npcID, playerID, utterance string, role RoleProfile, logger logging.Logger) *TurnContext {
	tc := NewTurnContext(ctx, npcID, playerID, utterance, role, logger)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns[TurnKey(tc.NPCID, tc.PlayerID, tc.CreatedAt)] = tc

	return tc
}

// Get returns the registered context for key, if any.
func (r *TurnRegistry) Get(key string) (*TurnContext, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tc, ok := r.turns[key]
	return tc, ok
}

// Remove drops the context registered under key.
func (r *TurnRegistry) Remove(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.turns, key)
}

// Cleanup drops every context idle for longer than maxIdle and returns how
// many were removed.
func (r *TurnRegistry) Cleanup(maxIdle time.Duration) int {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, tc := range r.turns {
		if now.Sub(tc.LastActive()) > maxIdle {
			delete(r.turns, key)
			removed++
		}
	}

	return removed
}

// Len returns the number of registered contexts.
func (r *TurnRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.turns)
}
