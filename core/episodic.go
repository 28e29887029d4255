package core

import "context"

// EpisodicEntry is one long-term memory record to be stored for an NPC.
type EpisodicEntry struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// EpisodicHit is one search result from an EpisodicStore, scored by relevance
// to the query (higher is more relevant).
type EpisodicHit struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// EpisodicStore is the searchable long-term memory of an NPC. Implementations
// must be safe for concurrent use.
type EpisodicStore interface {
	// Search returns up to k entries relevant to query, most relevant first.
	Search(ctx context.Context, npcID, query string, k int) ([]EpisodicHit, error)

	// Add stores entries for the NPC.
	Add(ctx context.Context, npcID string, entries []EpisodicEntry) error

	// All returns up to limit stored entries in insertion order. A limit
	// <= 0 means no limit.
	All(ctx context.Context, npcID string, limit int) ([]EpisodicEntry, error)

	// Clear drops all entries stored for the NPC.
	Clear(ctx context.Context, npcID string) error
}
