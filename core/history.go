package core

import "context"

// Roles a transcript message can carry.
const (
	RoleHuman = "human"
	RoleAI    = "ai"
)

// Message is one entry of the short-term dialogue transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HistoryStore persists the bounded short-term transcript of an NPC/player
// pair. Implementations cap the transcript at a configured maximum, keeping
// the newest messages, and may expire whole transcripts after a TTL.
// Implementations must be safe for concurrent use.
type HistoryStore interface {
	// History returns the pair's transcript oldest-first, at most the
	// store's configured maximum. An expired or unknown pair reads as empty.
	History(ctx context.Context, npcID, playerID string) ([]Message, error)

	// Append adds one message to the pair's transcript, evicting the oldest
	// beyond the cap, and refreshes the pair's expiry.
	Append(ctx context.Context, npcID, playerID, role, content string) error

	// ExtendExpiry refreshes the pair's TTL deadline without writing.
	ExtendExpiry(ctx context.Context, npcID, playerID string) error

	// Clear drops the pair's transcript.
	Clear(ctx context.Context, npcID, playerID string) error
}
