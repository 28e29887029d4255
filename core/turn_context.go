package core

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/npcflow/logging"
)

// MemoryOutput is the retrieval stage's payload: the bounded dialogue
// transcript, the episodic snippets relevant to the utterance and the
// rendered memory narrative (empty when there are no snippets).
type MemoryOutput struct {
	Transcript []Message
	Snippets   []EpisodicHit
	Narrative  string
}

// AffinityOutput is the relationship stage's payload: the numeric score, its
// categorical level and dialogue style, and the rendered relationship
// narrative.
type AffinityOutput struct {
	Score     float64
	Level     string
	Style     string
	Narrative string
}

// DialogueOutput is the generation stage's payload. ComposedInput retains the
// exact prompt text sent to the model for diagnostics.
type DialogueOutput struct {
	Reply         string
	ComposedInput string
}

// ReviewOutput is the revision stage's payload. FinalReply is the reply to
// deliver; Revised reports whether it differs from the generated one. Note
// carries a fault description when the reviewer itself failed and the
// original reply was kept.
type ReviewOutput struct {
	FinalReply string
	Revised    bool
	Verdict    string
	Note       string
}

// PersistOutput is the persistence stage's payload. The stage itself always
// succeeds; faults of the two independent side effects surface here.
type PersistOutput struct {
	AffinityChanged bool
	NewScore        float64
	AffinityErr     string
	MemoryErr       string
}

// TurnContext carries the working state of a single player/NPC exchange.
//
// The input fields (NPCID, PlayerID, Utterance, Role) are set at construction
// and treated as read-only by every stage. Stage outputs are written exactly
// once each via the typed setters and are read-only afterwards; stages never
// write the context directly, they return payloads and the coordinator merges
// them. A context is exclusively owned by one running turn, so the outputs
// need no locking; only LastActive is touched concurrently (by the registry
// sweep) and is guarded.
type TurnContext struct {
	Context   context.Context
	ID        string
	NPCID     string
	PlayerID  string
	Utterance string
	Role      RoleProfile
	CreatedAt time.Time

	Memory   *MemoryOutput
	Affinity *AffinityOutput
	Dialogue *DialogueOutput
	Review   *ReviewOutput

	mu         sync.RWMutex
	lastActive time.Time

	*loggerAdapter
}

// NewTurnContext constructs a TurnContext for one exchange. A nil logger is
// replaced with a no-op one.
func NewTurnContext(ctx context.Context, npcID, playerID, utterance string, role RoleProfile, logger logging.Logger) *TurnContext {
	now := time.Now()
	return &TurnContext{
		Context:       ctx,
		ID:            NewID(),
		NPCID:         npcID,
		PlayerID:      playerID,
		Utterance:     utterance,
		Role:          role,
		CreatedAt:     now,
		lastActive:    now,
		loggerAdapter: newLoggerAdapter(logger),
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (tc *TurnContext) Done() <-chan struct{} { return tc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (tc *TurnContext) Err() error { return tc.Context.Err() }

// SetMemory merges the retrieval stage's output into the context.
func (tc *TurnContext) SetMemory(out *MemoryOutput) { tc.Memory = out }

// SetAffinity merges the relationship stage's output into the context.
func (tc *TurnContext) SetAffinity(out *AffinityOutput) { tc.Affinity = out }

// SetDialogue merges the generation stage's output into the context.
func (tc *TurnContext) SetDialogue(out *DialogueOutput) { tc.Dialogue = out }

// SetReview merges the revision stage's output into the context.
func (tc *TurnContext) SetReview(out *ReviewOutput) { tc.Review = out }

// FinalReply returns the reply to deliver: the review override when a review
// ran, else the generated reply, else the empty string.
func (tc *TurnContext) FinalReply() string {
	if tc.Review != nil {
		return tc.Review.FinalReply
	}
	if tc.Dialogue != nil {
		return tc.Dialogue.Reply
	}
	return ""
}

// Touch records activity, deferring the registry's idle expiry.
func (tc *TurnContext) Touch() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.lastActive = time.Now()
}

// LastActive returns the time of the most recent Touch (or construction).
func (tc *TurnContext) LastActive() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.lastActive
}
