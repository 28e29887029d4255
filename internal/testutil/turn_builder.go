package testutil

import (
	"context"

	"github.com/hupe1980/npcflow/core"
	"github.com/hupe1980/npcflow/logging"
)

// TurnBuilder provides a fluent helper for constructing turn contexts in
// tests. Example:
//
//	tc := NewTurnBuilder().NPC("李四").Utterance("在忙吗?").Build()
//
// Chain only the parts you need; sensible defaults are applied.
type TurnBuilder struct {
	ctx       context.Context
	npcID     string
	playerID  string
	utterance string
	role      *core.RoleProfile
	logger    logging.Logger

	memory   *core.MemoryOutput
	affinity *core.AffinityOutput
	dialogue *core.DialogueOutput
	review   *core.ReviewOutput
}

// NewTurnBuilder creates a builder with a small default exchange.
func NewTurnBuilder() *TurnBuilder {
	return &TurnBuilder{
		ctx:       context.Background(),
		npcID:     "张三",
		playerID:  "player-1",
		utterance: "你好",
		logger:    logging.NoOpLogger{},
	}
}

// Context sets the parent context (chainable).
func (b *TurnBuilder) Context(ctx context.Context) *TurnBuilder { b.ctx = ctx; return b }

// NPC sets the NPC id (chainable).
func (b *TurnBuilder) NPC(id string) *TurnBuilder { b.npcID = id; return b }

// Player sets the player id (chainable).
func (b *TurnBuilder) Player(id string) *TurnBuilder { b.playerID = id; return b }

// Utterance sets the player's message (chainable).
func (b *TurnBuilder) Utterance(text string) *TurnBuilder { b.utterance = text; return b }

// Role overrides the default persona (chainable).
func (b *TurnBuilder) Role(role core.RoleProfile) *TurnBuilder { b.role = &role; return b }

// Logger overrides the NoOp logger (chainable).
func (b *TurnBuilder) Logger(l logging.Logger) *TurnBuilder { b.logger = l; return b }

// Memory pre-populates the retrieval output (chainable).
func (b *TurnBuilder) Memory(out *core.MemoryOutput) *TurnBuilder { b.memory = out; return b }

// Affinity pre-populates the relationship output (chainable).
func (b *TurnBuilder) Affinity(out *core.AffinityOutput) *TurnBuilder { b.affinity = out; return b }

// Dialogue pre-populates the generation output (chainable).
func (b *TurnBuilder) Dialogue(out *core.DialogueOutput) *TurnBuilder { b.dialogue = out; return b }

// Review pre-populates the revision output (chainable).
func (b *TurnBuilder) Review(out *core.ReviewOutput) *TurnBuilder { b.review = out; return b }

// Build constructs the turn context without registering it anywhere.
func (b *TurnBuilder) Build() *core.TurnContext {
	role := DefaultRole(b.npcID)
	if b.role != nil {
		role = *b.role
	}

	tc := core.NewTurnContext(b.ctx, b.npcID, b.playerID, b.utterance, role, b.logger)

	if b.memory != nil {
		tc.SetMemory(b.memory)
	}

	if b.affinity != nil {
		tc.SetAffinity(b.affinity)
	}

	if b.dialogue != nil {
		tc.SetDialogue(b.dialogue)
	}

	if b.review != nil {
		tc.SetReview(b.review)
	}

	return tc
}

// DefaultRole returns a compact engineer persona for tests, keyed by name.
func DefaultRole(name string) core.RoleProfile {
	return core.RoleProfile{
		Name:        name,
		Title:       "Python工程师",
		Location:    "工位区",
		Activity:    "写代码",
		Personality: "技术宅,喜欢讨论算法和框架",
		Expertise:   "多智能体系统、Python开发",
		Style:       "简洁专业",
		Hobbies:     "看技术博客",
	}
}
