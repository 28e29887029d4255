package npc

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/hupe1980/npcflow/agent"
	"github.com/hupe1980/npcflow/core"
	"github.com/hupe1980/npcflow/history"
	"github.com/hupe1980/npcflow/logging"
	"github.com/hupe1980/npcflow/memory"
	"github.com/hupe1980/npcflow/model"
	"github.com/hupe1980/npcflow/relationship"
)

// ErrUnknownNPC reports an operation against an NPC name that was never
// registered with the manager.
var ErrUnknownNPC = errors.New("unknown npc")

// DefaultMaxConcurrentTurns limits how many turns a Manager executes at once.
const DefaultMaxConcurrentTurns = 10

// AffinityStatus is a read-only snapshot of one NPC/player relationship.
type AffinityStatus struct {
	Score float64 `json:"score"`
	Level string  `json:"level"`
	Style string  `json:"style"`
}

// ManagerOptions holds dependency + configuration overrides passed to
// NewManager. Setting a store to nil disables the concern: the pipeline
// degrades to its documented defaults instead of failing.
type ManagerOptions struct {
	// History persists the bounded short-term transcripts.
	History core.HistoryStore
	// Episodic persists the searchable long-term memory.
	Episodic core.EpisodicStore
	// Relationship tracks affinity scores.
	Relationship core.RelationshipManager
	// ReviewModel reviews generated replies when reflection is enabled.
	// Defaults to the chat model.
	ReviewModel model.Model
	// Supervisor tunes the turn coordinator.
	Supervisor agent.SupervisorConfig
	// MemoryTopK caps episodic retrieval per turn.
	MemoryTopK int
	// MaxConcurrentTurns bounds parallel turn execution.
	MaxConcurrentTurns int
	// Logger receives pipeline logs.
	Logger logging.Logger
}

// Manager is the composition root of the dialogue pipeline: it owns the role
// table, the stage agents, the turn registry and the stores, and executes
// turns through the Supervisor under a concurrency limit. Public methods are
// safe for concurrent use.
type Manager struct {
	chatModel model.Model

	supervisor   *agent.Supervisor
	registry     *core.TurnRegistry
	sem          *semaphore.Weighted
	history      core.HistoryStore
	episodic     core.EpisodicStore
	relationship core.RelationshipManager
	logger       logging.Logger

	mu    sync.RWMutex
	roles map[string]core.RoleProfile
}

// NewManager constructs a Manager around the given chat model with optional
// overrides.
func NewManager(chatModel model.Model, optFns ...func(o *ManagerOptions)) *Manager {
	opts := ManagerOptions{
		History:            history.NewInMemoryStore(),
		Episodic:           memory.NewInMemoryStore(),
		Relationship:       relationship.NewInMemoryManager(),
		Supervisor:         agent.DefaultSupervisorConfig(),
		MemoryTopK:         agent.DefaultMemoryTopK,
		MaxConcurrentTurns: DefaultMaxConcurrentTurns,
		Logger:             logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxConcurrentTurns < 1 {
		opts.MaxConcurrentTurns = 1
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	stages := agent.Stages{
		Memory: agent.NewMemoryAgent(opts.History, opts.Episodic, func(o *agent.MemoryAgentOptions) {
			o.TopK = opts.MemoryTopK
		}),
		Affinity: agent.NewAffinityAgent(opts.Relationship),
		Dialogue: agent.NewDialogueAgent(chatModel),
		Persist:  agent.NewPersistAgent(opts.History, opts.Episodic, opts.Relationship),
	}

	// The reflection stage is only wired when enabled; the zero stage keeps
	// the revision pass off regardless of the flag.
	if opts.Supervisor.EnableReflection {
		reviewModel := opts.ReviewModel
		if reviewModel == nil {
			reviewModel = chatModel
		}

		stages.Reflection = agent.NewReflectionAgent(reviewModel)
	}

	supervisor := agent.NewSupervisor(stages, func(c *agent.SupervisorConfig) {
		*c = opts.Supervisor
	})

	return &Manager{
		chatModel:    chatModel,
		supervisor:   supervisor,
		registry:     core.NewTurnRegistry(),
		sem:          semaphore.NewWeighted(int64(opts.MaxConcurrentTurns)),
		history:      opts.History,
		episodic:     opts.Episodic,
		relationship: opts.Relationship,
		logger:       opts.Logger,
		roles:        make(map[string]core.RoleProfile),
	}
}

// RegisterRole adds or replaces an NPC persona.
func (m *Manager) RegisterRole(role core.RoleProfile) error {
	if role.Name == "" {
		return errors.New("role name must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[role.Name] = role

	return nil
}

// Role returns the registered persona for name.
func (m *Manager) Role(name string) (core.RoleProfile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	role, ok := m.roles[name]

	return role, ok
}

// Roles returns all registered personas sorted by name.
func (m *Manager) Roles() []core.RoleProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()

	roles := make([]core.RoleProfile, 0, len(m.roles))
	for _, role := range m.roles {
		roles = append(roles, role)
	}

	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })

	return roles
}

// Chat runs one full dialogue turn between an NPC and a player and returns
// the turn outcome. It blocks while the concurrency limit is saturated; a
// canceled ctx aborts the wait. A failed turn surfaces as an error carrying
// the coordinator's failure message.
func (m *Manager) Chat(ctx context.Context, npcID, playerID, utterance string) (*core.TurnResult, error) {
	role, ok := m.Role(npcID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNPC, npcID)
	}

	if err := m.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire turn slot: %w", err)
	}
	defer m.sem.Release(1)

	tc := m.registry.Create(ctx, npcID, playerID, utterance, role, m.logger)

	res := m.supervisor.Execute(tc)
	if !res.Success {
		return nil, errors.New(res.Error)
	}

	turn, ok := res.Payload.(*core.TurnResult)
	if !ok {
		return nil, fmt.Errorf("unexpected turn payload %T", res.Payload)
	}

	return turn, nil
}

// Memories returns up to limit episodic entries stored for the NPC in
// insertion order. A limit <= 0 returns everything.
func (m *Manager) Memories(ctx context.Context, npcID string, limit int) ([]core.EpisodicEntry, error) {
	if _, ok := m.Role(npcID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNPC, npcID)
	}

	if m.episodic == nil {
		return nil, nil
	}

	return m.episodic.All(ctx, npcID, limit)
}

// ClearMemories drops the pair's transcript and the NPC's episodic memory.
func (m *Manager) ClearMemories(ctx context.Context, npcID, playerID string) error {
	if _, ok := m.Role(npcID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNPC, npcID)
	}

	if m.history != nil {
		if err := m.history.Clear(ctx, npcID, playerID); err != nil {
			return fmt.Errorf("clear transcript: %w", err)
		}
	}

	if m.episodic != nil {
		if err := m.episodic.Clear(ctx, npcID); err != nil {
			return fmt.Errorf("clear episodic memory: %w", err)
		}
	}

	return nil
}

// Affinity reports the pair's current relationship snapshot. Without a
// relationship manager it reports the neutral baseline.
func (m *Manager) Affinity(ctx context.Context, npcID, playerID string) (AffinityStatus, error) {
	if _, ok := m.Role(npcID); !ok {
		return AffinityStatus{}, fmt.Errorf("%w: %s", ErrUnknownNPC, npcID)
	}

	if m.relationship == nil {
		return AffinityStatus{Score: core.NeutralScore, Level: core.NeutralLevel, Style: core.NeutralStyle}, nil
	}

	score, err := m.relationship.Score(ctx, npcID, playerID)
	if err != nil {
		return AffinityStatus{}, fmt.Errorf("read affinity score: %w", err)
	}

	return AffinityStatus{
		Score: score,
		Level: m.relationship.Level(score),
		Style: m.relationship.Style(score),
	}, nil
}

// SetAffinity overwrites the pair's affinity score, clamped to [0,100].
func (m *Manager) SetAffinity(ctx context.Context, npcID, playerID string, score float64) error {
	if _, ok := m.Role(npcID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNPC, npcID)
	}

	if m.relationship == nil {
		return errors.New("no relationship manager configured")
	}

	return m.relationship.SetScore(ctx, npcID, playerID, score)
}

// Registry exposes the turn registry, mainly for scheduler sweeps and
// instrumentation.
func (m *Manager) Registry() *core.TurnRegistry {
	return m.registry
}
