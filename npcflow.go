// Package npcflow provides a high-level façade over the dialogue pipeline
// and its services (stores, relationship tracking, ambient generation &
// logging) enabling rapid construction of conversational NPC casts. Most
// applications interact with this package by:
//  1. Creating a Town via New() around a chat model (optionally overriding
//     the default in-memory services) or via FromConfig()
//  2. Registering NPC personas (the built-in office cast is preloaded)
//  3. Running player exchanges with Chat() and, for living-world setups,
//     starting the background scheduler with Start()
//
// The façade delegates turn execution to npc.Manager while keeping setup and
// usage ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply durable store
// implementations and a structured logger.
package npcflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/npcflow/agent"
	"github.com/hupe1980/npcflow/config"
	"github.com/hupe1980/npcflow/core"
	"github.com/hupe1980/npcflow/embedding"
	"github.com/hupe1980/npcflow/history"
	historysqlite "github.com/hupe1980/npcflow/history/sqlite"
	"github.com/hupe1980/npcflow/logging"
	"github.com/hupe1980/npcflow/memory"
	memorysqlite "github.com/hupe1980/npcflow/memory/sqlite"
	"github.com/hupe1980/npcflow/model"
	"github.com/hupe1980/npcflow/model/anthropic"
	"github.com/hupe1980/npcflow/model/openai"
	"github.com/hupe1980/npcflow/npc"
)

// Options configures the Town instance.
type Options struct {
	// Roles is the initial cast. Defaults to the built-in office personas;
	// more can be registered later via Manager().RegisterRole.
	Roles []core.RoleProfile

	// Stores (default to in-memory implementations if not provided).
	History      core.HistoryStore
	Episodic     core.EpisodicStore
	Relationship core.RelationshipManager

	// ReviewModel reviews generated replies when reflection is enabled.
	// Defaults to the chat model.
	ReviewModel model.Model

	// AmbientModel generates ambient lines. Defaults to the chat model.
	AmbientModel model.Model

	// Supervisor tunes the turn coordinator.
	Supervisor agent.SupervisorConfig

	// MemoryTopK caps episodic retrieval per turn.
	MemoryTopK int

	// MaxConcurrentTurns bounds parallel turn execution.
	MaxConcurrentTurns int

	// AmbientSpec, SweepSpec and MaxIdle tune the background scheduler.
	AmbientSpec string
	SweepSpec   string
	MaxIdle     time.Duration

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// Town is the high-level façade aggregating the NPC manager, the ambient
// generator and the background scheduler.
type Town struct {
	manager   *npc.Manager
	ambient   *npc.AmbientGenerator
	scheduler *npc.Scheduler
	logger    logging.Logger
	closers   []io.Closer
}

// New creates a Town around the given chat model with optional overrides.
// Any unset service is initialized with an in-memory implementation. The
// background scheduler is constructed but not started; call Start to bring
// the cast to life.
func New(chatModel model.Model, optFns ...func(o *Options)) *Town {
	opts := Options{
		Supervisor:         agent.DefaultSupervisorConfig(),
		MemoryTopK:         agent.DefaultMemoryTopK,
		MaxConcurrentTurns: npc.DefaultMaxConcurrentTurns,
		AmbientSpec:        npc.DefaultAmbientSpec,
		SweepSpec:          npc.DefaultSweepSpec,
		MaxIdle:            npc.DefaultMaxIdle,
		Logger:             logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	manager := npc.NewManager(chatModel, func(o *npc.ManagerOptions) {
		if opts.History != nil {
			o.History = opts.History
		}

		if opts.Episodic != nil {
			o.Episodic = opts.Episodic
		}

		if opts.Relationship != nil {
			o.Relationship = opts.Relationship
		}

		o.ReviewModel = opts.ReviewModel
		o.Supervisor = opts.Supervisor
		o.MemoryTopK = opts.MemoryTopK
		o.MaxConcurrentTurns = opts.MaxConcurrentTurns
		o.Logger = opts.Logger
	})

	roles := opts.Roles
	if roles == nil {
		roles = npc.DefaultRoles()
	}

	for _, role := range roles {
		_ = manager.RegisterRole(role)
	}

	ambientModel := opts.AmbientModel
	if ambientModel == nil {
		ambientModel = chatModel
	}

	ambient := npc.NewAmbientGenerator(ambientModel, manager, func(o *npc.AmbientGeneratorOptions) {
		o.Logger = opts.Logger
	})

	scheduler := npc.NewScheduler(ambient, manager.Registry(), func(o *npc.SchedulerOptions) {
		o.AmbientSpec = opts.AmbientSpec
		o.SweepSpec = opts.SweepSpec
		o.MaxIdle = opts.MaxIdle
		o.Logger = opts.Logger
	})

	return &Town{
		manager:   manager,
		ambient:   ambient,
		scheduler: scheduler,
		logger:    opts.Logger,
	}
}

// FromConfig builds a fully wired Town from a validated configuration:
// models per the provider sections, sqlite stores when paths are set,
// embedding-backed vector memory, the configured cast and a structured
// logger. The ctx is used for client construction only.
func FromConfig(ctx context.Context, cfg *config.Config) (*Town, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)

	chatModel, err := buildModel(cfg.Provider)
	if err != nil {
		return nil, err
	}

	var reviewModel model.Model
	if cfg.Review.Enabled && cfg.Review.Provider != nil {
		if reviewModel, err = buildModel(*cfg.Review.Provider); err != nil {
			return nil, fmt.Errorf("review model: %w", err)
		}
	}

	var closers []io.Closer

	fail := func(err error) (*Town, error) {
		closeAll(closers)
		return nil, err
	}

	var historyStore core.HistoryStore

	ttl := time.Duration(cfg.History.TTLSeconds) * time.Second
	if cfg.History.Path != "" {
		store, err := historysqlite.Open(cfg.History.Path, func(o *historysqlite.StoreOptions) {
			o.MaxMessages = cfg.History.MaxMessages
			o.TTL = ttl
		})
		if err != nil {
			return fail(fmt.Errorf("open history store: %w", err))
		}

		closers = append(closers, store)
		historyStore = store
	} else {
		historyStore = history.NewInMemoryStore(func(o *history.InMemoryStoreOptions) {
			o.MaxMessages = cfg.History.MaxMessages
			o.TTL = ttl
		})
	}

	var episodic core.EpisodicStore

	if cfg.Memory.Enabled {
		if cfg.Memory.Path != "" {
			embedder, err := embedding.New(ctx, cfg.Memory.Embedding)
			if err != nil {
				return fail(fmt.Errorf("build embedder: %w", err))
			}

			store, err := memorysqlite.Open(cfg.Memory.Path, embedder)
			if err != nil {
				return fail(fmt.Errorf("open episodic store: %w", err))
			}

			closers = append(closers, store)
			episodic = store
		} else {
			episodic = memory.NewInMemoryStore()
		}
	}

	manager := npc.NewManager(chatModel, func(o *npc.ManagerOptions) {
		o.History = historyStore
		o.Episodic = episodic
		o.ReviewModel = reviewModel
		o.Supervisor = agent.SupervisorConfig{
			EnableReflection:  cfg.Supervisor.EnableReflection && cfg.Review.Enabled,
			ParallelRetrieval: cfg.Supervisor.ParallelRetrieval,
			MaxRetries:        cfg.Supervisor.MaxRetries,
		}
		o.MemoryTopK = cfg.Memory.TopK
		o.Logger = logger
	})

	roles := cfg.NPCs
	if len(roles) == 0 {
		roles = npc.DefaultRoles()
	}

	for _, role := range roles {
		if err := manager.RegisterRole(role); err != nil {
			return fail(fmt.Errorf("register role: %w", err))
		}
	}

	var ambient *npc.AmbientGenerator
	if cfg.Ambient.Enabled {
		ambient = npc.NewAmbientGenerator(chatModel, manager, func(o *npc.AmbientGeneratorOptions) {
			o.Logger = logger
		})
	}

	scheduler := npc.NewScheduler(ambient, manager.Registry(), func(o *npc.SchedulerOptions) {
		if cfg.Ambient.CronSpec != "" {
			o.AmbientSpec = cfg.Ambient.CronSpec
		}

		if cfg.Registry.SweepCron != "" {
			o.SweepSpec = cfg.Registry.SweepCron
		}

		o.MaxIdle = time.Duration(cfg.Registry.MaxIdleSeconds) * time.Second
		o.Logger = logger
	})

	return &Town{
		manager:   manager,
		ambient:   ambient,
		scheduler: scheduler,
		logger:    logger,
		closers:   closers,
	}, nil
}

// Chat runs one dialogue turn between an NPC and a player.
func (t *Town) Chat(ctx context.Context, npcID, playerID, utterance string) (*core.TurnResult, error) {
	return t.manager.Chat(ctx, npcID, playerID, utterance)
}

// Manager exposes the underlying service layer for role and memory
// administration.
func (t *Town) Manager() *npc.Manager { return t.manager }

// Ambient exposes the ambient line generator. It is nil when ambient
// generation was disabled by configuration.
func (t *Town) Ambient() *npc.AmbientGenerator { return t.ambient }

// Start launches the background scheduler (ambient refresh + registry
// sweep). Canceling ctx stops it again.
func (t *Town) Start(ctx context.Context) error {
	if t.scheduler == nil {
		return errors.New("no scheduler configured")
	}

	return t.scheduler.Start(ctx)
}

// Close stops the scheduler and releases any stores the Town opened itself.
// User-provided stores are left untouched.
func (t *Town) Close() error {
	if t.scheduler != nil {
		t.scheduler.Stop()
	}

	return closeAll(t.closers)
}

func buildModel(pc config.ProviderConfig) (model.Model, error) {
	switch pc.Type {
	case "", config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			if pc.Model != "" {
				o.Model = pc.Model
			}

			if pc.APIKey != "" {
				o.APIKey = pc.APIKey
			}

			if pc.BaseURL != "" {
				o.BaseURL = pc.BaseURL
			}

			if pc.Temperature != nil {
				o.Temperature = *pc.Temperature
			}
		}), nil
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			if pc.Model != "" {
				o.Model = anthropicsdk.Model(pc.Model)
			}

			if pc.APIKey != "" {
				o.APIKey = pc.APIKey
			}

			if pc.Temperature != nil {
				o.Temperature = *pc.Temperature
			}
		}), nil
	case config.ProviderMock:
		return model.NewMockModel("mock", "mock"), nil
	default:
		return nil, fmt.Errorf("unknown provider type %q", pc.Type)
	}
}

func closeAll(closers []io.Closer) error {
	var errs []error

	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
