package npc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hupe1980/npcflow/core"
	"github.com/hupe1980/npcflow/logging"
)

// Scheduler defaults. Specs use the cron/v3 syntax with a seconds field;
// "@every" descriptors work as well.
const (
	DefaultAmbientSpec = "@every 30s"
	DefaultSweepSpec   = "@every 60s"
	DefaultMaxIdle     = 5 * time.Minute

	stopDrainTimeout = 5 * time.Second
)

// SchedulerOptions holds overrides passed to NewScheduler.
type SchedulerOptions struct {
	// AmbientSpec is the cron spec for ambient line refreshes.
	AmbientSpec string
	// SweepSpec is the cron spec for turn registry sweeps.
	SweepSpec string
	// MaxIdle is how long a turn context may sit idle before a sweep drops it.
	MaxIdle time.Duration
	// Logger receives job diagnostics.
	Logger logging.Logger
}

// Scheduler drives the background jobs of a running cast: periodic ambient
// refreshes and turn registry sweeps. Either target may be nil, which skips
// the corresponding job. Start/Stop are safe for concurrent use.
type Scheduler struct {
	ambient  *AmbientGenerator
	registry *core.TurnRegistry

	ambientSpec string
	sweepSpec   string
	maxIdle     time.Duration
	logger      logging.Logger

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
	stopCh chan struct{}
}

// NewScheduler constructs a Scheduler over the ambient generator and turn
// registry with optional overrides.
func NewScheduler(ambient *AmbientGenerator, registry *core.TurnRegistry, optFns ...func(o *SchedulerOptions)) *Scheduler {
	opts := SchedulerOptions{
		AmbientSpec: DefaultAmbientSpec,
		SweepSpec:   DefaultSweepSpec,
		MaxIdle:     DefaultMaxIdle,
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Scheduler{
		ambient:     ambient,
		registry:    registry,
		ambientSpec: opts.AmbientSpec,
		sweepSpec:   opts.SweepSpec,
		maxIdle:     opts.MaxIdle,
		logger:      opts.Logger,
	}
}

// Start registers the jobs and begins running them. Canceling ctx stops the
// scheduler as if Stop had been called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return errors.New("scheduler already started")
	}

	runCtx, cancel := context.WithCancel(ctx)

	c := cron.New(cron.WithSeconds())

	if s.ambient != nil {
		if _, err := c.AddFunc(s.ambientSpec, func() { s.ambient.Refresh(runCtx) }); err != nil {
			cancel()
			return fmt.Errorf("register ambient job: %w", err)
		}
	}

	if s.registry != nil {
		if _, err := c.AddFunc(s.sweepSpec, func() {
			if removed := s.registry.Cleanup(s.maxIdle); removed > 0 {
				s.logger.Debug("registry sweep", "removed", removed, "remaining", s.registry.Len())
			}
		}); err != nil {
			cancel()
			return fmt.Errorf("register sweep job: %w", err)
		}
	}

	stopCh := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-stopCh:
		}
	}()

	c.Start()

	s.cron = c
	s.cancel = cancel
	s.stopCh = stopCh

	s.logger.Info("scheduler started", "ambient", s.ambientSpec, "sweep", s.sweepSpec, "max_idle", s.maxIdle)

	return nil
}

// Stop halts the jobs and waits briefly for any in-flight run to finish.
// Stopping an idle or already stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	cancel := s.cancel
	stopCh := s.stopCh
	s.cron = nil
	s.cancel = nil
	s.stopCh = nil
	s.mu.Unlock()

	if c == nil {
		return
	}

	cancel()
	close(stopCh)

	drained := c.Stop()
	select {
	case <-drained.Done():
	case <-time.After(stopDrainTimeout):
		s.logger.Warn("scheduler stop timed out waiting for running jobs")
	}

	s.logger.Info("scheduler stopped")
}
