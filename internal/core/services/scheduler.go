package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driving"
)

var _ driving.Scheduler = (*scheduler)(nil)

// SchedulerConfig holds the dependencies and timing for the Scheduler.
type SchedulerConfig struct {
	Orchestrator driving.Orchestrator
	Enrichment   driving.EnrichmentService
	SettingsStore driven.SettingsStore

	// MatterIDs is the fixed set of matters whose enrichment sweep this
	// scheduler drives. Ingestion itself is matter-agnostic (connectors
	// are global); enrichment sweeps are scoped per matter.
	MatterIDs []string

	// Lock coordinates a single active poller across multiple instances.
	// Optional; when nil the scheduler assumes it is the only instance.
	Lock driven.DistributedLock

	// PollInterval governs how often Orchestrator.Run is invoked.
	PollInterval time.Duration

	// LockTTL bounds how long the distributed lock is held per poll cycle.
	LockTTL time.Duration

	Logger *slog.Logger
}

// scheduler runs the Pipeline Orchestrator on a fixed interval and sweeps
// enrichment for each configured matter on its own per-matter interval
// (domain.Settings.EnrichmentSweepIntervalMinutes), in the same
// ticker/stopCh/doneCh shape the teacher uses for its own poll loop.
type scheduler struct {
	orchestrator  driving.Orchestrator
	enrichment    driving.EnrichmentService
	settingsStore driven.SettingsStore
	matterIDs     []string
	lock          driven.DistributedLock
	pollInterval  time.Duration
	lockTTL       time.Duration
	logger        *slog.Logger

	mu           sync.Mutex
	running      bool
	stopCh       chan struct{}
	doneCh       chan struct{}
	lastSweep    map[string]time.Time
}

// NewScheduler creates a Scheduler over the given Orchestrator and
// EnrichmentService.
func NewScheduler(cfg SchedulerConfig) driving.Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pollInterval := cfg.PollInterval
	if pollInterval == 0 {
		pollInterval = 5 * time.Minute
	}
	lockTTL := cfg.LockTTL
	if lockTTL == 0 {
		lockTTL = 2 * pollInterval
	}

	return &scheduler{
		orchestrator:  cfg.Orchestrator,
		enrichment:    cfg.Enrichment,
		settingsStore: cfg.SettingsStore,
		matterIDs:     cfg.MatterIDs,
		lock:          cfg.Lock,
		pollInterval:  pollInterval,
		lockTTL:       lockTTL,
		logger:        logger.With("component", "scheduler"),
		lastSweep:     make(map[string]time.Time),
	}
}

// Start begins the poll loop. It returns once the loop is running;
// Stop or context cancellation ends it.
func (s *scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info("scheduler starting", "poll_interval", s.pollInterval)
	go s.run(ctx)
	return nil
}

// Stop gracefully ends the poll loop and waits for the in-flight cycle
// to finish.
func (s *scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	close(s.stopCh)
	s.mu.Unlock()

	select {
	case <-s.doneCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("scheduler stopped")
	return nil
}

func (s *scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *scheduler) tick(ctx context.Context) {
	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx, "scheduler", s.lockTTL)
		if err != nil {
			s.logger.Warn("failed to acquire scheduler lock", "error", err)
			return
		}
		if !acquired {
			s.logger.Debug("scheduler lock held by another instance, skipping cycle")
			return
		}
		defer func() {
			if err := s.lock.Release(ctx, "scheduler"); err != nil {
				s.logger.Warn("failed to release scheduler lock", "error", err)
			}
		}()
	}

	if s.orchestrator != nil {
		results, err := s.orchestrator.Run(ctx)
		if err != nil {
			s.logger.Error("orchestrator run failed", "error", err)
		}
		for _, r := range results {
			if !r.Success {
				s.logger.Warn("connector run failed", "connector", r.ConnectorName, "error", r.Error)
			}
		}
	}

	s.sweepEnrichment(ctx)
}

func (s *scheduler) sweepEnrichment(ctx context.Context) {
	if s.enrichment == nil || s.settingsStore == nil {
		return
	}

	for _, matterID := range s.matterIDs {
		settings, err := s.settingsStore.GetSettings(ctx, matterID)
		if err != nil {
			s.logger.Warn("failed to load matter settings for enrichment sweep", "matter_id", matterID, "error", err)
			continue
		}
		if !settings.EnrichmentSweepEnabled {
			continue
		}

		interval := time.Duration(settings.EnrichmentSweepIntervalMinutes) * time.Minute
		if interval <= 0 {
			interval = 10 * time.Minute
		}

		s.mu.Lock()
		due := time.Since(s.lastSweep[matterID]) >= interval
		s.mu.Unlock()
		if !due {
			continue
		}

		if _, err := s.enrichment.RunSweep(ctx, matterID); err != nil {
			if err != domain.ErrNotFound {
				s.logger.Error("enrichment sweep failed", "matter_id", matterID, "error", err)
			}
			continue
		}

		s.mu.Lock()
		s.lastSweep[matterID] = time.Now()
		s.mu.Unlock()
	}
}
