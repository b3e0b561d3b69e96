// Package scheduler drives the periodic import cycle. Snapshots land on a
// cadence measured in days, so the scheduler simply kicks the orchestrator
// at a fixed interval and lets the commit short-circuit skip models whose
// repos have not moved.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/magnolia/pkg/orchestrator"
	"github.com/Ramsey-B/magnolia/pkg/tracing"
)

var (
	// ErrSchedulerStopped is returned when the scheduler is stopped
	ErrSchedulerStopped = errors.New("scheduler stopped")

	// ErrSchedulerAlreadyRunning is returned when trying to start an already running scheduler
	ErrSchedulerAlreadyRunning = errors.New("scheduler already running")
)

// DefaultInterval is the default time between import cycles
const DefaultInterval = 24 * time.Hour

// ImportRunner runs one full import batch
type ImportRunner interface {
	Run(ctx context.Context) (*orchestrator.RunReport, error)
}

// Config holds configuration for the scheduler
type Config struct {
	// Interval is how often to run an import cycle
	Interval time.Duration

	// RunOnStart runs a cycle immediately instead of waiting for the first tick
	RunOnStart bool
}

// Scheduler triggers import cycles on a fixed interval
type Scheduler struct {
	runner ImportRunner
	config Config
	logger ectologger.Logger

	// Coordination
	stopCh   chan struct{}
	stoppedC chan struct{}
	running  bool
	mu       sync.RWMutex
}

// NewScheduler creates a new scheduler
func NewScheduler(runner ImportRunner, config Config, logger ectologger.Logger) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}

	return &Scheduler{
		runner:   runner,
		config:   config,
		logger:   logger,
		stopCh:   make(chan struct{}),
		stoppedC: make(chan struct{}),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrSchedulerAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()

	ctx, span := tracing.StartSpan(ctx, "Scheduler.Start")
	defer span.End()

	s.logger.WithContext(ctx).Infof("Starting import scheduler: interval=%s", s.config.Interval)

	go s.loop(ctx)

	s.logger.WithContext(ctx).Info("Scheduler started")
	return nil
}

// Stop stops the scheduler gracefully
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.WithContext(ctx).Info("Stopping scheduler...")

	close(s.stopCh)

	// Wait for graceful shutdown with timeout
	select {
	case <-s.stoppedC:
		s.logger.WithContext(ctx).Info("Scheduler stopped gracefully")
	case <-ctx.Done():
		s.logger.WithContext(ctx).Warn("Scheduler shutdown timed out")
		return ctx.Err()
	}

	return nil
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.stoppedC)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if s.config.RunOnStart {
		s.runCycle(ctx)
	}

	for {
		select {
		case <-s.stopCh:
			s.logger.WithContext(ctx).Debug("Scheduler loop stopping")
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// runCycle runs a single import cycle
func (s *Scheduler) runCycle(ctx context.Context) {
	ctx, span := tracing.StartSpan(ctx, "Scheduler.runCycle")
	defer span.End()

	start := time.Now()
	s.logger.WithContext(ctx).Info("Starting scheduled import cycle")

	report, err := s.runner.Run(ctx)
	if err != nil {
		if errors.Is(err, orchestrator.ErrImportAlreadyRunning) {
			s.logger.WithContext(ctx).Info("Import already running, skipping cycle")
			return
		}
		s.logger.WithContext(ctx).WithError(err).Error("Scheduled import cycle failed")
		return
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"changed":       report.Changed(),
		"failed_models": report.FailedModels(),
		"duration":      time.Since(start).String(),
	}).Info("Scheduled import cycle finished")
}
