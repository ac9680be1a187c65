// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/kontrakpro/internal/config"
	"github.com/tomtom215/kontrakpro/internal/logging"
	"github.com/tomtom215/kontrakpro/internal/metrics"
	"github.com/tomtom215/kontrakpro/internal/models"
)

// Config holds scheduler settings.
type Config struct {
	// CheckInterval is how often due reports are polled (default: 1 minute)
	CheckInterval time.Duration

	// MaxConcurrent caps reports executing at once
	MaxConcurrent int

	// ExecutionTimeout bounds a single report run
	ExecutionTimeout time.Duration

	Enabled bool
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() Config {
	return Config{
		CheckInterval:    time.Minute,
		MaxConcurrent:    4,
		ExecutionTimeout: 5 * time.Minute,
		Enabled:          true,
	}
}

// ConfigFrom maps the application scheduler section.
func ConfigFrom(cfg *config.SchedulerConfig) Config {
	return Config{
		CheckInterval:    cfg.CheckInterval,
		MaxConcurrent:    cfg.MaxConcurrent,
		ExecutionTimeout: cfg.ExecutionTimeout,
		Enabled:          cfg.Enabled,
	}
}

// Scheduler polls for due reports and runs them through a Runner.
type Scheduler struct {
	store  Store
	runner *Runner
	logger zerolog.Logger
	config Config
	now    func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a scheduler. Zero config values fall back to DefaultConfig.
func New(store Store, runner *Runner, cfg Config) *Scheduler {
	def := DefaultConfig()
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = def.CheckInterval
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}
	if cfg.ExecutionTimeout <= 0 {
		cfg.ExecutionTimeout = def.ExecutionTimeout
	}

	return &Scheduler{
		store:  store,
		runner: runner,
		logger: logging.WithComponent("report-scheduler"),
		config: cfg,
		now:    time.Now,
	}
}

// Start begins the polling loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	if !s.config.Enabled {
		s.logger.Info().Msg("Report scheduler disabled")
		go func() {
			defer close(s.doneCh)
			<-s.stopCh
		}()
		return nil
	}

	s.logger.Info().
		Dur("check_interval", s.config.CheckInterval).
		Int("max_concurrent", s.config.MaxConcurrent).
		Msg("Starting report scheduler")

	go s.run(ctx)
	return nil
}

// Stop stops the loop and waits for in-flight runs.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	close(s.stopCh)
	<-s.doneCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info().Msg("Report scheduler stopped")
	return nil
}

// IsRunning reports whether Start has been called without Stop.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	s.RunDue(ctx)

	for {
		select {
		case <-ticker.C:
			s.RunDue(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// RunDue runs every report whose next_run_at has passed and returns how
// many were started.
func (s *Scheduler) RunDue(ctx context.Context) int {
	reports, err := s.store.GetReportsDueForRun(ctx, s.now().UTC())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to get due reports")
		return 0
	}
	metrics.SchedulerDueReports.Set(float64(len(reports)))

	if len(reports) == 0 {
		s.logger.Debug().Msg("No reports due")
		return 0
	}

	s.logger.Info().Int("count", len(reports)).Msg("Found reports due for execution")

	sem := make(chan struct{}, s.config.MaxConcurrent)
	var wg sync.WaitGroup

	for i := range reports {
		wg.Add(1)
		sem <- struct{}{}

		go func(report *models.Report) {
			defer wg.Done()
			defer func() { <-sem }()

			runCtx, cancel := context.WithTimeout(ctx, s.config.ExecutionTimeout)
			defer cancel()
			runCtx = logging.ContextWithNewCorrelationID(runCtx)

			// Runner logs and records failures.
			_, _, _ = s.runner.Run(runCtx, report, models.TriggerScheduled)
		}(&reports[i])
	}

	wg.Wait()
	metrics.SchedulerDueReports.Set(0)
	return len(reports)
}
