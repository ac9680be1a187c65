// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package services

import (
	"context"
	"fmt"
)

// ReportScheduler matches the Start/Stop lifecycle of *scheduler.Scheduler.
type ReportScheduler interface {
	Start(ctx context.Context) error
	Stop() error
}

// SchedulerService adapts the report scheduler to suture's Serve pattern:
// Start, wait for cancellation, then Stop. Stop waits for in-flight runs.
type SchedulerService struct {
	scheduler ReportScheduler
	name      string
}

// NewSchedulerService wraps a report scheduler.
//
//	sched := scheduler.New(db, runner, scheduler.ConfigFrom(&cfg.Scheduler))
//	tree.AddBackgroundService(services.NewSchedulerService(sched))
func NewSchedulerService(s ReportScheduler) *SchedulerService {
	return &SchedulerService{
		scheduler: s,
		name:      "report-scheduler",
	}
}

// Serve implements suture.Service. A failed Start is returned so suture
// restarts the service with backoff.
func (s *SchedulerService) Serve(ctx context.Context) error {
	if err := s.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("report scheduler start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.scheduler.Stop(); err != nil {
		return fmt.Errorf("report scheduler stop failed: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for suture's log events.
func (s *SchedulerService) String() string {
	return s.name
}
