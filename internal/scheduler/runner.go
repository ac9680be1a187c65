// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/kontrakpro/internal/analytics"
	"github.com/tomtom215/kontrakpro/internal/export"
	"github.com/tomtom215/kontrakpro/internal/logging"
	"github.com/tomtom215/kontrakpro/internal/metrics"
	"github.com/tomtom215/kontrakpro/internal/models"
)

// Store is the persistence the runner and scheduler need.
// *database.DB satisfies it.
type Store interface {
	GetReportsDueForRun(ctx context.Context, now time.Time) ([]models.Report, error)
	CreateReportRun(ctx context.Context, run *models.ReportRun) error
	CompleteReportRun(ctx context.Context, run *models.ReportRun) error
	UpdateReportRunStatus(ctx context.Context, id string, status models.RunStatus, nextRunAt *time.Time) error
}

// Engine executes a stored analytics request. *engine.Engine satisfies it.
type Engine interface {
	Execute(ctx context.Context, req *analytics.Request) (*analytics.Result, error)
	ClampLimit(req *analytics.Request)
}

// Runner executes one saved report and records the run.
type Runner struct {
	store     Store
	engine    Engine
	outputDir string
	logger    zerolog.Logger
	now       func() time.Time
}

// NewRunner creates a runner. Artifacts are written under outputDir; an
// empty outputDir skips artifact files.
func NewRunner(store Store, eng Engine, outputDir string) *Runner {
	return &Runner{
		store:     store,
		engine:    eng,
		outputDir: outputDir,
		logger:    logging.WithComponent("report-runner"),
		now:       time.Now,
	}
}

// Run executes report, writes its artifact and records a ReportRun.
// Scheduled runs advance next_run_at from the cron expression; manual runs
// leave it as is. The returned run is complete even when err is non-nil.
// The report logger travels in ctx, so engine log lines carry report_id.
func (r *Runner) Run(ctx context.Context, report *models.Report, trigger models.RunTrigger) (*analytics.Result, *models.ReportRun, error) {
	start := r.now().UTC()
	ctx = logging.ContextWithLogger(ctx, r.logger.With().
		Str("report_id", report.ID).
		Str("report_name", report.Name).
		Str("trigger", string(trigger)).
		Logger())
	logger := logging.Ctx(ctx)

	run := &models.ReportRun{
		ReportID:  report.ID,
		Trigger:   trigger,
		Status:    models.RunStatusRunning,
		StartedAt: start,
	}
	if err := r.store.CreateReportRun(ctx, run); err != nil {
		return nil, nil, fmt.Errorf("create report run: %w", err)
	}

	result, runErr := r.execute(ctx, report, run)

	completed := r.now().UTC()
	run.CompletedAt = &completed
	if runErr != nil {
		run.Status = models.RunStatusFailed
		run.Error = runErr.Error()
	} else {
		run.Status = models.RunStatusSuccess
	}

	if err := r.store.CompleteReportRun(ctx, run); err != nil {
		logger.Error().Err(err).Str("run_id", run.ID).Msg("Failed to complete report run")
	}

	nextRunAt := report.NextRunAt
	if trigger == models.TriggerScheduled {
		nextRunAt = r.nextRun(report, completed)
	}
	if err := r.store.UpdateReportRunStatus(ctx, report.ID, run.Status, nextRunAt); err != nil {
		logger.Error().Err(err).Msg("Failed to update report run status")
	}

	duration := completed.Sub(start)
	metrics.RecordReportRun(string(trigger), duration, runErr)

	if runErr != nil {
		logger.Error().Err(runErr).Dur("duration", duration).Msg("Report run failed")
		return nil, run, runErr
	}

	logger.Info().
		Int("rows", run.RowCount).
		Str("artifact", run.ArtifactPath).
		Dur("duration", duration).
		Msg("Report run completed")
	return result, run, nil
}

func (r *Runner) execute(ctx context.Context, report *models.Report, run *models.ReportRun) (*analytics.Result, error) {
	if report.Request == nil {
		return nil, fmt.Errorf("report %s has no stored request", report.ID)
	}
	// Saved limits may predate a lower analytics.max_limit.
	r.engine.ClampLimit(report.Request)
	result, err := r.engine.Execute(ctx, report.Request)
	if err != nil {
		return nil, err
	}
	run.RowCount = result.Metadata.RowCount

	if r.outputDir == "" {
		return result, nil
	}
	path, err := r.writeArtifact(report, run, result)
	if err != nil {
		return nil, err
	}
	run.ArtifactPath = path
	return result, nil
}

// writeArtifact writes <outputDir>/<report id>/<slug>-<timestamp>.<ext>.
func (r *Runner) writeArtifact(report *models.Report, run *models.ReportRun, result *analytics.Result) (path string, err error) {
	format := report.Format
	if format == "" {
		format = models.FormatCSV
	}

	dir := filepath.Join(r.outputDir, report.ID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create artifact directory: %w", err)
	}

	name := fmt.Sprintf("%s-%s.%s", export.Slug(report.Name), run.StartedAt.Format("20060102T150405Z"), format)
	path = filepath.Join(dir, name)

	f, err := os.Create(path) //nolint:gosec // path is built from the configured output directory
	if err != nil {
		return "", fmt.Errorf("create artifact: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close artifact: %w", cerr)
		}
	}()

	if err := export.Write(f, format, result); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return path, nil
}

func (r *Runner) nextRun(report *models.Report, after time.Time) *time.Time {
	if !report.Schedule.Enabled || report.Schedule.CronExpression == "" {
		return nil
	}
	next, err := NextRun(report.Schedule.CronExpression, report.Schedule.Timezone, after)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("report_id", report.ID).
			Str("cron", report.Schedule.CronExpression).
			Msg("Failed to calculate next run time")
		return nil
	}
	return &next
}
