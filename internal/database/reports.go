// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

/*
reports.go - Saved report and report run persistence

The analytics request is stored verbatim as JSON text in request_json and
decoded with analytics.ParseRequest on read, so a stored report compiles to
the same SQL as the request that created it.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/kontrakpro/internal/analytics"
	"github.com/tomtom215/kontrakpro/internal/models"
)

const reportColumns = `
	id, name, description, request_json, format,
	cron_expression, timezone, schedule_enabled, recipients,
	created_by, organization_id, last_run_at, last_run_status, next_run_at,
	run_count, success_count, failure_count, created_at, updated_at`

// ReportFilter narrows ListReports. Empty fields match everything.
type ReportFilter struct {
	CreatedBy      string
	OrganizationID string
	Scheduled      *bool
}

// CreateReport inserts a saved report. ID and timestamps are filled in.
func (db *DB) CreateReport(ctx context.Context, report *models.Report) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	if report.Format == "" {
		report.Format = models.FormatCSV
	}

	requestJSON, err := marshalJSONField(report.Request, "request")
	if err != nil {
		return err
	}
	var recipientsJSON []byte
	if len(report.Recipients) > 0 {
		if recipientsJSON, err = marshalJSONField(report.Recipients, "recipients"); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	report.CreatedAt = now
	report.UpdatedAt = now

	query := `
		INSERT INTO reports (
			id, name, description, request_json, format,
			cron_expression, timezone, schedule_enabled, recipients,
			created_by, organization_id, next_run_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = db.conn.ExecContext(ctx, query,
		report.ID,
		report.Name,
		nullableString(report.Description),
		string(requestJSON),
		string(report.Format),
		nullableString(report.Schedule.CronExpression),
		nullableString(report.Schedule.Timezone),
		report.Schedule.Enabled,
		nullableJSON(recipientsJSON),
		report.CreatedBy,
		nullableString(report.OrganizationID),
		nullableTime(report.NextRunAt),
		report.CreatedAt,
		report.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	return nil
}

// GetReport retrieves a report by ID. Returns ErrNotFound when absent.
func (db *DB) GetReport(ctx context.Context, id string) (*models.Report, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, "SELECT "+reportColumns+" FROM reports WHERE id = ?", id)
	report, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report %s: %w", id, ErrNotFound)
	}
	return report, err
}

// ListReports returns a page of reports, newest first, and the total count.
func (db *DB) ListReports(ctx context.Context, filter ReportFilter, limit, offset int) (_ []models.Report, _ int, err error) {
	defer observeQuery("list", "reports", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	where, args := newFilterBuilder().
		addFilter("created_by", filter.CreatedBy).
		addFilter("organization_id", filter.OrganizationID).
		addBoolFilter("schedule_enabled", filter.Scheduled).
		buildWhere()

	var totalCount int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM reports"+where, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count reports: %w", err)
	}

	query := "SELECT " + reportColumns + " FROM reports" + where + " ORDER BY created_at DESC, id LIMIT ? OFFSET ?"
	rows, err := db.conn.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	reports := []models.Report{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		reports = append(reports, *report)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return reports, totalCount, nil
}

// GetReportsDueForRun returns enabled reports whose next_run_at has passed.
func (db *DB) GetReportsDueForRun(ctx context.Context, now time.Time) (_ []models.Report, err error) {
	defer observeQuery("due", "reports", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := "SELECT " + reportColumns + ` FROM reports
		WHERE schedule_enabled = TRUE
			AND next_run_at IS NOT NULL
			AND next_run_at <= ?
		ORDER BY next_run_at ASC`

	rows, err := db.conn.QueryContext(ctx, query, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query due reports: %w", err)
	}
	defer rows.Close()

	reports := []models.Report{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	return reports, rows.Err()
}

// UpdateReport applies a partial update. Only non-nil fields change.
func (db *DB) UpdateReport(ctx context.Context, id string, req *models.UpdateReportRequest) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	ub := newUpdateBuilder()
	ub.setString("name", req.Name).
		setString("description", req.Description)
	if req.Format != nil {
		ub.setValue("format", string(*req.Format))
	}
	if req.Schedule != nil {
		ub.setValue("cron_expression", nullableString(req.Schedule.CronExpression)).
			setValue("timezone", nullableString(req.Schedule.Timezone)).
			setValue("schedule_enabled", req.Schedule.Enabled)
	}
	if req.Request != nil {
		if err := ub.setJSON("request_json", req.Request, "request"); err != nil {
			return err
		}
	}
	if err := ub.setJSON("recipients", req.Recipients, "recipients"); err != nil {
		return err
	}

	if ub.isEmpty() {
		return nil
	}
	ub.setTimestamp("updated_at", time.Now())

	setClause, args := ub.build(id)
	result, err := db.conn.ExecContext(ctx, fmt.Sprintf("UPDATE reports SET %s WHERE id = ?", setClause), args...)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}
	return checkAffected(result, "report", id)
}

// SetReportNextRun stores the next scheduled run time; nil clears it.
func (db *DB) SetReportNextRun(ctx context.Context, id string, nextRunAt *time.Time) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE reports SET next_run_at = ? WHERE id = ?`, nullableTime(nextRunAt), id)
	if err != nil {
		return fmt.Errorf("failed to set report next run: %w", err)
	}
	return checkAffected(result, "report", id)
}

// UpdateReportRunStatus records a finished run on the report and advances
// its schedule.
func (db *DB) UpdateReportRunStatus(ctx context.Context, id string, status models.RunStatus, nextRunAt *time.Time) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		UPDATE reports SET
			last_run_at = ?,
			last_run_status = ?,
			next_run_at = ?,
			run_count = run_count + 1,
			success_count = success_count + CASE WHEN ? = 'success' THEN 1 ELSE 0 END,
			failure_count = failure_count + CASE WHEN ? = 'failed' THEN 1 ELSE 0 END,
			updated_at = ?
		WHERE id = ?
	`

	now := time.Now().UTC()
	result, err := db.conn.ExecContext(ctx, query,
		now,
		string(status),
		nullableTime(nextRunAt),
		string(status),
		string(status),
		now,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update report run status: %w", err)
	}
	return checkAffected(result, "report", id)
}

// DeleteReport deletes a report and its run history.
func (db *DB) DeleteReport(ctx context.Context, id string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM report_runs WHERE report_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete report runs: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if err := checkAffected(result, "report", id); err != nil {
		return err
	}
	return tx.Commit()
}

// scanReport scans a report from any row scanner.
func scanReport(scanner rowScanner) (*models.Report, error) {
	var report models.Report
	var description, cronExpr, timezone, recipientsJSON, orgID, lastRunStatus sql.NullString
	var requestJSON, format string
	var lastRunAt, nextRunAt sql.NullTime

	err := scanner.Scan(
		&report.ID,
		&report.Name,
		&description,
		&requestJSON,
		&format,
		&cronExpr,
		&timezone,
		&report.Schedule.Enabled,
		&recipientsJSON,
		&report.CreatedBy,
		&orgID,
		&lastRunAt,
		&lastRunStatus,
		&nextRunAt,
		&report.RunCount,
		&report.SuccessCount,
		&report.FailureCount,
		&report.CreatedAt,
		&report.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan report: %w", err)
	}

	report.Description = description.String
	report.Format = models.ReportFormat(format)
	report.Schedule.CronExpression = cronExpr.String
	report.Schedule.Timezone = timezone.String
	report.OrganizationID = orgID.String
	report.LastRunStatus = models.RunStatus(lastRunStatus.String)
	report.LastRunAt = timePtr(lastRunAt)
	report.NextRunAt = timePtr(nextRunAt)

	req, err := analytics.ParseRequest([]byte(requestJSON))
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", report.ID, err)
	}
	report.Request = req

	if err := parseJSONFieldInto(recipientsJSON, &report.Recipients, "recipients"); err != nil {
		return nil, err
	}

	return &report, nil
}

// ============================================================================
// Report Runs
// ============================================================================

// CreateReportRun inserts a run in the running state.
func (db *DB) CreateReportRun(ctx context.Context, run *models.ReportRun) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.Status == "" {
		run.Status = models.RunStatusRunning
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO report_runs (id, report_id, run_trigger, status, started_at)
		VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.ReportID, string(run.Trigger), string(run.Status), run.StartedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert report run: %w", err)
	}
	return nil
}

// CompleteReportRun stores the final status, row count, artifact and error.
func (db *DB) CompleteReportRun(ctx context.Context, run *models.ReportRun) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if run.CompletedAt == nil {
		now := time.Now().UTC()
		run.CompletedAt = &now
	}
	run.DurationMS = run.Duration().Milliseconds()

	result, err := db.conn.ExecContext(ctx, `
		UPDATE report_runs SET
			status = ?, row_count = ?, artifact_path = ?, error_message = ?,
			completed_at = ?, duration_ms = ?
		WHERE id = ?`,
		string(run.Status),
		run.RowCount,
		nullableString(run.ArtifactPath),
		nullableString(run.Error),
		run.CompletedAt.UTC(),
		run.DurationMS,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete report run: %w", err)
	}
	return checkAffected(result, "report run", run.ID)
}

// ListReportRuns returns the run history of a report, newest first.
func (db *DB) ListReportRuns(ctx context.Context, reportID string, limit, offset int) ([]models.ReportRun, int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var totalCount int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM report_runs WHERE report_id = ?`, reportID).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count report runs: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, report_id, run_trigger, status, row_count, artifact_path,
			error_message, started_at, completed_at, COALESCE(duration_ms, 0)
		FROM report_runs
		WHERE report_id = ?
		ORDER BY started_at DESC, id
		LIMIT ? OFFSET ?`, reportID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query report runs: %w", err)
	}
	defer rows.Close()

	runs := []models.ReportRun{}
	for rows.Next() {
		var run models.ReportRun
		var trigger, status string
		var artifact, errMsg sql.NullString
		var completedAt sql.NullTime
		if err := rows.Scan(&run.ID, &run.ReportID, &trigger, &status, &run.RowCount,
			&artifact, &errMsg, &run.StartedAt, &completedAt, &run.DurationMS); err != nil {
			return nil, 0, fmt.Errorf("failed to scan report run: %w", err)
		}
		run.Trigger = models.RunTrigger(trigger)
		run.Status = models.RunStatus(status)
		run.ArtifactPath = artifact.String
		run.Error = errMsg.String
		run.CompletedAt = timePtr(completedAt)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return runs, totalCount, nil
}
