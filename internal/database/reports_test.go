// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/kontrakpro/internal/analytics"
	"github.com/tomtom215/kontrakpro/internal/models"
)

func sampleRequest() *analytics.Request {
	limit := 100
	return &analytics.Request{
		Metrics: []analytics.Metric{
			{Type: analytics.MetricCount, Field: "contracts.id"},
			{Type: analytics.MetricSum, Field: "contracts.value"},
		},
		Dimensions: []analytics.Dimension{
			{Type: analytics.DimensionContractStatus, Field: "contracts.status"},
		},
		Filters: []analytics.Filter{
			{Field: "contracts.contract_type", Operator: analytics.OpIn, Value: []interface{}{"nda", "msa"}},
		},
		TimePeriod: analytics.PeriodYear,
		Limit:      &limit,
	}
}

func createTestReport(t *testing.T, db *DB, name, owner string) *models.Report {
	t.Helper()
	report := &models.Report{
		Name:       name,
		Request:    sampleRequest(),
		Format:     models.FormatCSV,
		Recipients: []string{"ops@example.com"},
		CreatedBy:  owner,
	}
	if err := db.CreateReport(context.Background(), report); err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	return report
}

func TestCreateAndGetReport(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	report := createTestReport(t, db, "Signed by status", "user-1")
	if report.ID == "" {
		t.Fatal("Expected generated ID")
	}

	got, err := db.GetReport(ctx, report.ID)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if got.Name != "Signed by status" {
		t.Errorf("Expected name 'Signed by status', got %q", got.Name)
	}
	if got.Format != models.FormatCSV {
		t.Errorf("Expected format csv, got %s", got.Format)
	}
	if len(got.Recipients) != 1 || got.Recipients[0] != "ops@example.com" {
		t.Errorf("Expected recipients [ops@example.com], got %v", got.Recipients)
	}
	if got.NextRunAt != nil {
		t.Errorf("Expected no next run, got %v", got.NextRunAt)
	}

	// The stored request compiles to the same SQL as the original.
	compiler := analytics.NewCompiler(analytics.WithClock(func() time.Time {
		return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	}))
	want, err := compiler.Compile(report.Request)
	if err != nil {
		t.Fatalf("compile original: %v", err)
	}
	gotQuery, err := compiler.Compile(got.Request)
	if err != nil {
		t.Fatalf("compile stored: %v", err)
	}
	if gotQuery.SQL != want.SQL {
		t.Errorf("Expected SQL %q, got %q", want.SQL, gotQuery.SQL)
	}
	if len(gotQuery.Params) != len(want.Params) {
		t.Errorf("Expected %d params, got %d", len(want.Params), len(gotQuery.Params))
	}
}

func TestGetReport_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetReport(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestListReports(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	createTestReport(t, db, "A", "user-1")
	createTestReport(t, db, "B", "user-1")
	createTestReport(t, db, "C", "user-2")

	all, total, err := db.ListReports(ctx, ReportFilter{}, 10, 0)
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Errorf("Expected 3 reports, got total=%d len=%d", total, len(all))
	}

	mine, total, err := db.ListReports(ctx, ReportFilter{CreatedBy: "user-1"}, 1, 0)
	if err != nil {
		t.Fatalf("ListReports filtered: %v", err)
	}
	if total != 2 {
		t.Errorf("Expected total 2 for user-1, got %d", total)
	}
	if len(mine) != 1 {
		t.Errorf("Expected page of 1, got %d", len(mine))
	}

	scheduled := true
	none, total, err := db.ListReports(ctx, ReportFilter{Scheduled: &scheduled}, 10, 0)
	if err != nil {
		t.Fatalf("ListReports scheduled: %v", err)
	}
	if total != 0 || len(none) != 0 {
		t.Errorf("Expected no scheduled reports, got %d", total)
	}
}

func TestUpdateReport(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	report := createTestReport(t, db, "Before", "user-1")

	name := "After"
	format := models.FormatXLSX
	req := &models.UpdateReportRequest{
		Name:     &name,
		Format:   &format,
		Schedule: &models.ReportSchedule{CronExpression: "0 8 * * 1", Timezone: "UTC", Enabled: true},
	}
	if err := db.UpdateReport(ctx, report.ID, req); err != nil {
		t.Fatalf("UpdateReport: %v", err)
	}

	got, err := db.GetReport(ctx, report.ID)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if got.Name != "After" {
		t.Errorf("Expected name After, got %s", got.Name)
	}
	if got.Format != models.FormatXLSX {
		t.Errorf("Expected xlsx, got %s", got.Format)
	}
	if !got.Schedule.Enabled || got.Schedule.CronExpression != "0 8 * * 1" {
		t.Errorf("Expected enabled weekly schedule, got %+v", got.Schedule)
	}
	if len(got.Recipients) != 1 {
		t.Errorf("Expected recipients unchanged, got %v", got.Recipients)
	}

	if err := db.UpdateReport(ctx, "missing", req); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing report, got %v", err)
	}
	if err := db.UpdateReport(ctx, report.ID, &models.UpdateReportRequest{}); err != nil {
		t.Errorf("Expected empty update to be a no-op, got %v", err)
	}
}

func TestGetReportsDueForRun(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	due := &models.Report{Name: "due", Request: sampleRequest(), CreatedBy: "u",
		Schedule: models.ReportSchedule{CronExpression: "* * * * *", Enabled: true}, NextRunAt: &past}
	later := &models.Report{Name: "later", Request: sampleRequest(), CreatedBy: "u",
		Schedule: models.ReportSchedule{CronExpression: "0 * * * *", Enabled: true}, NextRunAt: &future}
	disabled := &models.Report{Name: "disabled", Request: sampleRequest(), CreatedBy: "u",
		Schedule: models.ReportSchedule{CronExpression: "* * * * *", Enabled: false}, NextRunAt: &past}

	for _, r := range []*models.Report{due, later, disabled} {
		if err := db.CreateReport(ctx, r); err != nil {
			t.Fatalf("CreateReport %s: %v", r.Name, err)
		}
	}

	reports, err := db.GetReportsDueForRun(ctx, now)
	if err != nil {
		t.Fatalf("GetReportsDueForRun: %v", err)
	}
	if len(reports) != 1 || reports[0].ID != due.ID {
		t.Fatalf("Expected only the due report, got %d reports", len(reports))
	}

	next := now.Add(24 * time.Hour)
	if err := db.UpdateReportRunStatus(ctx, due.ID, models.RunStatusSuccess, &next); err != nil {
		t.Fatalf("UpdateReportRunStatus: %v", err)
	}
	reports, err = db.GetReportsDueForRun(ctx, now)
	if err != nil {
		t.Fatalf("GetReportsDueForRun after run: %v", err)
	}
	if len(reports) != 0 {
		t.Errorf("Expected no due reports after advancing schedule, got %d", len(reports))
	}

	got, _ := db.GetReport(ctx, due.ID)
	if got.RunCount != 1 || got.SuccessCount != 1 || got.FailureCount != 0 {
		t.Errorf("Expected run/success/failure 1/1/0, got %d/%d/%d", got.RunCount, got.SuccessCount, got.FailureCount)
	}
	if got.LastRunStatus != models.RunStatusSuccess {
		t.Errorf("Expected last status success, got %s", got.LastRunStatus)
	}
	if got.LastRunAt == nil {
		t.Error("Expected last_run_at to be set")
	}
}

func TestSetReportNextRun(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	report := createTestReport(t, db, "next", "u")

	next := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	if err := db.SetReportNextRun(ctx, report.ID, &next); err != nil {
		t.Fatalf("SetReportNextRun: %v", err)
	}
	got, _ := db.GetReport(ctx, report.ID)
	if got.NextRunAt == nil || !got.NextRunAt.Equal(next) {
		t.Errorf("Expected next run %v, got %v", next, got.NextRunAt)
	}

	if err := db.SetReportNextRun(ctx, report.ID, nil); err != nil {
		t.Fatalf("SetReportNextRun nil: %v", err)
	}
	got, _ = db.GetReport(ctx, report.ID)
	if got.NextRunAt != nil {
		t.Errorf("Expected cleared next run, got %v", got.NextRunAt)
	}
}

func TestReportRuns(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	report := createTestReport(t, db, "runs", "u")

	run := &models.ReportRun{ReportID: report.ID, Trigger: models.TriggerScheduled}
	if err := db.CreateReportRun(ctx, run); err != nil {
		t.Fatalf("CreateReportRun: %v", err)
	}
	if run.Status != models.RunStatusRunning {
		t.Errorf("Expected running status, got %s", run.Status)
	}

	run.Status = models.RunStatusSuccess
	run.RowCount = 12
	run.ArtifactPath = "/tmp/reports/runs.csv"
	done := run.StartedAt.Add(250 * time.Millisecond)
	run.CompletedAt = &done
	if err := db.CompleteReportRun(ctx, run); err != nil {
		t.Fatalf("CompleteReportRun: %v", err)
	}

	failed := &models.ReportRun{ReportID: report.ID, Trigger: models.TriggerManual,
		StartedAt: run.StartedAt.Add(time.Second)}
	if err := db.CreateReportRun(ctx, failed); err != nil {
		t.Fatalf("CreateReportRun failed run: %v", err)
	}
	failed.Status = models.RunStatusFailed
	failed.Error = "query timeout"
	if err := db.CompleteReportRun(ctx, failed); err != nil {
		t.Fatalf("CompleteReportRun failed run: %v", err)
	}

	runs, total, err := db.ListReportRuns(ctx, report.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListReportRuns: %v", err)
	}
	if total != 2 || len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got total=%d len=%d", total, len(runs))
	}
	if runs[0].ID != failed.ID {
		t.Errorf("Expected newest run first")
	}
	if runs[0].Error != "query timeout" {
		t.Errorf("Expected error message, got %q", runs[0].Error)
	}
	if runs[1].RowCount != 12 || runs[1].ArtifactPath != "/tmp/reports/runs.csv" {
		t.Errorf("Expected row count 12 and artifact path, got %d %q", runs[1].RowCount, runs[1].ArtifactPath)
	}
	if runs[1].DurationMS != 250 {
		t.Errorf("Expected duration 250ms, got %d", runs[1].DurationMS)
	}

	missing := &models.ReportRun{ID: "missing", Status: models.RunStatusFailed, StartedAt: time.Now()}
	if err := db.CompleteReportRun(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDeleteReport(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	report := createTestReport(t, db, "delete me", "u")

	if err := db.CreateReportRun(ctx, &models.ReportRun{ReportID: report.ID, Trigger: models.TriggerManual}); err != nil {
		t.Fatalf("CreateReportRun: %v", err)
	}
	if err := db.DeleteReport(ctx, report.ID); err != nil {
		t.Fatalf("DeleteReport: %v", err)
	}
	if _, err := db.GetReport(ctx, report.ID); !IsNotFound(err) {
		t.Errorf("Expected not found after delete, got %v", err)
	}
	_, total, err := db.ListReportRuns(ctx, report.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListReportRuns: %v", err)
	}
	if total != 0 {
		t.Errorf("Expected runs deleted with report, got %d", total)
	}
	if err := db.DeleteReport(ctx, report.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}
