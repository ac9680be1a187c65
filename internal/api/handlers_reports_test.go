// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package api

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/kontrakpro/internal/audit"
	"github.com/tomtom215/kontrakpro/internal/models"
)

func reportBody(name string) map[string]interface{} {
	return map[string]interface{}{
		"name":    name,
		"request": statusRequestBody(),
	}
}

func createReport(t *testing.T, env *testEnv, body interface{}, token string) models.Report {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/v1/reports", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var report models.Report
	decodeData(t, rec, &report)
	return report
}

func TestReportLifecycle(t *testing.T) {
	env := newTestEnv(t, "none", "admin")

	report := createReport(t, env, reportBody("Q1 Pipeline"), "")
	if report.ID == "" {
		t.Fatal("Expected report ID")
	}
	if report.Format != models.FormatCSV {
		t.Errorf("Expected default format csv, got %s", report.Format)
	}
	if report.CreatedBy != "anonymous" {
		t.Errorf("Expected created_by anonymous, got %s", report.CreatedBy)
	}
	if report.NextRunAt != nil {
		t.Errorf("Expected no next run for an unscheduled report, got %v", report.NextRunAt)
	}

	base := "/api/v1/reports/" + report.ID

	// Get
	rec := env.do(t, http.MethodGet, base, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var fetched models.Report
	decodeData(t, rec, &fetched)
	if fetched.Name != "Q1 Pipeline" || fetched.Request == nil || len(fetched.Request.Metrics) != 1 {
		t.Errorf("Unexpected report: %+v", fetched)
	}

	// List
	rec = env.do(t, http.MethodGet, "/api/v1/reports?limit=10", nil, "")
	var list models.ListResponse[models.Report]
	decodeData(t, rec, &list)
	if len(list.Items) != 1 || list.Pagination.TotalCount != 1 {
		t.Errorf("Expected 1 report, got %d (total %d)", len(list.Items), list.Pagination.TotalCount)
	}
	if list.Pagination.Limit != 10 {
		t.Errorf("Expected limit 10, got %d", list.Pagination.Limit)
	}

	// Schedule it
	rec = env.do(t, http.MethodPut, base, map[string]interface{}{
		"format":   "xlsx",
		"schedule": map[string]interface{}{"cron_expression": "0 8 * * 1", "timezone": "UTC", "enabled": true},
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated models.Report
	decodeData(t, rec, &updated)
	if updated.Format != models.FormatXLSX {
		t.Errorf("Expected format xlsx, got %s", updated.Format)
	}
	if updated.NextRunAt == nil {
		t.Fatal("Expected next_run_at after enabling the schedule")
	}
	next := updated.NextRunAt.UTC()
	if next.Weekday() != time.Monday || next.Hour() != 8 || next.Minute() != 0 {
		t.Errorf("Expected next run on a Monday at 08:00 UTC, got %v", next)
	}
	if !next.After(time.Now()) {
		t.Errorf("Expected next run in the future, got %v", next)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/reports?scheduled=true", nil, "")
	decodeData(t, rec, &list)
	if len(list.Items) != 1 {
		t.Errorf("Expected 1 scheduled report, got %d", len(list.Items))
	}

	// Manual run
	rec = env.do(t, http.MethodPost, base+"/run", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	runID := rec.Header().Get(ReportRunIDHeader)
	if runID == "" {
		t.Error("Expected run ID header")
	}

	rec = env.do(t, http.MethodGet, base+"/runs", nil, "")
	var runs models.ListResponse[models.ReportRun]
	decodeData(t, rec, &runs)
	if len(runs.Items) != 1 {
		t.Fatalf("Expected 1 run, got %d", len(runs.Items))
	}
	if runs.Items[0].ID != runID {
		t.Errorf("Expected run %s, got %s", runID, runs.Items[0].ID)
	}
	if runs.Items[0].Status != models.RunStatusSuccess || runs.Items[0].Trigger != models.TriggerManual {
		t.Errorf("Expected successful manual run, got %s/%s", runs.Items[0].Status, runs.Items[0].Trigger)
	}

	rec = env.do(t, http.MethodGet, base, nil, "")
	decodeData(t, rec, &fetched)
	if fetched.RunCount != 1 || fetched.LastRunStatus != models.RunStatusSuccess {
		t.Errorf("Expected run count 1 with success, got %d/%s", fetched.RunCount, fetched.LastRunStatus)
	}
	if fetched.NextRunAt == nil || !fetched.NextRunAt.Equal(*updated.NextRunAt) {
		t.Errorf("Expected manual run to keep next_run_at %v, got %v", updated.NextRunAt, fetched.NextRunAt)
	}

	// Export defaults to the report's own format
	rec = env.do(t, http.MethodGet, base+"/export", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="q1-pipeline.xlsx"` {
		t.Errorf("Unexpected Content-Disposition: %s", got)
	}

	rec = env.do(t, http.MethodGet, base+"/export?format=csv", nil, "")
	if !strings.HasPrefix(rec.Body.String(), "contracts_status,count_contracts_id\n") {
		t.Errorf("Unexpected CSV export: %q", rec.Body.String())
	}

	// Delete
	rec = env.do(t, http.MethodDelete, base, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = env.do(t, http.MethodGet, base, nil, "")
	expectError(t, rec, http.StatusNotFound, codeNotFound)

	types := []audit.EventType{
		audit.EventReportCreated, audit.EventReportUpdated, audit.EventReportRun,
		audit.EventReportExport, audit.EventReportDeleted,
	}
	for _, typ := range types {
		waitForEvents(t, env.auditStore, audit.QueryFilter{Types: []audit.EventType{typ}, TargetID: report.ID}, 1)
	}
}

func TestCreateReport_Validation(t *testing.T) {
	tests := []struct {
		name      string
		body      map[string]interface{}
		wantField string
	}{
		{
			name:      "missing name",
			body:      map[string]interface{}{"request": statusRequestBody()},
			wantField: "name",
		},
		{
			name:      "missing request",
			body:      map[string]interface{}{"name": "Empty"},
			wantField: "request",
		},
		{
			name: "bad format",
			body: map[string]interface{}{
				"name": "Bad", "request": statusRequestBody(), "format": "pdf",
			},
			wantField: "format",
		},
		{
			name: "bad recipient",
			body: map[string]interface{}{
				"name": "Bad", "request": statusRequestBody(), "recipients": []string{"not-an-email"},
			},
		},
		{
			name: "enabled schedule without cron",
			body: map[string]interface{}{
				"name": "Bad", "request": statusRequestBody(),
				"schedule": map[string]interface{}{"enabled": true},
			},
			wantField: "schedule",
		},
		{
			name: "invalid cron",
			body: map[string]interface{}{
				"name": "Bad", "request": statusRequestBody(),
				"schedule": map[string]interface{}{"cron_expression": "61 * * * *", "enabled": true},
			},
			wantField: "schedule",
		},
		{
			name: "invalid cron on disabled schedule",
			body: map[string]interface{}{
				"name": "Bad", "request": statusRequestBody(),
				"schedule": map[string]interface{}{"cron_expression": "every day", "enabled": false},
			},
			wantField: "schedule",
		},
		{
			name: "unknown timezone",
			body: map[string]interface{}{
				"name": "Bad", "request": statusRequestBody(),
				"schedule": map[string]interface{}{"cron_expression": "0 8 * * *", "timezone": "Mars/Olympus", "enabled": true},
			},
			wantField: "schedule",
		},
	}

	env := newTestEnv(t, "none", "admin")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/v1/reports", tt.body, "")
			expectError(t, rec, http.StatusBadRequest, codeValidation)
			if tt.wantField == "" {
				return
			}
			details := decodeEnvelope(t, rec).Error.Details
			if !strings.Contains(strings.ToLower(toString(details["field"])), tt.wantField) {
				t.Errorf("Expected details.field to mention %s, got %v", tt.wantField, details)
			}
		})
	}

	rec := env.do(t, http.MethodGet, "/api/v1/reports", nil, "")
	var list models.ListResponse[models.Report]
	decodeData(t, rec, &list)
	if len(list.Items) != 0 {
		t.Errorf("Expected no reports after rejected creates, got %d", len(list.Items))
	}
}

func TestReport_NotFound(t *testing.T) {
	env := newTestEnv(t, "none", "admin")

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/reports/missing"},
		{http.MethodDelete, "/api/v1/reports/missing"},
		{http.MethodPost, "/api/v1/reports/missing/run"},
		{http.MethodGet, "/api/v1/reports/missing/export"},
		{http.MethodGet, "/api/v1/reports/missing/runs"},
	}
	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			rec := env.do(t, p.method, p.path, nil, "")
			expectError(t, rec, http.StatusNotFound, codeNotFound)
		})
	}
}

func TestRunReport_ExecutorFailureRecordsRun(t *testing.T) {
	env := newTestEnv(t, "none", "admin")
	report := createReport(t, env, reportBody("Failing"), "")

	env.exec.set(nil, errors.New("connection reset"))
	rec := env.do(t, http.MethodPost, "/api/v1/reports/"+report.ID+"/run", nil, "")
	expectError(t, rec, http.StatusInternalServerError, codeQuery)
	if rec.Header().Get(ReportRunIDHeader) == "" {
		t.Error("Expected run ID header on a failed run")
	}

	rec = env.do(t, http.MethodGet, "/api/v1/reports/"+report.ID+"/runs", nil, "")
	var runs models.ListResponse[models.ReportRun]
	decodeData(t, rec, &runs)
	if len(runs.Items) != 1 || runs.Items[0].Status != models.RunStatusFailed {
		t.Fatalf("Expected one failed run, got %+v", runs.Items)
	}
	if !strings.Contains(runs.Items[0].Error, "connection reset") {
		t.Errorf("Expected run error to be recorded, got %q", runs.Items[0].Error)
	}

	events := waitForEvents(t, env.auditStore, audit.QueryFilter{Types: []audit.EventType{audit.EventReportRun}}, 1)
	if events[0].Outcome != audit.OutcomeFailure {
		t.Errorf("Expected failure outcome, got %s", events[0].Outcome)
	}
}

func TestReports_OrganizationScope(t *testing.T) {
	env := newTestEnv(t, "jwt", "viewer")
	acme := env.token(t, "alice", "editor", "acme")
	globex := env.token(t, "bob", "editor", "globex")
	admin := env.token(t, "root", "admin", "")

	// Editors cannot place reports in another organization.
	body := reportBody("Acme renewals")
	body["organization_id"] = "globex"
	report := createReport(t, env, body, acme)
	if report.OrganizationID != "acme" {
		t.Errorf("Expected organization acme, got %s", report.OrganizationID)
	}
	if report.CreatedBy != "alice" {
		t.Errorf("Expected created_by alice, got %s", report.CreatedBy)
	}

	rec := env.do(t, http.MethodGet, "/api/v1/reports/"+report.ID, nil, globex)
	expectError(t, rec, http.StatusNotFound, codeNotFound)

	var list models.ListResponse[models.Report]
	rec = env.do(t, http.MethodGet, "/api/v1/reports", nil, globex)
	decodeData(t, rec, &list)
	if len(list.Items) != 0 {
		t.Errorf("Expected globex to see no reports, got %d", len(list.Items))
	}

	rec = env.do(t, http.MethodGet, "/api/v1/reports", nil, admin)
	decodeData(t, rec, &list)
	if len(list.Items) != 1 {
		t.Errorf("Expected admin to see 1 report, got %d", len(list.Items))
	}
}

func TestNextRunFor(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC) // Wednesday

	tests := []struct {
		name     string
		schedule models.ReportSchedule
		want     *time.Time
		wantErr  bool
	}{
		{
			name:     "empty and disabled",
			schedule: models.ReportSchedule{},
		},
		{
			name:     "disabled with valid expression",
			schedule: models.ReportSchedule{CronExpression: "0 8 * * 1"},
		},
		{
			name:     "enabled without expression",
			schedule: models.ReportSchedule{Enabled: true},
			wantErr:  true,
		},
		{
			name:     "disabled with invalid expression",
			schedule: models.ReportSchedule{CronExpression: "bogus"},
			wantErr:  true,
		},
		{
			name:     "weekly monday",
			schedule: models.ReportSchedule{CronExpression: "0 8 * * 1", Timezone: "UTC", Enabled: true},
			want:     timePtr(time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)),
		},
		{
			name:     "hourly",
			schedule: models.ReportSchedule{CronExpression: "0 * * * *", Enabled: true},
			want:     timePtr(time.Date(2026, 3, 4, 11, 0, 0, 0, time.UTC)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := nextRunFor(tt.schedule, now)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error, got next run %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("Expected no next run, got %v", got)
			case tt.want != nil && (got == nil || !got.Equal(*tt.want)):
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func toString(v interface{}) string {
	s, _ := v.(string)
	return s
}
