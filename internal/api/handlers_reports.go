// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/kontrakpro/internal/analytics"
	"github.com/tomtom215/kontrakpro/internal/audit"
	"github.com/tomtom215/kontrakpro/internal/database"
	"github.com/tomtom215/kontrakpro/internal/export"
	"github.com/tomtom215/kontrakpro/internal/models"
	"github.com/tomtom215/kontrakpro/internal/scheduler"
)

// ReportRunIDHeader carries the ID of the run recorded by a manual run.
const ReportRunIDHeader = "X-Report-Run-ID"

// ListReports handles GET /api/v1/reports?limit=&offset=&scheduled=true|false.
// Non-admin callers with an organization only see that organization's reports.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	limit, offset := getPagination(r)

	filter := database.ReportFilter{OrganizationID: orgScope(r)}
	if v := r.URL.Query().Get("scheduled"); v != "" {
		scheduled, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, codeValidation, "scheduled must be true or false", nil)
			return
		}
		filter.Scheduled = &scheduled
	}
	if v := r.URL.Query().Get("created_by"); v != "" {
		filter.CreatedBy = v
	}

	reports, total, err := h.db.ListReports(r.Context(), filter, limit, offset)
	if err != nil {
		respondStoreError(w, err, "Reports")
		return
	}

	respondSuccess(w, r, http.StatusOK, models.ListResponse[models.Report]{
		Items:      reports,
		Pagination: models.NewPaginationInfo(limit, offset, total),
	})
}

// CreateReport handles POST /api/v1/reports. The stored request must
// compile, and an enabled schedule must parse.
func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var body models.CreateReportRequest
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&body); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}

	h.engine.ClampLimit(body.Request)
	if _, err := h.engine.Compile(body.Request); err != nil {
		respondAnalyticsError(w, err)
		return
	}

	nextRunAt, err := nextRunFor(body.Schedule, time.Now())
	if err != nil {
		respondErrorDetails(w, http.StatusBadRequest, codeValidation, err.Error(),
			map[string]interface{}{"field": "schedule"}, nil)
		return
	}

	report := &models.Report{
		Name:           body.Name,
		Description:    body.Description,
		Request:        body.Request,
		Format:         body.Format,
		Schedule:       body.Schedule,
		Recipients:     body.Recipients,
		CreatedBy:      subjectID(r),
		OrganizationID: body.OrganizationID,
		NextRunAt:      nextRunAt,
	}
	if scope := orgScope(r); scope != "" {
		report.OrganizationID = scope
	}

	if err := h.db.CreateReport(r.Context(), report); err != nil {
		respondStoreError(w, err, "Report")
		return
	}

	h.record(r, audit.EventReportCreated, reportTarget(report), audit.OutcomeSuccess, "Report created", nil)
	respondSuccess(w, r, http.StatusCreated, report)
}

// GetReport handles GET /api/v1/reports/{id}.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.loadReport(w, r)
	if !ok {
		return
	}
	respondSuccess(w, r, http.StatusOK, report)
}

// UpdateReport handles PUT /api/v1/reports/{id}. Changing the schedule
// recomputes next_run_at from now.
func (h *Handler) UpdateReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.loadReport(w, r)
	if !ok {
		return
	}

	var body models.UpdateReportRequest
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&body); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}

	if body.Request != nil {
		h.engine.ClampLimit(body.Request)
		if _, err := h.engine.Compile(body.Request); err != nil {
			respondAnalyticsError(w, err)
			return
		}
	}

	var nextRunAt *time.Time
	if body.Schedule != nil {
		var err error
		if nextRunAt, err = nextRunFor(*body.Schedule, time.Now()); err != nil {
			respondErrorDetails(w, http.StatusBadRequest, codeValidation, err.Error(),
				map[string]interface{}{"field": "schedule"}, nil)
			return
		}
	}

	ctx := r.Context()
	if err := h.db.UpdateReport(ctx, report.ID, &body); err != nil {
		respondStoreError(w, err, "Report")
		return
	}
	if body.Schedule != nil {
		if err := h.db.SetReportNextRun(ctx, report.ID, nextRunAt); err != nil {
			respondStoreError(w, err, "Report")
			return
		}
	}

	updated, err := h.db.GetReport(ctx, report.ID)
	if err != nil {
		respondStoreError(w, err, "Report")
		return
	}

	h.record(r, audit.EventReportUpdated, reportTarget(updated), audit.OutcomeSuccess, "Report updated", nil)
	respondSuccess(w, r, http.StatusOK, updated)
}

// DeleteReport handles DELETE /api/v1/reports/{id}. Run history goes with it.
func (h *Handler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.loadReport(w, r)
	if !ok {
		return
	}

	if err := h.db.DeleteReport(r.Context(), report.ID); err != nil {
		respondStoreError(w, err, "Report")
		return
	}

	h.record(r, audit.EventReportDeleted, reportTarget(report), audit.OutcomeSuccess, "Report deleted", nil)
	respondSuccess(w, r, http.StatusOK, map[string]interface{}{"id": report.ID, "deleted": true})
}

// RunReport handles POST /api/v1/reports/{id}/run. The stored request is
// executed now and a manual run is recorded; the schedule is unaffected.
func (h *Handler) RunReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.loadReport(w, r)
	if !ok {
		return
	}
	if report.Request == nil {
		respondError(w, http.StatusBadRequest, codeValidation, "Report has no stored request", nil)
		return
	}
	h.engine.ClampLimit(report.Request)

	var (
		result *analytics.Result
		run    *models.ReportRun
		err    error
	)
	if h.runner != nil {
		result, run, err = h.runner.Run(r.Context(), report, models.TriggerManual)
	} else {
		result, err = h.engine.Execute(r.Context(), report.Request)
	}

	metadata := map[string]interface{}{"trigger": string(models.TriggerManual)}
	if run != nil {
		metadata["run_id"] = run.ID
		w.Header().Set(ReportRunIDHeader, run.ID)
	}

	if err != nil {
		metadata["error"] = err.Error()
		h.record(r, audit.EventReportRun, reportTarget(report), audit.OutcomeFailure, "Report run failed", metadata)
		if h.runner != nil && run == nil {
			respondStoreError(w, err, "Report run")
			return
		}
		respondAnalyticsError(w, err)
		return
	}

	metadata["rows"] = result.Metadata.RowCount
	h.record(r, audit.EventReportRun, reportTarget(report), audit.OutcomeSuccess, "Report run", metadata)
	respondResult(w, r, result)
}

// ExportReport handles GET /api/v1/reports/{id}/export?format=csv|xlsx|json.
// Without format the report's own format is used.
func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.loadReport(w, r)
	if !ok {
		return
	}
	if report.Request == nil {
		respondError(w, http.StatusBadRequest, codeValidation, "Report has no stored request", nil)
		return
	}

	format := report.Format
	if v := r.URL.Query().Get("format"); v != "" || format == "" {
		var err error
		if format, err = export.ParseFormat(v); err != nil {
			respondError(w, http.StatusBadRequest, codeValidation, err.Error(), nil)
			return
		}
	}

	h.engine.ClampLimit(report.Request)
	result, err := h.engine.Execute(r.Context(), report.Request)
	if err != nil {
		h.record(r, audit.EventReportExport, reportTarget(report), audit.OutcomeFailure, "Report export failed",
			map[string]interface{}{"format": string(format), "error": err.Error()})
		respondAnalyticsError(w, err)
		return
	}

	if !writeExport(w, r, format, report.Name, result) {
		return
	}
	h.record(r, audit.EventReportExport, reportTarget(report), audit.OutcomeSuccess, "Report exported",
		map[string]interface{}{"format": string(format), "rows": result.Metadata.RowCount})
}

// ListReportRuns handles GET /api/v1/reports/{id}/runs, newest first.
func (h *Handler) ListReportRuns(w http.ResponseWriter, r *http.Request) {
	report, ok := h.loadReport(w, r)
	if !ok {
		return
	}
	limit, offset := getPagination(r)

	runs, total, err := h.db.ListReportRuns(r.Context(), report.ID, limit, offset)
	if err != nil {
		respondStoreError(w, err, "Report runs")
		return
	}

	respondSuccess(w, r, http.StatusOK, models.ListResponse[models.ReportRun]{
		Items:      runs,
		Pagination: models.NewPaginationInfo(limit, offset, total),
	})
}

// loadReport fetches the {id} report, hiding reports outside the caller's
// organization. It writes the error response and returns false on failure.
func (h *Handler) loadReport(w http.ResponseWriter, r *http.Request) (*models.Report, bool) {
	report, err := h.db.GetReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err, "Report")
		return nil, false
	}
	if scope := orgScope(r); scope != "" && report.OrganizationID != scope {
		respondError(w, http.StatusNotFound, codeNotFound, "Report not found", nil)
		return nil, false
	}
	return report, true
}

// errCronRequired is returned for an enabled schedule without an expression.
var errCronRequired = errors.New("schedule.cron_expression is required when the schedule is enabled")

// nextRunFor returns the first run after now, or nil for a disabled
// schedule. Disabled schedules are still checked when an expression is set.
func nextRunFor(s models.ReportSchedule, now time.Time) (*time.Time, error) {
	if s.CronExpression == "" {
		if s.Enabled {
			return nil, errCronRequired
		}
		return nil, nil
	}
	if err := scheduler.ValidateSchedule(s.CronExpression, s.Timezone); err != nil {
		return nil, fmt.Errorf("invalid schedule: %w", err)
	}
	if !s.Enabled {
		return nil, nil
	}
	next, err := scheduler.NextRun(s.CronExpression, s.Timezone, now)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule: %w", err)
	}
	return &next, nil
}

func reportTarget(report *models.Report) *audit.Target {
	return &audit.Target{ID: report.ID, Type: "report", Name: report.Name}
}
