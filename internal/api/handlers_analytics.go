// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/kontrakpro/internal/analytics"
	"github.com/tomtom215/kontrakpro/internal/audit"
	"github.com/tomtom215/kontrakpro/internal/export"
	"github.com/tomtom215/kontrakpro/internal/logging"
	"github.com/tomtom215/kontrakpro/internal/models"
)

// AnalyticsExecute handles POST /api/v1/analytics/execute.
// The body is an analytics.Request; the response data is an analytics.Result
// with rows, totals and metadata.
func (h *Handler) AnalyticsExecute(w http.ResponseWriter, r *http.Request) {
	req := h.decodeAnalyticsRequest(w, r)
	if req == nil {
		return
	}

	result, err := h.engine.Execute(r.Context(), req)
	if err != nil {
		h.record(r, audit.EventAnalyticsExecute, analyticsTarget(req), audit.OutcomeFailure,
			"Analytics query failed", map[string]interface{}{"error": err.Error()})
		respondAnalyticsError(w, err)
		return
	}

	h.record(r, audit.EventAnalyticsExecute, analyticsTarget(req), audit.OutcomeSuccess,
		"Analytics query executed", map[string]interface{}{
			"rows":   result.Metadata.RowCount,
			"cached": result.Metadata.Cached,
		})
	respondResult(w, r, result)
}

// AnalyticsCompile handles POST /api/v1/analytics/compile. It returns the
// SQL and parameters that execute would run, without touching the database.
func (h *Handler) AnalyticsCompile(w http.ResponseWriter, r *http.Request) {
	req := h.decodeAnalyticsRequest(w, r)
	if req == nil {
		return
	}

	q, err := h.engine.Compile(req)
	if err != nil {
		respondAnalyticsError(w, err)
		return
	}

	h.record(r, audit.EventAnalyticsCompile, analyticsTarget(req), audit.OutcomeSuccess, "Analytics query compiled", nil)
	respondSuccess(w, r, http.StatusOK, compileResponse(q))
}

// AnalyticsExport handles POST /api/v1/analytics/export?format=csv|xlsx|json&name=.
// The file name is derived from name, falling back to "report".
func (h *Handler) AnalyticsExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}

	req := h.decodeAnalyticsRequest(w, r)
	if req == nil {
		return
	}

	result, err := h.engine.Execute(r.Context(), req)
	if err != nil {
		h.record(r, audit.EventAnalyticsExport, analyticsTarget(req), audit.OutcomeFailure,
			"Analytics export failed", map[string]interface{}{"error": err.Error(), "format": string(format)})
		respondAnalyticsError(w, err)
		return
	}

	name := r.URL.Query().Get("name")
	if !writeExport(w, r, format, name, result) {
		return
	}
	h.record(r, audit.EventAnalyticsExport, analyticsTarget(req), audit.OutcomeSuccess,
		"Analytics result exported", map[string]interface{}{
			"format": string(format),
			"rows":   result.Metadata.RowCount,
			"file":   export.Filename(name, format),
		})
}

// respondResult sends an analytics result with query timing in the envelope.
func respondResult(w http.ResponseWriter, r *http.Request, result *analytics.Result) {
	meta := newMetadata(r)
	meta.QueryTimeMS = result.Metadata.ExecutionTimeMS
	meta.Cached = result.Metadata.Cached
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     result,
		Metadata: meta,
	})
}

// writeExport renders result into memory first so a rendering failure can
// still be reported as a JSON error. Returns false when an error response
// was written.
func writeExport(w http.ResponseWriter, r *http.Request, format models.ReportFormat, name string, result *analytics.Result) bool {
	var buf bytes.Buffer
	if err := export.Write(&buf, format, result); err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "Failed to render export", err)
		return false
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(name, format)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to write export")
	}
	return true
}

func compileResponse(q *analytics.Query) models.CompileResponse {
	resp := models.CompileResponse{
		SQL:     q.SQL,
		Params:  q.Params,
		Columns: q.Columns,
		Anchor:  string(q.Anchor),
	}
	for _, j := range q.Joins {
		resp.Joins = append(resp.Joins, string(j.Table))
	}
	return resp
}

// analyticsTarget names an ad-hoc query by its first metric.
func analyticsTarget(req *analytics.Request) *audit.Target {
	target := &audit.Target{Type: "query"}
	if len(req.Metrics) > 0 {
		target.Name = req.Metrics[0].OutputAlias()
	}
	return target
}
