// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/kontrakpro/internal/audit"
)

// maxAuditPageSize bounds a single audit query.
const maxAuditPageSize = 1000

// AuditHandlers provides HTTP handlers for the audit trail.
type AuditHandlers struct {
	logger *audit.Logger
	store  AuditStore
}

// AuditStore is the read side of the audit store. Both audit.DuckDBStore
// and audit.MemoryStore satisfy it.
type AuditStore interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error)
	Count(ctx context.Context, filter audit.QueryFilter) (int64, error)
	Get(ctx context.Context, id string) (*audit.Event, error)
	GetStats(ctx context.Context) (*audit.Stats, error)
}

// NewAuditHandlers creates new audit handlers.
func NewAuditHandlers(logger *audit.Logger, store AuditStore) *AuditHandlers {
	return &AuditHandlers{
		logger: logger,
		store:  store,
	}
}

// ListEvents handles GET /api/v1/audit/events.
//
// Query parameters: type and outcome (repeatable or comma-separated),
// actor_id, target_id, target_type, request_id, start_time and end_time
// (RFC 3339), search, limit, offset. Results are newest first.
func (h *AuditHandlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	filter, err := parseAuditFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}

	ctx := r.Context()
	events, err := h.store.Query(ctx, filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeDatabase, "Failed to fetch audit events", err)
		return
	}

	countFilter := filter
	countFilter.Limit = 0
	countFilter.Offset = 0
	total, err := h.store.Count(ctx, countFilter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeDatabase, "Failed to count audit events", err)
		return
	}

	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"events": events,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// GetEvent handles GET /api/v1/audit/events/{id}.
func (h *AuditHandlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, audit.ErrNotFound) {
			respondError(w, http.StatusNotFound, codeNotFound, "Audit event not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, codeDatabase, "Failed to fetch audit event", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, event)
}

// GetStats handles GET /api/v1/audit/stats.
func (h *AuditHandlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeDatabase, "Failed to fetch audit statistics", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, stats)
}

// Cleanup handles POST /api/v1/audit/cleanup, applying the retention period
// immediately instead of waiting for the background routine.
func (h *AuditHandlers) Cleanup(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.logger.Cleanup(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeDatabase, "Failed to clean up audit events", err)
		return
	}

	h.logger.Record(r.Context(), audit.EventAdminCleanup, actorFromRequest(r), audit.SourceFromRequest(r),
		&audit.Target{Type: "audit_events"}, audit.OutcomeSuccess, "Audit retention applied",
		map[string]interface{}{"deleted": deleted})
	respondSuccess(w, r, http.StatusOK, map[string]interface{}{"deleted": deleted})
}

func parseAuditFilter(r *http.Request) (audit.QueryFilter, error) {
	q := r.URL.Query()
	filter := audit.DefaultQueryFilter()

	if v := q.Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	if filter.Limit > maxAuditPageSize {
		filter.Limit = maxAuditPageSize
	}
	if v := q.Get("offset"); v != "" {
		if offset, err := strconv.Atoi(v); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}

	for _, raw := range q["type"] {
		for _, t := range parseCommaSeparated(raw) {
			filter.Types = append(filter.Types, audit.EventType(t))
		}
	}
	for _, raw := range q["outcome"] {
		for _, o := range parseCommaSeparated(raw) {
			filter.Outcomes = append(filter.Outcomes, audit.Outcome(o))
		}
	}

	filter.ActorID = q.Get("actor_id")
	filter.TargetID = q.Get("target_id")
	filter.TargetType = q.Get("target_type")
	filter.RequestID = q.Get("request_id")
	filter.SearchText = q.Get("search")

	if v := q.Get("start_time"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errors.New("start_time must be RFC 3339")
		}
		filter.StartTime = &t
	}
	if v := q.Get("end_time"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errors.New("end_time must be RFC 3339")
		}
		filter.EndTime = &t
	}

	return filter, nil
}
