// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/kontrakpro/internal/audit"
	"github.com/tomtom215/kontrakpro/internal/auth"
	"github.com/tomtom215/kontrakpro/internal/config"
	"github.com/tomtom215/kontrakpro/internal/database"
	"github.com/tomtom215/kontrakpro/internal/engine"
	"github.com/tomtom215/kontrakpro/internal/scheduler"
)

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers.go: Handler struct and constructor (this file)
//   - handlers_helpers.go: response, decoding and error mapping helpers
//   - handlers_health.go: health probes
//   - handlers_analytics.go: execute, compile and ad-hoc export
//   - handlers_reports.go: saved reports, manual runs, report export
//   - handlers_dashboards.go: dashboards, widgets, widget data
//   - handlers_audit.go: audit trail queries
type Handler struct {
	db        *database.DB
	engine    *engine.Engine
	runner    *scheduler.Runner
	audit     *audit.Logger
	config    *config.Config
	startTime time.Time
}

// NewHandler creates a new API handler.
//
// runner and auditLogger may be nil: manual report runs then fall back to
// executing the stored request without recording a run, and audit events are
// dropped.
//
// Example:
//
//	handler := api.NewHandler(db, eng, runner, auditLogger, cfg)
//	router := api.NewRouter(handler, authMiddleware, authzMiddleware, chiMiddleware)
//	http.ListenAndServe(cfg.Server.Addr(), router.SetupChi())
func NewHandler(db *database.DB, eng *engine.Engine, runner *scheduler.Runner, auditLogger *audit.Logger, cfg *config.Config) *Handler {
	return &Handler{
		db:        db,
		engine:    eng,
		runner:    runner,
		audit:     auditLogger,
		config:    cfg,
		startTime: time.Now(),
	}
}

// record writes an audit event for the current request. The actor is the
// authenticated subject; requests without one are attributed to the system.
func (h *Handler) record(r *http.Request, eventType audit.EventType, target *audit.Target, outcome audit.Outcome, description string, metadata map[string]interface{}) {
	if !h.audit.Enabled() {
		return
	}
	h.audit.Record(r.Context(), eventType, actorFromRequest(r), audit.SourceFromRequest(r), target, outcome, description, metadata)
}

func actorFromRequest(r *http.Request) audit.Actor {
	subject := auth.GetAuthSubject(r.Context())
	if subject == nil {
		return audit.SystemActor()
	}
	return audit.Actor{
		ID:             subject.ID,
		Type:           "user",
		Name:           subject.Username,
		Role:           subject.PrimaryRole(),
		OrganizationID: subject.OrganizationID,
	}
}

// subjectID returns the caller's ID for created_by columns.
func subjectID(r *http.Request) string {
	if subject := auth.GetAuthSubject(r.Context()); subject != nil {
		return subject.ID
	}
	return auth.AnonymousID
}

// isAdmin reports whether the caller may see every user's records.
func isAdmin(r *http.Request) bool {
	return auth.GetAuthSubject(r.Context()).HasRole(auth.RoleAdmin)
}

// orgScope returns the organization a non-admin caller is confined to, or
// "" when the caller is unrestricted.
func orgScope(r *http.Request) string {
	subject := auth.GetAuthSubject(r.Context())
	if subject == nil || subject.HasRole(auth.RoleAdmin) {
		return ""
	}
	return subject.OrganizationID
}

// ownsOrAdmin reports whether the caller created the record or is an admin.
func ownsOrAdmin(r *http.Request, createdBy string) bool {
	if isAdmin(r) {
		return true
	}
	subject := auth.GetAuthSubject(r.Context())
	return subject != nil && subject.ID == createdBy
}
