// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/kontrakpro/internal/audit"
	"github.com/tomtom215/kontrakpro/internal/auth"
	"github.com/tomtom215/kontrakpro/internal/authz"
	"github.com/tomtom215/kontrakpro/internal/middleware"
)

// compressionLevel is the gzip level for JSON and CSV responses.
const compressionLevel = 5

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler       *Handler
	auditHandlers *AuditHandlers
	authn         *auth.Middleware
	authz         *authz.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. authzMiddleware may be nil, in which case
// every authenticated caller may use every route. Authentication failures
// and authorization denials are written to the handler's audit log.
func NewRouter(handler *Handler, authn *auth.Middleware, authzMiddleware *authz.Middleware, chiMw *ChiMiddleware) *Router {
	if chiMw == nil {
		chiMw = NewChiMiddleware(nil)
	}
	router := &Router{
		handler:       handler,
		authn:         authn,
		authz:         authzMiddleware,
		chiMiddleware: chiMw,
	}
	router.wireAuditHooks()
	return router
}

// ConfigureAudit enables the audit trail endpoints.
func (router *Router) ConfigureAudit(handlers *AuditHandlers) {
	router.auditHandlers = handlers
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // must be global to answer OPTIONS preflight

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, codeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(auth.SecurityHeaders)
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.SecurityHeaders)
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.authn.Authenticate)
		r.Use(chimiddleware.Compress(compressionLevel))

		r.Route("/analytics", func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitAnalytics())
			read := router.require(authz.ObjectAnalytics, authz.ActionRead)
			r.With(read).Post("/execute", router.handler.AnalyticsExecute)
			r.With(read).Post("/compile", router.handler.AnalyticsCompile)
			r.With(router.chiMiddleware.RateLimitExport(), router.require(authz.ObjectAnalytics, authz.ActionExport)).
				Post("/export", router.handler.AnalyticsExport)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			read := router.require(authz.ObjectReports, authz.ActionRead)
			write := router.require(authz.ObjectReports, authz.ActionWrite)

			r.With(read).Get("/", router.handler.ListReports)
			r.With(router.chiMiddleware.RateLimitWrite(), write).Post("/", router.handler.CreateReport)

			r.Route("/{id}", func(r chi.Router) {
				r.With(read).Get("/", router.handler.GetReport)
				r.With(router.chiMiddleware.RateLimitWrite(), write).Put("/", router.handler.UpdateReport)
				r.With(router.chiMiddleware.RateLimitWrite(), router.require(authz.ObjectReports, authz.ActionDelete)).
					Delete("/", router.handler.DeleteReport)
				r.With(router.require(authz.ObjectReports, authz.ActionRun)).Post("/run", router.handler.RunReport)
				r.With(router.chiMiddleware.RateLimitExport(), router.require(authz.ObjectReports, authz.ActionExport)).
					Get("/export", router.handler.ExportReport)
				r.With(read).Get("/runs", router.handler.ListReportRuns)
			})
		})

		r.Route("/dashboards", func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			read := router.require(authz.ObjectDashboards, authz.ActionRead)
			write := router.require(authz.ObjectDashboards, authz.ActionWrite)
			del := router.require(authz.ObjectDashboards, authz.ActionDelete)

			r.With(read).Get("/", router.handler.ListDashboards)
			r.With(router.chiMiddleware.RateLimitWrite(), write).Post("/", router.handler.CreateDashboard)

			r.Route("/{id}", func(r chi.Router) {
				r.With(read).Get("/", router.handler.GetDashboard)
				r.With(router.chiMiddleware.RateLimitWrite(), write).Put("/", router.handler.UpdateDashboard)
				r.With(router.chiMiddleware.RateLimitWrite(), del).Delete("/", router.handler.DeleteDashboard)

				r.With(router.chiMiddleware.RateLimitWrite(), write).Post("/widgets", router.handler.CreateWidget)
				r.Route("/widgets/{widgetID}", func(r chi.Router) {
					r.With(router.chiMiddleware.RateLimitWrite(), write).Put("/", router.handler.UpdateWidget)
					r.With(router.chiMiddleware.RateLimitWrite(), write).Delete("/", router.handler.DeleteWidget)
					r.With(router.chiMiddleware.RateLimitAnalytics(), read).Get("/data", router.handler.WidgetData)
				})
			})
		})

		if router.auditHandlers != nil {
			r.Route("/audit", func(r chi.Router) {
				r.Use(router.chiMiddleware.RateLimit())
				read := router.require(authz.ObjectAudit, authz.ActionRead)
				r.With(read).Get("/events", router.auditHandlers.ListEvents)
				r.With(read).Get("/events/{id}", router.auditHandlers.GetEvent)
				r.With(read).Get("/stats", router.auditHandlers.GetStats)
				r.With(router.require(authz.ObjectAudit, authz.ActionDelete)).Post("/cleanup", router.auditHandlers.Cleanup)
			})
		}
	})

	return r
}

// require enforces (object, action), or passes everything through when no
// enforcer is configured.
func (router *Router) require(object, action string) func(http.Handler) http.Handler {
	if router.authz == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return router.authz.Require(object, action)
}

func (router *Router) wireAuditHooks() {
	h := router.handler
	if h == nil || !h.audit.Enabled() {
		return
	}
	if router.authn != nil {
		router.authn.OnFailure(func(r *http.Request, err error) {
			h.audit.Record(r.Context(), audit.EventAuthFailure,
				audit.Actor{ID: "unknown", Type: "user"}, audit.SourceFromRequest(r),
				nil, audit.OutcomeFailure, "Authentication failed",
				map[string]interface{}{"path": r.URL.Path, "error": err.Error()})
		})
	}
	if router.authz != nil {
		router.authz.OnDeny(func(r *http.Request, _ *auth.AuthSubject, object, action string) {
			h.record(r, audit.EventAuthzDenied, &audit.Target{Type: object}, audit.OutcomeFailure,
				"Authorization denied", map[string]interface{}{"object": object, "action": action, "path": r.URL.Path})
		})
	}
}
