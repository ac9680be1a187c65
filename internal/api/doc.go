// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

/*
Package api provides the HTTP REST API layer for KontrakPro.

It exposes the analytics engine, saved reports, dashboards and the audit
trail over a chi router. Every JSON response uses the models.APIResponse
envelope; exports are returned as file downloads.

Key Components:

  - Router: route table and middleware stack (chi_router.go)
  - ChiMiddleware: go-chi/cors and go-chi/httprate factories (chi_middleware.go)
  - Handler: analytics, report, dashboard and health handlers
  - AuditHandlers: read access to the audit trail

Endpoints:

 1. Health (/api/v1/health, /live, /ready) and Prometheus (/metrics),
    unauthenticated.

 2. Analytics (/api/v1/analytics):
    POST /execute runs a request and returns rows, totals and metadata.
    POST /compile returns the SQL and parameters without running them.
    POST /export?format=csv|xlsx|json&name= returns a file download.

 3. Reports (/api/v1/reports): CRUD plus /{id}/run, /{id}/export and
    /{id}/runs. Saving a report compiles its request and checks its
    schedule.

 4. Dashboards (/api/v1/dashboards): CRUD, widgets under /{id}/widgets and
    widget data at /{id}/widgets/{widgetID}/data.

 5. Audit (/api/v1/audit): events, single event, stats and cleanup.

Error Mapping:

	VALIDATION_ERROR     400  malformed body, failed validation, compile errors
	UNAUTHORIZED         401  missing or invalid bearer token
	FORBIDDEN            403  casbin denial or non-owner dashboard change
	NOT_FOUND            404  unknown report, dashboard, widget or event
	RATE_LIMITED         429  httprate rejection
	QUERY_ERROR          500  the executor failed; message passed through
	DATABASE_ERROR       500  application store failure
	SERVICE_UNAVAILABLE  503  breaker open, limiter timeout, store offline

Middleware Order:

Global: request ID, real IP, panic recovery, CORS. Under /api/v1: security
headers, Prometheus, authentication, compression, then per-group rate limits
and per-route authorization.

Usage Example:

	handler := api.NewHandler(db, eng, runner, auditLogger, cfg)
	router := api.NewRouter(handler, authMiddleware, authzMiddleware,
	    api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(&cfg.Security)))
	router.ConfigureAudit(api.NewAuditHandlers(auditLogger, auditStore))
	srv := &http.Server{Addr: cfg.Server.Addr(), Handler: router.SetupChi()}

Thread Safety:

Handlers hold no per-request state and are safe for concurrent use.
*/
package api
