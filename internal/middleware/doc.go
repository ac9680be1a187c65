// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

/*
Package middleware provides infrastructure HTTP middleware shared by every
route: request ID propagation and Prometheus instrumentation.

Both are chi-compatible (func(http.Handler) http.Handler):

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)

Authentication and authorization live in internal/auth and internal/authz;
CORS, rate limiting, compression and panic recovery come from the chi
ecosystem (go-chi/cors, go-chi/httprate, chi/middleware).

Metrics recorded:

  - api_requests_total{method, endpoint, status}
  - api_request_duration_seconds{method, endpoint}
  - api_active_requests
*/
package middleware
