// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics (DuckDB store: reports, dashboards, audit)
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB store query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// Analytics Metrics
	AnalyticsCompileErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_compile_errors_total",
			Help: "Total number of analytics requests rejected at compile time",
		},
		[]string{"reason"},
	)

	AnalyticsQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analytics_query_duration_seconds",
			Help:    "Duration of executed analytics queries in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"backend", "status"},
	)

	AnalyticsRowsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analytics_rows_returned",
			Help:    "Number of rows returned per analytics query",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	// Result Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_cache_hits_total",
			Help: "Total number of analytics result cache hits",
		},
		[]string{"backend"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_cache_misses_total",
			Help: "Total number of analytics result cache misses",
		},
		[]string{"backend"},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_cache_errors_total",
			Help: "Total number of result cache backend errors",
		},
		[]string{"backend", "operation"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Executor Protection Metrics
	ExecutorLimiterRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "executor_limiter_rejections_total",
			Help: "Total number of queries abandoned while waiting for the executor rate limiter",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Report Scheduler Metrics
	ReportRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_runs_total",
			Help: "Total number of report runs",
		},
		[]string{"trigger", "status"}, // trigger: scheduled, manual
	)

	ReportRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "report_run_duration_seconds",
			Help:    "Duration of report runs including export in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
	)

	SchedulerDueReports = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scheduler_due_reports",
			Help: "Number of reports found due at the last scheduler check",
		},
	)

	// Export Metrics
	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exports_total",
			Help: "Total number of analytics exports",
		},
		[]string{"format"},
	)

	// Audit Metrics
	AuditEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_events_total",
			Help: "Total number of audit events recorded",
		},
		[]string{"action", "outcome"},
	)

	// Auth Metrics
	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_failures_total",
			Help: "Total number of rejected bearer tokens",
		},
		[]string{"reason"},
	)

	AuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"object", "action", "decision"},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAnalyticsQuery records an executed analytics query.
func RecordAnalyticsQuery(backend string, duration time.Duration, rows int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	AnalyticsQueryDuration.WithLabelValues(backend, status).Observe(duration.Seconds())
	if err == nil {
		AnalyticsRowsReturned.Observe(float64(rows))
	}
}

// RecordCompileError counts a request rejected by the compiler.
func RecordCompileError(reason string) {
	AnalyticsCompileErrors.WithLabelValues(reason).Inc()
}

// RecordCacheLookup records a result cache hit or miss.
func RecordCacheLookup(backend string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(backend).Inc()
	} else {
		CacheMisses.WithLabelValues(backend).Inc()
	}
}

// RecordCacheError counts a failed cache get or set.
func RecordCacheError(backend, operation string) {
	CacheErrors.WithLabelValues(backend, operation).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordReportRun records a finished report run.
func RecordReportRun(trigger string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	ReportRunsTotal.WithLabelValues(trigger, status).Inc()
	ReportRunDuration.Observe(duration.Seconds())
}

// RecordExport counts an export by format.
func RecordExport(format string) {
	ExportsTotal.WithLabelValues(format).Inc()
}

// RecordAuditEvent counts a recorded audit event.
func RecordAuditEvent(action, outcome string) {
	AuditEventsTotal.WithLabelValues(action, outcome).Inc()
}

// RecordAuthFailure counts a rejected credential.
func RecordAuthFailure(reason string) {
	AuthFailures.WithLabelValues(reason).Inc()
}

// RecordAuthzDecision counts an allow or deny decision.
func RecordAuthzDecision(object, action string, allowed bool) {
	decision := "allow"
	if !allowed {
		decision = "deny"
	}
	AuthzDecisions.WithLabelValues(object, action, decision).Inc()
}
