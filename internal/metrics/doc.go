// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry through promauto and
exposed at /metrics by the API router:

	curl http://localhost:8080/metrics

# Available Metrics

Analytics:
  - analytics_compile_errors_total{reason}: rejected requests
  - analytics_query_duration_seconds{backend,status}: executor latency
  - analytics_rows_returned: result set size
  - analytics_cache_hits_total / analytics_cache_misses_total / analytics_cache_errors_total

Executor:
  - duckdb_query_duration_seconds{operation,table}, duckdb_query_errors_total
  - executor_limiter_rejections_total
  - circuit_breaker_state{name}: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total, circuit_breaker_consecutive_failures,
    circuit_breaker_state_transitions_total

HTTP:
  - api_requests_total{method,endpoint,status}
  - api_request_duration_seconds{method,endpoint}
  - api_active_requests, api_rate_limit_hits_total

Reports:
  - report_runs_total{trigger,status}, report_run_duration_seconds
  - scheduler_due_reports
  - exports_total{format}
  - audit_events_total{action,outcome}

# Usage

Use the Record* helpers rather than touching collectors directly:

	start := time.Now()
	rows, err := exec.Query(ctx, q.SQL, q.Params...)
	metrics.RecordAnalyticsQuery("duckdb", time.Since(start), len(rows), err)

Endpoint labels must be route patterns, never raw paths, to bound cardinality.
*/
package metrics
