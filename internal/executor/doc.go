// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

// Package executor runs compiled analytics SQL.
//
// The chain built by Open is:
//
//	Limited (x/time/rate token bucket)
//	  → Breaker (sony/gobreaker)
//	    → SQL (sqlx MapScan over DuckDB or MySQL)
//
// SQL normalizes driver values so rows encode cleanly to JSON and fold in
// analytics.ComputeTotals. Rejections by the limiter or an open breaker wrap
// ErrUnavailable, which the API maps to 503. Query failures are returned as
// is and never retried.
package executor
