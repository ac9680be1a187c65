// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

// Package audit records who ran, exported or changed what.
//
// # Event Types
//
// Events are named "<resource>.<verb>":
//   - analytics.execute, analytics.compile, analytics.export: ad-hoc queries
//   - report.created, report.updated, report.deleted, report.run, report.export
//   - dashboard.created, dashboard.updated, dashboard.deleted
//   - widget.created, widget.updated, widget.deleted
//   - auth.failure, authz.denied: rejected requests
//   - admin.cleanup: retention runs
//
// Executed requests store the compiled SQL fingerprint, row count and
// duration in Metadata, never the bound parameter values.
//
// # Architecture
//
//	Logger.Log() -> buffered chan -> async writer -> Store
//
// Log never blocks the request path. When the buffer is full the event is
// dropped, logged and counted in audit_events_total with
// outcome "dropped". Close drains the buffer.
//
// # Storage
//
// DuckDBStore writes to the audit_events table in the application database
// (TIMESTAMP columns, metadata as VARCHAR JSON). MemoryStore keeps a bounded
// ring in memory for development and tests.
//
// # Retention
//
// Logger implements suture.Service; under the supervisor it deletes events
// older than RetentionDays once per CleanupInterval.
package audit
