// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

// Package database provides the DuckDB store behind KontrakPro.
//
// # Overview
//
// The store holds two kinds of data. The contract lifecycle tables
// (organizations, users, contracts, workflows, workflow_steps, documents,
// audit_logs) are what analytics requests query; the default executor runs
// compiled SQL against the same connection via Conn. The persistence tables
// (reports, report_runs, dashboards, dashboard_widgets) hold saved requests,
// schedules and layouts.
//
// # Files
//
//   - database.go: lifecycle (New, Close, Ping) and initialization
//   - database_schema.go: CREATE TABLE statements and indexes
//   - migrations.go: versioned migrations tracked in schema_migrations
//   - reports.go: saved reports, due-report lookup and run history
//   - dashboards.go: dashboards and their widgets
//   - seed.go: deterministic demo data for every analytics table
//
// # Usage
//
//	db, err := database.New(&cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	report := &models.Report{Name: "Signed value", Request: req, CreatedBy: userID}
//	if err := db.CreateReport(ctx, report); err != nil {
//	    return err
//	}
//
// # Errors
//
// Lookups, updates and deletes of a missing record return an error wrapping
// ErrNotFound; test with errors.Is or IsNotFound.
//
// # Context
//
// Every exported operation takes a context. Contexts without a deadline get
// a 30 second timeout.
package database
