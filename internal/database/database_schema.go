// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

/*
database_schema.go - Database Schema Management

Tables:
  - organizations, users, contracts, workflows, workflow_steps, documents,
    audit_logs: the contract lifecycle data the analytics compiler queries
  - reports, report_runs: saved analytics requests and their run history
  - dashboards, dashboard_widgets: dashboard layout and widget requests

Analytics requests, recipients and layouts are stored as JSON text in VARCHAR
columns. Timestamps are plain TIMESTAMP (UTC) so the schema needs no ICU
extension.

Index Strategy:
Indexes cover the time and status columns analytics requests filter on and
the foreign keys used for joins. Columns rewritten by UPDATE (next_run_at,
status on report_runs) are left unindexed; DuckDB rewrites indexed rows on
update.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range getTableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// getTableCreationQueries returns the table creation SQL statements
func getTableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS organizations (
			id VARCHAR PRIMARY KEY,
			name VARCHAR NOT NULL,
			industry VARCHAR,
			plan VARCHAR,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR PRIMARY KEY,
			email VARCHAR NOT NULL,
			name VARCHAR NOT NULL,
			role VARCHAR NOT NULL,
			organization_id VARCHAR,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS contracts (
			id VARCHAR PRIMARY KEY,
			title VARCHAR NOT NULL,
			contract_type VARCHAR NOT NULL,
			status VARCHAR NOT NULL,
			value DECIMAL(18,2),
			currency VARCHAR,
			organization_id VARCHAR,
			created_by VARCHAR,
			start_date DATE,
			end_date DATE,
			signed_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS workflows (
			id VARCHAR PRIMARY KEY,
			contract_id VARCHAR NOT NULL,
			name VARCHAR NOT NULL,
			status VARCHAR NOT NULL,
			created_by VARCHAR,
			completed_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS workflow_steps (
			id VARCHAR PRIMARY KEY,
			workflow_id VARCHAR NOT NULL,
			step_order INTEGER NOT NULL,
			name VARCHAR NOT NULL,
			status VARCHAR NOT NULL,
			assignee_id VARCHAR,
			due_date DATE,
			completed_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			id VARCHAR PRIMARY KEY,
			contract_id VARCHAR NOT NULL,
			file_name VARCHAR NOT NULL,
			mime_type VARCHAR,
			size_bytes BIGINT,
			uploaded_by VARCHAR,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id VARCHAR PRIMARY KEY,
			user_id VARCHAR,
			action VARCHAR NOT NULL,
			entity_type VARCHAR,
			entity_id VARCHAR,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS reports (
			id VARCHAR PRIMARY KEY,
			name VARCHAR NOT NULL,
			description VARCHAR,
			request_json VARCHAR NOT NULL,
			format VARCHAR NOT NULL DEFAULT 'csv',
			cron_expression VARCHAR,
			timezone VARCHAR,
			schedule_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			recipients VARCHAR,
			created_by VARCHAR NOT NULL,
			organization_id VARCHAR,
			last_run_at TIMESTAMP,
			last_run_status VARCHAR,
			next_run_at TIMESTAMP,
			run_count INTEGER NOT NULL DEFAULT 0,
			success_count INTEGER NOT NULL DEFAULT 0,
			failure_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS report_runs (
			id VARCHAR PRIMARY KEY,
			report_id VARCHAR NOT NULL,
			run_trigger VARCHAR NOT NULL,
			status VARCHAR NOT NULL,
			row_count INTEGER NOT NULL DEFAULT 0,
			artifact_path VARCHAR,
			error_message VARCHAR,
			started_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS dashboards (
			id VARCHAR PRIMARY KEY,
			name VARCHAR NOT NULL,
			description VARCHAR,
			layout VARCHAR,
			is_default BOOLEAN NOT NULL DEFAULT FALSE,
			created_by VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS dashboard_widgets (
			id VARCHAR PRIMARY KEY,
			dashboard_id VARCHAR NOT NULL,
			title VARCHAR NOT NULL,
			widget_type VARCHAR NOT NULL,
			request_json VARCHAR NOT NULL,
			pos_x INTEGER NOT NULL DEFAULT 0,
			pos_y INTEGER NOT NULL DEFAULT 0,
			pos_w INTEGER NOT NULL DEFAULT 4,
			pos_h INTEGER NOT NULL DEFAULT 3,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	}
}

// createIndexes creates indexes for the analytics and persistence tables
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_contracts_created_at ON contracts(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_contracts_status ON contracts(status)`,
		`CREATE INDEX IF NOT EXISTS idx_contracts_type ON contracts(contract_type)`,
		`CREATE INDEX IF NOT EXISTS idx_contracts_org ON contracts(organization_id)`,
		`CREATE INDEX IF NOT EXISTS idx_contracts_created_by ON contracts(created_by)`,
		`CREATE INDEX IF NOT EXISTS idx_workflows_contract ON workflows(contract_id)`,
		`CREATE INDEX IF NOT EXISTS idx_workflows_created_at ON workflows(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_workflow_steps_workflow ON workflow_steps(workflow_id)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_contract ON documents(contract_id)`,
		`CREATE INDEX IF NOT EXISTS idx_users_org ON users(organization_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_report_runs_report ON report_runs(report_id)`,
		`CREATE INDEX IF NOT EXISTS idx_dashboard_widgets_dashboard ON dashboard_widgets(dashboard_id)`,
	}

	for _, idx := range indexes {
		if _, err := db.conn.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", idx, err)
		}
	}

	return nil
}
