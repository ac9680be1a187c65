// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tomtom215/kontrakpro/internal/analytics"
	"github.com/tomtom215/kontrakpro/internal/logging"
	"github.com/tomtom215/kontrakpro/internal/metrics"
)

// SQL executes queries through sqlx against DuckDB or MySQL.
type SQL struct {
	db      *sqlx.DB
	backend string
	timeout time.Duration
	log     *logging.QueryLogger
}

// SQLOption configures an SQL executor.
type SQLOption func(*SQL)

// WithQueryTimeout bounds each query. Zero leaves the request context as is.
func WithQueryTimeout(d time.Duration) SQLOption {
	return func(s *SQL) {
		s.timeout = d
	}
}

// WithQueryLogger replaces the default executor query logger.
func WithQueryLogger(l *logging.QueryLogger) SQLOption {
	return func(s *SQL) {
		if l != nil {
			s.log = l
		}
	}
}

// NewSQL wraps an open sqlx database. backend names the engine for logs,
// metrics and cache keys.
func NewSQL(db *sqlx.DB, backend string, opts ...SQLOption) *SQL {
	s := &SQL{
		db:      db,
		backend: backend,
		log:     logging.NewQueryLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the engine name, e.g. "duckdb" or "mysql".
func (s *SQL) Backend() string {
	return s.backend
}

// DB exposes the underlying handle.
func (s *SQL) DB() *sqlx.DB {
	return s.db
}

// Query implements Executor. Values are normalized to JSON-friendly Go types
// (see normalizeValue).
func (s *SQL) Query(ctx context.Context, query string, params ...interface{}) (rows []analytics.Row, err error) {
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		s.log.Executed(ctx, query, len(params), len(rows), elapsed, err)
		metrics.RecordAnalyticsQuery(s.backend, elapsed, len(rows), err)
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := s.db.QueryxContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("execute analytics query: %w", err)
	}
	defer result.Close()

	columnTypes, err := result.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("read column types: %w", err)
	}
	typeNames := make(map[string]string, len(columnTypes))
	for _, ct := range columnTypes {
		typeNames[ct.Name()] = ct.DatabaseTypeName()
	}

	rows = make([]analytics.Row, 0)
	for result.Next() {
		raw := make(map[string]interface{}, len(columnTypes))
		if err := result.MapScan(raw); err != nil {
			return nil, fmt.Errorf("scan analytics row: %w", err)
		}
		row := make(analytics.Row, len(raw))
		for col, v := range raw {
			row[col] = normalizeValue(v, typeNames[col])
		}
		rows = append(rows, row)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("iterate analytics rows: %w", err)
	}

	return rows, nil
}
