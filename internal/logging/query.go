// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package logging

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// maxLoggedSQL bounds the SQL text written to logs.
const maxLoggedSQL = 512

// QueryLogger logs analytics query execution. Bound parameter values are
// never logged, only their count.
type QueryLogger struct {
	logger zerolog.Logger
}

// NewQueryLogger creates a query logger over the global logger.
func NewQueryLogger() *QueryLogger {
	return &QueryLogger{logger: WithComponent("executor")}
}

// NewQueryLoggerWithLogger creates a query logger over a custom logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewQueryLoggerWithLogger(logger zerolog.Logger) *QueryLogger {
	return &QueryLogger{logger: logger.With().Str("component", "executor").Logger()}
}

// Executed records a finished query. Failures log at warn, everything else
// at debug.
func (q *QueryLogger) Executed(ctx context.Context, sql string, params int, rows int, elapsed time.Duration, err error) {
	logCtx := q.logger.With()
	if id := RequestIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("request_id", id)
	}
	if id := CorrelationIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("correlation_id", id)
	}
	logger := logCtx.Logger()

	var event *zerolog.Event
	if err != nil {
		event = logger.Warn().Err(err)
	} else {
		event = logger.Debug().Int("rows", rows)
	}

	event.
		Str("sql", TruncateSQL(sql)).
		Int("params", params).
		Dur("elapsed", elapsed).
		Msg("analytics query executed")
}

// TruncateSQL shortens long statements for log output.
func TruncateSQL(sql string) string {
	if len(sql) <= maxLoggedSQL {
		return sql
	}
	return sql[:maxLoggedSQL] + "..."
}
