// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package executor

import (
	"context"
	"errors"

	"github.com/tomtom215/kontrakpro/internal/analytics"
)

// ErrUnavailable is returned when a query is rejected without reaching the
// database: the circuit breaker is open or the rate limiter wait was cut
// short by the request context.
var ErrUnavailable = errors.New("analytics executor unavailable")

// Executor runs compiled analytics SQL with "?" placeholders and returns one
// map per result row keyed by column alias.
type Executor interface {
	Query(ctx context.Context, sql string, params ...interface{}) ([]analytics.Row, error)
}

// Func adapts a function to Executor.
type Func func(ctx context.Context, sql string, params ...interface{}) ([]analytics.Row, error)

// Query implements Executor.
func (f Func) Query(ctx context.Context, sql string, params ...interface{}) ([]analytics.Row, error) {
	return f(ctx, sql, params...)
}
