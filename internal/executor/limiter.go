// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package executor

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/tomtom215/kontrakpro/internal/analytics"
	"github.com/tomtom215/kontrakpro/internal/metrics"
)

// Limited throttles queries with a token bucket. Callers wait for a token;
// if the request context ends first the query is not run.
type Limited struct {
	next    Executor
	limiter *rate.Limiter
}

// NewLimited allows qps queries per second with the given burst.
func NewLimited(next Executor, qps float64, burst int) *Limited {
	if burst < 1 {
		burst = 1
	}
	return &Limited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(qps), burst),
	}
}

// Query implements Executor.
func (l *Limited) Query(ctx context.Context, sql string, params ...interface{}) ([]analytics.Row, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		metrics.ExecutorLimiterRejections.Inc()
		return nil, fmt.Errorf("%w: rate limit wait: %v", ErrUnavailable, err)
	}
	return l.next.Query(ctx, sql, params...)
}
