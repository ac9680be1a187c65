// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/kontrakpro/internal/analytics"
	"github.com/tomtom215/kontrakpro/internal/cache"
	"github.com/tomtom215/kontrakpro/internal/config"
	"github.com/tomtom215/kontrakpro/internal/executor"
	"github.com/tomtom215/kontrakpro/internal/logging"
	"github.com/tomtom215/kontrakpro/internal/metrics"
)

// DefaultMaxLimit caps request limits when no maximum is configured.
const DefaultMaxLimit = 10000

// Engine compiles and executes analytics requests. It is safe for
// concurrent use.
type Engine struct {
	compiler *analytics.Compiler
	exec     executor.Executor
	backend  string
	store    cache.Store
	ttl      time.Duration
	maxLimit int
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache enables result caching. A nil store disables it.
func WithCache(store cache.Store, ttl time.Duration) Option {
	return func(e *Engine) {
		if store != nil {
			e.store = store
		}
		e.ttl = ttl
	}
}

// WithBackend names the executor backend for cache keys and metrics.
func WithBackend(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.backend = name
		}
	}
}

// WithMaxLimit sets the ceiling applied by ClampLimit.
func WithMaxLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxLimit = n
		}
	}
}

// New creates an engine. Without WithCache every request goes to exec.
func New(compiler *analytics.Compiler, exec executor.Executor, opts ...Option) *Engine {
	if compiler == nil {
		compiler = analytics.NewCompiler()
	}
	e := &Engine{
		compiler: compiler,
		exec:     exec,
		backend:  executor.BackendDuckDB,
		store:    cache.NopStore{},
		maxLimit: DefaultMaxLimit,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewCompiler builds the compiler described by cfg. The dialect follows the
// executor backend unless analytics.dialect overrides it.
func NewCompiler(cfg *config.Config) (*analytics.Compiler, error) {
	name := cfg.Analytics.Dialect
	if name == "" {
		name = cfg.Executor.Backend
	}
	dialect, err := analytics.DialectByName(name)
	if err != nil {
		return nil, err
	}
	opts := []analytics.Option{
		analytics.WithDialect(dialect),
		analytics.WithWindowGranularity(cfg.Analytics.WindowGranularity),
	}
	if cfg.Analytics.SchemaValidation {
		opts = append(opts, analytics.WithFieldValidator(analytics.DefaultAllowList()))
	}
	return analytics.NewCompiler(opts...), nil
}

// Backend returns the executor backend name.
func (e *Engine) Backend() string {
	return e.backend
}

// MaxLimit returns the configured limit ceiling.
func (e *Engine) MaxLimit() int {
	return e.maxLimit
}

// ClampLimit caps req.Limit at the configured maximum. The request is
// modified in place; a missing limit is left missing.
func (e *Engine) ClampLimit(req *analytics.Request) {
	if req == nil || req.Limit == nil {
		return
	}
	if *req.Limit > e.maxLimit {
		limit := e.maxLimit
		req.Limit = &limit
	}
}

// Compile compiles req, counting rejected requests by reason.
func (e *Engine) Compile(req *analytics.Request) (*analytics.Query, error) {
	q, err := e.compiler.Compile(req)
	if err != nil {
		metrics.RecordCompileError(compileErrorReason(err))
		return nil, err
	}
	return q, nil
}

// Execute compiles req, serves it from the cache when possible and
// otherwise runs it on the executor. Validation errors come back as
// *analytics.ValidationError; execution errors are wrapped.
func (e *Engine) Execute(ctx context.Context, req *analytics.Request) (*analytics.Result, error) {
	q, err := e.Compile(req)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, req, q)
}

// Run executes an already compiled query.
func (e *Engine) Run(ctx context.Context, req *analytics.Request, q *analytics.Query) (*analytics.Result, error) {
	if e.exec == nil {
		return nil, executor.ErrUnavailable
	}

	start := e.now()
	key := cache.QueryKey(e.backend, q.SQL, q.Params)

	if rows, ok := e.lookup(ctx, key); ok {
		result := analytics.NewResult(req, q, rows, 0)
		result.Metadata.Cached = true
		return result, nil
	}

	rows, err := e.exec.Query(ctx, q.SQL, q.Params...)
	if err != nil {
		return nil, fmt.Errorf("execute analytics query: %w", err)
	}

	result := analytics.NewResult(req, q, rows, e.now().Sub(start))
	e.save(ctx, key, rows)
	return result, nil
}

func (e *Engine) lookup(ctx context.Context, key string) ([]analytics.Row, bool) {
	if _, disabled := e.store.(cache.NopStore); disabled {
		return nil, false
	}
	var rows []analytics.Row
	hit, err := cache.GetJSON(ctx, e.store, key, &rows)
	if err != nil {
		metrics.RecordCacheError(e.store.Name(), "get")
		logging.Ctx(ctx).Warn().Err(err).Str("cache", e.store.Name()).Msg("Result cache lookup failed")
		return nil, false
	}
	metrics.RecordCacheLookup(e.store.Name(), hit)
	return rows, hit
}

func (e *Engine) save(ctx context.Context, key string, rows []analytics.Row) {
	if _, disabled := e.store.(cache.NopStore); disabled {
		return
	}
	if err := cache.SetJSON(ctx, e.store, key, rows, e.ttl); err != nil {
		metrics.RecordCacheError(e.store.Name(), "set")
		logging.Ctx(ctx).Warn().Err(err).Str("cache", e.store.Name()).Msg("Result cache store failed")
	}
}

var compileErrorReasons = []struct {
	err    error
	reason string
}{
	{analytics.ErrNoMetrics, "no_metrics"},
	{analytics.ErrUnsupportedMetric, "unsupported_metric"},
	{analytics.ErrUnsupportedDimension, "unsupported_dimension"},
	{analytics.ErrUnsupportedOperator, "unsupported_operator"},
	{analytics.ErrUnsupportedTimePeriod, "unsupported_time_period"},
	{analytics.ErrInvalidFilterValue, "invalid_filter_value"},
	{analytics.ErrDuplicateAlias, "duplicate_alias"},
	{analytics.ErrUnknownField, "unknown_field"},
}

// compileErrorReason maps a compile error to a low-cardinality label.
func compileErrorReason(err error) string {
	for _, r := range compileErrorReasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return "other"
}
