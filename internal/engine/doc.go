// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

/*
Package engine runs analytics requests end to end: compile, consult the
result cache, execute on a miss, fold totals.

The HTTP handlers, the report scheduler and widget data endpoints all go
through Engine so a request compiles, caches and records metrics the same
way wherever it comes from.

	eng := engine.New(compiler, stack.Executor,
	    engine.WithBackend(stack.Backend()),
	    engine.WithCache(store, cfg.Cache.TTL),
	    engine.WithMaxLimit(cfg.Analytics.MaxLimit),
	)
	result, err := eng.Execute(ctx, req)

Compilation always happens fresh. Cache keys are derived from the compiled
SQL and parameters, so two requests that compile to the same statement
share an entry. Cache failures are logged and counted but never fail a
request.

Cached rows are stored as JSON. Numbers read back from the cache decode as
float64 and timestamps as RFC 3339 strings; totals are recomputed from the
decoded rows.
*/
package engine
