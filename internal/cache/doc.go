// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

/*
Package cache provides the analytics result cache.

# Backends

Store is implemented by:
  - MemoryStore: in-process TTL Cache, swept every five minutes
  - RedisStore: shared across API instances (go-redis)
  - BadgerStore: local disk, survives restarts (Badger entry TTL)
  - NopStore: caching disabled

Open selects one from config.CacheConfig.Backend.

# Keys

Results are keyed by QueryKey(backend, sql, params). Compilation always runs;
only execution is skipped on a hit. Requests using a relative time period
bind the current time, so they rarely repeat a key; explicit date ranges do.

	key := cache.QueryKey("duckdb", q.SQL, q.Params)
	var res analytics.Result
	if ok, err := cache.GetJSON(ctx, store, key, &res); err == nil && ok {
	    res.Metadata.Cached = true
	    return &res, nil
	}

# Thread Safety

All backends are safe for concurrent use.
*/
package cache
