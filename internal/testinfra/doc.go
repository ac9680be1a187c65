// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

// Package testinfra provides test infrastructure for integration testing with containers.
//
// The MySQL container backs the sqlx executor tests against a real MySQL
// dialect; the Redis container backs the shared result cache tests. Both
// files build only with the integration tag:
//
//	go test -tags integration ./internal/executor/... ./internal/cache/...
//
//	func TestRedisStore(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    redis, err := testinfra.NewRedisContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, redis)
//	    store, err := cache.NewRedisStore(ctx, redis.Addr, "", 0)
//	    // ...
//	}
//
// Tests are skipped when Docker is unavailable or -short is set.
package testinfra
