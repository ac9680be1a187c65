// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

/*
Package main is the entry point for the KontrakPro analytics server.

KontrakPro turns structured analytics requests (metrics, dimensions,
filters, time ranges) over the contract lifecycle data model into
parameterized SQL, executes them against DuckDB or MySQL, and serves the
results over a REST API together with saved reports, dashboards, scheduled
report runs and an audit trail.

# Application Architecture

The server runs its long-lived components under a Suture v4 supervisor:

	RootSupervisor ("kontrakpro")
	├── BackgroundSupervisor ("background-layer")
	│   ├── Audit retention (audit-retention)
	│   └── Report scheduler (report-scheduler, when enabled)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (chi router)

Component initialization order:

 1. Configuration: Koanf v2 with defaults, config.yaml and environment variables
 2. Logging: zerolog with JSON/console output modes
 3. Database: DuckDB application store, optionally seeded with demo data
 4. Executor: rate limiter and circuit breaker over the DuckDB or MySQL backend
 5. Cache: none, in-process, Redis or BadgerDB result cache
 6. Engine: analytics compiler with the configured SQL dialect
 7. Audit: DuckDB or in-memory store behind an async logger
 8. Auth: JWT bearer tokens or no-auth mode, Casbin role checks
 9. Supervisor Tree and HTTP Server

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains
in-flight requests for up to 10 seconds, the scheduler waits for running
reports, and the audit logger flushes buffered events before the database
closes.

# Example Usage

Development with demo data and no authentication:

	export AUTH_MODE=none
	export DEFAULT_ROLE=admin
	export SEED_DATA=true
	./kontrakpro

Production against MySQL with a Redis cache:

	export JWT_SECRET=$(openssl rand -base64 32)
	export EXECUTOR_BACKEND=mysql
	export MYSQL_DSN='kontrak:secret@tcp(mysql:3306)/kontrakpro?parseTime=true'
	export CACHE_BACKEND=redis
	export REDIS_ADDR=redis:6379
	./kontrakpro
*/
package main
