// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

/*
Package config provides centralized configuration management for KontrakPro.

# Configuration Sources

Configuration is layered with Koanf v2, lowest priority first:

 1. Built-in defaults (defaultConfig)
 2. Optional YAML file (CONFIG_PATH, config.yaml, /etc/kontrakpro/config.yaml)
 3. Environment variables, mapped explicitly by envTransformFunc

Unmapped environment variables are ignored.

# Sections

  - server: HTTP bind address, port, timeout, environment
  - database: DuckDB path, memory limit, threads, demo seed data
  - executor: analytics backend (duckdb or mysql), pool, timeout, breaker, rate limit
  - analytics: SQL dialect, schema allow-list, maximum row limit
  - cache: result cache backend (none, memory, redis, badger) and TTL
  - scheduler: scheduled report runs and artifact directory
  - security: auth mode (none, jwt), CORS, HTTP rate limits, default role
  - logging: zerolog level, format, caller

# Environment Variables

Server:
  - HTTP_HOST, HTTP_PORT, HTTP_TIMEOUT, ENVIRONMENT

Database:
  - DUCKDB_PATH, DUCKDB_MAX_MEMORY, DUCKDB_THREADS, SEED_DATA

Executor:
  - EXECUTOR_BACKEND: duckdb (default) or mysql
  - MYSQL_DSN: go-sql-driver DSN, required for mysql
  - EXECUTOR_MAX_OPEN_CONNS, EXECUTOR_QUERY_TIMEOUT
  - EXECUTOR_RATE_LIMIT_QPS, EXECUTOR_RATE_LIMIT_BURST
  - EXECUTOR_BREAKER_MAX_FAILURES, EXECUTOR_BREAKER_TIMEOUT

Analytics:
  - ANALYTICS_DIALECT: duckdb, sqlite or mysql (default: follows backend)
  - ANALYTICS_SCHEMA_VALIDATION: reject unknown table.column fields
  - ANALYTICS_MAX_LIMIT: upper bound applied to request limits
  - ANALYTICS_WINDOW_GRANULARITY: time-period window rounding (default: 1m)

Cache:
  - CACHE_BACKEND, CACHE_TTL, REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, CACHE_BADGER_PATH

Scheduler:
  - SCHEDULER_ENABLED, SCHEDULER_CHECK_INTERVAL, SCHEDULER_MAX_CONCURRENT,
    SCHEDULER_EXEC_TIMEOUT, SCHEDULER_OUTPUT_DIR

Security:
  - AUTH_MODE, JWT_SECRET, CORS_ORIGINS, RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW,
    DISABLE_RATE_LIMIT, DEFAULT_ROLE

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Usage

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    log.Fatal(err)
	}

Config is immutable after loading and safe for concurrent reads.
*/
package config
