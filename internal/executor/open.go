// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package executor

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/jmoiron/sqlx"

	"github.com/tomtom215/kontrakpro/internal/config"
)

// Backend names accepted in config.ExecutorConfig.Backend.
const (
	BackendDuckDB = "duckdb"
	BackendMySQL  = "mysql"
)

// Stack is the configured executor chain plus the pieces callers need to
// report on or close.
type Stack struct {
	Executor Executor
	SQL      *SQL
	Breaker  *Breaker
	// closeDB is set when the stack owns its connection (MySQL).
	closeDB func() error
}

// Backend returns the engine name.
func (s *Stack) Backend() string {
	return s.SQL.Backend()
}

// Close releases an owned MySQL connection. The shared DuckDB handle is
// closed by its owner.
func (s *Stack) Close() error {
	if s.closeDB != nil {
		return s.closeDB()
	}
	return nil
}

// Open builds limiter → breaker → sqlx executor from cfg. duck is the
// application's DuckDB handle and backs the duckdb backend.
func Open(ctx context.Context, cfg *config.ExecutorConfig, duck *sql.DB) (*Stack, error) {
	stack := &Stack{}

	switch cfg.Backend {
	case "", BackendDuckDB:
		if duck == nil {
			return nil, fmt.Errorf("duckdb executor requires an open database")
		}
		stack.SQL = NewSQL(sqlx.NewDb(duck, "duckdb"), BackendDuckDB, WithQueryTimeout(cfg.QueryTimeout))
	case BackendMySQL:
		db, err := connectMySQL(ctx, cfg)
		if err != nil {
			return nil, err
		}
		stack.SQL = NewSQL(db, BackendMySQL, WithQueryTimeout(cfg.QueryTimeout))
		stack.closeDB = db.Close
	default:
		return nil, fmt.Errorf("unknown executor backend %q", cfg.Backend)
	}

	stack.Breaker = NewBreaker(stack.SQL, BreakerSettings{
		Name:        "analytics-" + stack.SQL.Backend(),
		MaxFailures: cfg.BreakerMaxFailures,
		Timeout:     cfg.BreakerTimeout,
		Interval:    cfg.BreakerInterval,
	})
	stack.Executor = stack.Breaker

	if cfg.RateLimitQPS > 0 {
		stack.Executor = NewLimited(stack.Breaker, cfg.RateLimitQPS, cfg.RateLimitBurst)
	}

	return stack, nil
}

func connectMySQL(ctx context.Context, cfg *config.ExecutorConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}
