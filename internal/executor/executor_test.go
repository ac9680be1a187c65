// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package executor

import (
	"context"
	"errors"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/jmoiron/sqlx"

	"github.com/tomtom215/kontrakpro/internal/analytics"
	"github.com/tomtom215/kontrakpro/internal/config"
)

func setupDuckDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("duckdb", ":memory:?autoinstall_known_extensions=false&autoload_known_extensions=false")
	if err != nil {
		t.Fatalf("open duckdb: %v", err)
	}
	// one connection keeps the in-memory database shared
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	stmts := []string{
		`CREATE TABLE contracts (id VARCHAR PRIMARY KEY, status VARCHAR, value BIGINT, amount DOUBLE, created_at TIMESTAMP)`,
		`INSERT INTO contracts VALUES
			('c1', 'active', 100, 10.5, TIMESTAMP '2025-01-10 09:00:00'),
			('c2', 'active', 250, 20.25, TIMESTAMP '2025-02-11 09:00:00'),
			('c3', 'draft', 50, NULL, TIMESTAMP '2025-02-12 09:00:00')`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("setup %q: %v", stmt, err)
		}
	}
	return db
}

func TestSQL_Query(t *testing.T) {
	exec := NewSQL(setupDuckDB(t), BackendDuckDB)

	rows, err := exec.Query(context.Background(),
		"SELECT contracts.status AS contracts_status, COUNT(contracts.id) AS count_contracts_id, SUM(contracts.value) AS sum_contracts_value "+
			"FROM contracts WHERE contracts.status IN (?, ?) GROUP BY contracts_status ORDER BY contracts_status ASC",
		"active", "draft")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}

	first := rows[0]
	if first["contracts_status"] != "active" {
		t.Errorf("Expected active, got %v", first["contracts_status"])
	}
	if first["count_contracts_id"] != int64(2) {
		t.Errorf("Expected int64(2), got %#v", first["count_contracts_id"])
	}
	// SUM(BIGINT) is HUGEINT in DuckDB; normalized to int64
	if first["sum_contracts_value"] != int64(350) {
		t.Errorf("Expected int64(350), got %#v", first["sum_contracts_value"])
	}
}

func TestSQL_QueryEmptyResult(t *testing.T) {
	exec := NewSQL(setupDuckDB(t), BackendDuckDB)

	rows, err := exec.Query(context.Background(), "SELECT contracts.id AS id FROM contracts WHERE contracts.status = ?", "terminated")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Errorf("Expected empty non-nil slice, got %#v", rows)
	}
}

func TestSQL_QueryNullAndDouble(t *testing.T) {
	exec := NewSQL(setupDuckDB(t), BackendDuckDB)

	rows, err := exec.Query(context.Background(),
		"SELECT contracts.id AS id, contracts.amount AS amount FROM contracts ORDER BY id")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if rows[0]["amount"] != 10.5 {
		t.Errorf("Expected 10.5, got %#v", rows[0]["amount"])
	}
	if rows[2]["amount"] != nil {
		t.Errorf("Expected nil for NULL, got %#v", rows[2]["amount"])
	}
}

func TestSQL_QueryError(t *testing.T) {
	exec := NewSQL(setupDuckDB(t), BackendDuckDB)

	_, err := exec.Query(context.Background(), "SELECT missing.id FROM missing")
	if err == nil {
		t.Fatal("Expected error for unknown table")
	}
}

func TestSQL_QueryTimeout(t *testing.T) {
	exec := NewSQL(setupDuckDB(t), BackendDuckDB, WithQueryTimeout(time.Nanosecond))
	time.Sleep(time.Millisecond)

	if _, err := exec.Query(context.Background(), "SELECT COUNT(*) AS n FROM range(100000000)"); err == nil {
		t.Error("Expected timeout error")
	}
}

type fakeDecimal struct{ v float64 }

func (d *fakeDecimal) Float64() float64 { return d.v }

func TestNormalizeValue(t *testing.T) {
	huge, _ := new(big.Int).SetString("100000000000000000000", 10)

	tests := []struct {
		name   string
		value  interface{}
		dbType string
		want   interface{}
	}{
		{"nil", nil, "BIGINT", nil},
		{"mysql decimal bytes", []byte("123.50"), "DECIMAL", 123.5},
		{"mysql integral decimal bytes", []byte("42"), "NEWDECIMAL", int64(42)},
		{"mysql unsigned bigint bytes", []byte("7"), "UNSIGNED BIGINT", int64(7)},
		{"mysql varchar bytes", []byte("active"), "VARCHAR", "active"},
		{"mysql numeric-looking varchar", []byte("007"), "VARCHAR", "007"},
		{"hugeint fits", big.NewInt(350), "HUGEINT", int64(350)},
		{"hugeint overflow", huge, "HUGEINT", 1e20},
		{"driver decimal pointer method", fakeDecimal{v: 2.75}, "DECIMAL(18,2)", 2.75},
		{"string passthrough", "x", "VARCHAR", "x"},
		{"int64 passthrough", int64(5), "BIGINT", int64(5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeValue(tt.value, tt.dbType); got != tt.want {
				t.Errorf("Expected %#v, got %#v", tt.want, got)
			}
		})
	}
}

func TestNormalizeValue_TimePassthrough(t *testing.T) {
	ts := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	if got := normalizeValue(ts, "DATE"); got != ts {
		t.Errorf("Expected time passthrough, got %#v", got)
	}
}

func failingExecutor(calls *int32, err error) Executor {
	return Func(func(ctx context.Context, sql string, params ...interface{}) ([]analytics.Row, error) {
		atomic.AddInt32(calls, 1)
		if err != nil {
			return nil, err
		}
		return []analytics.Row{{"n": int64(1)}}, nil
	})
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	var calls int32
	b := NewBreaker(failingExecutor(&calls, errors.New("connection refused")), BreakerSettings{
		Name:        "test-open",
		MaxFailures: 3,
		Timeout:     time.Minute,
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := b.Query(ctx, "SELECT 1"); err == nil || errors.Is(err, ErrUnavailable) {
			t.Fatalf("call %d: expected pass-through failure, got %v", i, err)
		}
	}
	if b.State() != "open" {
		t.Errorf("Expected open, got %s", b.State())
	}

	_, err := b.Query(ctx, "SELECT 1")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable while open, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected open circuit to skip the executor, got %d calls", calls)
	}
}

func TestBreaker_ContextErrorsDoNotTrip(t *testing.T) {
	var calls int32
	b := NewBreaker(failingExecutor(&calls, context.Canceled), BreakerSettings{
		Name:        "test-ctx",
		MaxFailures: 1,
		Timeout:     time.Minute,
	})

	for i := 0; i < 3; i++ {
		if _, err := b.Query(context.Background(), "SELECT 1"); !errors.Is(err, context.Canceled) {
			t.Fatalf("Expected context.Canceled, got %v", err)
		}
	}
	if b.State() != "closed" {
		t.Errorf("Expected closed, got %s", b.State())
	}
}

func TestBreaker_Success(t *testing.T) {
	var calls int32
	b := NewBreaker(failingExecutor(&calls, nil), BreakerSettings{Name: "test-ok"})

	rows, err := b.Query(context.Background(), "SELECT 1")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(rows) != 1 || rows[0]["n"] != int64(1) {
		t.Errorf("Expected passthrough rows, got %v", rows)
	}
}

func TestLimited(t *testing.T) {
	var calls int32
	l := NewLimited(failingExecutor(&calls, nil), 0.001, 1)

	if _, err := l.Query(context.Background(), "SELECT 1"); err != nil {
		t.Fatalf("Expected burst token to allow first query, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := l.Query(ctx, "SELECT 1")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable when the wait exceeds the deadline, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 executed query, got %d", calls)
	}
}

func TestOpen(t *testing.T) {
	db := setupDuckDB(t)
	ctx := context.Background()

	stack, err := Open(ctx, &config.ExecutorConfig{
		Backend:            BackendDuckDB,
		RateLimitQPS:       100,
		RateLimitBurst:     10,
		BreakerMaxFailures: 5,
		BreakerTimeout:     time.Second,
	}, db.DB)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer stack.Close()

	if stack.Backend() != BackendDuckDB {
		t.Errorf("Expected duckdb, got %s", stack.Backend())
	}
	if _, ok := stack.Executor.(*Limited); !ok {
		t.Errorf("Expected limiter at the head of the chain, got %T", stack.Executor)
	}

	rows, err := stack.Executor.Query(ctx, "SELECT COUNT(contracts.id) AS n FROM contracts")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if rows[0]["n"] != int64(3) {
		t.Errorf("Expected 3, got %#v", rows[0]["n"])
	}
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()

	if _, err := Open(ctx, &config.ExecutorConfig{Backend: BackendDuckDB}, nil); err == nil {
		t.Error("Expected error without a DuckDB handle")
	}
	if _, err := Open(ctx, &config.ExecutorConfig{Backend: "postgres"}, nil); err == nil {
		t.Error("Expected error for unknown backend")
	}
}
