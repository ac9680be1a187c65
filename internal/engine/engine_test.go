// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/kontrakpro/internal/analytics"
	"github.com/tomtom215/kontrakpro/internal/cache"
	"github.com/tomtom215/kontrakpro/internal/config"
	"github.com/tomtom215/kontrakpro/internal/executor"
)

func statusRequest() *analytics.Request {
	return &analytics.Request{
		Metrics:    []analytics.Metric{{Type: analytics.MetricCount, Field: "contracts.id"}},
		Dimensions: []analytics.Dimension{{Type: analytics.DimensionContractStatus, Field: "contracts.status"}},
	}
}

// countingExecutor returns fixed rows and counts calls.
func countingExecutor(calls *int32, rows []analytics.Row, err error) executor.Executor {
	return executor.Func(func(_ context.Context, _ string, _ ...interface{}) ([]analytics.Row, error) {
		atomic.AddInt32(calls, 1)
		return rows, err
	})
}

func TestExecute(t *testing.T) {
	var calls int32
	rows := []analytics.Row{
		{"contracts_status": "active", "count_contracts_id": int64(3)},
		{"contracts_status": "draft", "count_contracts_id": int64(2)},
	}
	eng := New(analytics.NewCompiler(), countingExecutor(&calls, rows, nil))

	result, err := eng.Execute(context.Background(), statusRequest())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Metadata.RowCount != 2 {
		t.Errorf("Expected 2 rows, got %d", result.Metadata.RowCount)
	}
	if result.Metadata.Cached {
		t.Error("Expected uncached result")
	}
	if got := result.Totals["count_contracts_id"]; got != int64(5) {
		t.Errorf("Expected totals count 5, got %v", got)
	}
	if len(result.Metadata.Columns) != 2 || result.Metadata.Columns[0] != "contracts_status" {
		t.Errorf("Unexpected columns: %v", result.Metadata.Columns)
	}
	if calls != 1 {
		t.Errorf("Expected 1 executor call, got %d", calls)
	}
}

func TestExecute_CacheHit(t *testing.T) {
	var calls int32
	rows := []analytics.Row{
		{"contracts_status": "active", "count_contracts_id": int64(3)},
		{"contracts_status": "draft", "count_contracts_id": int64(2)},
	}
	store := cache.NewMemoryStore(time.Minute)
	defer store.Close()

	eng := New(analytics.NewCompiler(), countingExecutor(&calls, rows, nil), WithCache(store, time.Minute))
	ctx := context.Background()

	if _, err := eng.Execute(ctx, statusRequest()); err != nil {
		t.Fatalf("first Execute failed: %v", err)
	}
	result, err := eng.Execute(ctx, statusRequest())
	if err != nil {
		t.Fatalf("second Execute failed: %v", err)
	}

	if calls != 1 {
		t.Errorf("Expected 1 executor call, got %d", calls)
	}
	if !result.Metadata.Cached {
		t.Error("Expected cached result")
	}
	if result.Metadata.RowCount != 2 {
		t.Errorf("Expected 2 cached rows, got %d", result.Metadata.RowCount)
	}
	// JSON-decoded numbers come back as float64; integral totals fold to int64.
	if got := result.Totals["count_contracts_id"]; got != int64(5) {
		t.Errorf("Expected totals count 5, got %v (%T)", got, got)
	}
}

func TestExecute_TimePeriodCacheHit(t *testing.T) {
	var calls int32
	store := cache.NewMemoryStore(time.Minute)
	defer store.Close()

	now := time.Date(2025, 6, 30, 12, 0, 1, 0, time.UTC)
	clock := func() time.Time {
		now = now.Add(250 * time.Millisecond)
		return now
	}
	compiler := analytics.NewCompiler(analytics.WithClock(clock), analytics.WithWindowGranularity(time.Minute))
	eng := New(compiler, countingExecutor(&calls, []analytics.Row{{"count_contracts_id": int64(7)}}, nil),
		WithCache(store, time.Minute))

	req := func() *analytics.Request {
		return &analytics.Request{
			Metrics:    []analytics.Metric{{Type: analytics.MetricCount, Field: "contracts.id"}},
			TimePeriod: analytics.PeriodMonth,
		}
	}
	ctx := context.Background()
	if _, err := eng.Execute(ctx, req()); err != nil {
		t.Fatalf("first Execute failed: %v", err)
	}
	result, err := eng.Execute(ctx, req())
	if err != nil {
		t.Fatalf("second Execute failed: %v", err)
	}

	if calls != 1 {
		t.Errorf("Expected 1 executor call, got %d", calls)
	}
	if !result.Metadata.Cached {
		t.Error("Expected cached result for repeated time-period request")
	}
}

func TestExecute_DifferentParamsMiss(t *testing.T) {
	var calls int32
	store := cache.NewMemoryStore(time.Minute)
	defer store.Close()
	eng := New(analytics.NewCompiler(), countingExecutor(&calls, []analytics.Row{{"count_contracts_id": int64(1)}}, nil),
		WithCache(store, time.Minute))

	for _, status := range []string{"active", "draft"} {
		req := &analytics.Request{
			Metrics: []analytics.Metric{{Type: analytics.MetricCount, Field: "contracts.id"}},
			Filters: []analytics.Filter{{Field: "contracts.status", Operator: analytics.OpEq, Value: status}},
		}
		if _, err := eng.Execute(context.Background(), req); err != nil {
			t.Fatalf("Execute(%s) failed: %v", status, err)
		}
	}
	if calls != 2 {
		t.Errorf("Expected 2 executor calls, got %d", calls)
	}
}

func TestExecute_ValidationError(t *testing.T) {
	var calls int32
	eng := New(analytics.NewCompiler(), countingExecutor(&calls, nil, nil))

	_, err := eng.Execute(context.Background(), &analytics.Request{})
	if !analytics.IsValidationError(err) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	if !errors.Is(err, analytics.ErrNoMetrics) {
		t.Errorf("Expected ErrNoMetrics, got %v", err)
	}
	if calls != 0 {
		t.Errorf("Expected no executor calls, got %d", calls)
	}
}

func TestExecute_ExecutorError(t *testing.T) {
	var calls int32
	boom := errors.New("table contracts does not exist")
	eng := New(analytics.NewCompiler(), countingExecutor(&calls, nil, boom))

	_, err := eng.Execute(context.Background(), statusRequest())
	if !errors.Is(err, boom) {
		t.Fatalf("Expected wrapped executor error, got %v", err)
	}
	if analytics.IsValidationError(err) {
		t.Error("Executor error must not be a validation error")
	}
}

func TestExecute_ErrorsAreNotCached(t *testing.T) {
	var calls int32
	store := cache.NewMemoryStore(time.Minute)
	defer store.Close()
	eng := New(analytics.NewCompiler(), countingExecutor(&calls, nil, errors.New("boom")), WithCache(store, time.Minute))

	for i := 0; i < 2; i++ {
		if _, err := eng.Execute(context.Background(), statusRequest()); err == nil {
			t.Fatal("Expected error")
		}
	}
	if calls != 2 {
		t.Errorf("Expected 2 executor calls, got %d", calls)
	}
}

func TestExecute_NoExecutor(t *testing.T) {
	eng := New(nil, nil)
	_, err := eng.Execute(context.Background(), statusRequest())
	if !errors.Is(err, executor.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
}

func TestExecute_HasMore(t *testing.T) {
	var calls int32
	rows := []analytics.Row{{"contracts_status": "a", "count_contracts_id": int64(1)}}
	eng := New(analytics.NewCompiler(), countingExecutor(&calls, rows, nil))

	req := statusRequest()
	limit := 1
	req.Limit = &limit

	result, err := eng.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Metadata.HasMore {
		t.Error("Expected hasMore when row count equals limit")
	}
}

func TestClampLimit(t *testing.T) {
	eng := New(nil, nil, WithMaxLimit(100))

	tests := []struct {
		name  string
		limit *int
		want  *int
	}{
		{"missing", nil, nil},
		{"under", intPtr(10), intPtr(10)},
		{"equal", intPtr(100), intPtr(100)},
		{"over", intPtr(5000), intPtr(100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := statusRequest()
			req.Limit = tt.limit
			eng.ClampLimit(req)
			switch {
			case tt.want == nil && req.Limit != nil:
				t.Errorf("Expected nil limit, got %d", *req.Limit)
			case tt.want != nil && (req.Limit == nil || *req.Limit != *tt.want):
				t.Errorf("Expected limit %d, got %v", *tt.want, req.Limit)
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	eng := New(nil, nil)
	if eng.MaxLimit() != DefaultMaxLimit {
		t.Errorf("Expected max limit %d, got %d", DefaultMaxLimit, eng.MaxLimit())
	}
	if eng.Backend() != executor.BackendDuckDB {
		t.Errorf("Expected duckdb backend, got %s", eng.Backend())
	}
}

func TestNewCompiler(t *testing.T) {
	tests := []struct {
		name       string
		dialect    string
		backend    string
		validation bool
		wantSQL    string
		wantErr    bool
	}{
		{
			name:    "follows mysql backend",
			backend: "mysql",
			wantSQL: "SELECT DATE_FORMAT(contracts.created_at, '%Y') AS contracts_created_at, COUNT(contracts.id) AS count_contracts_id FROM contracts GROUP BY contracts_created_at ORDER BY contracts_created_at ASC",
		},
		{
			name:    "dialect override",
			dialect: "sqlite",
			backend: "mysql",
			wantSQL: "SELECT strftime('%Y', contracts.created_at) AS contracts_created_at, COUNT(contracts.id) AS count_contracts_id FROM contracts GROUP BY contracts_created_at ORDER BY contracts_created_at ASC",
		},
		{
			name:    "unknown dialect",
			dialect: "oracle",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.Analytics.Dialect = tt.dialect
			cfg.Executor.Backend = tt.backend
			c, err := NewCompiler(cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewCompiler failed: %v", err)
			}
			q, err := c.Compile(&analytics.Request{
				Metrics:    []analytics.Metric{{Type: analytics.MetricCount, Field: "contracts.id"}},
				Dimensions: []analytics.Dimension{{Type: analytics.DimensionYear, Field: "contracts.created_at"}},
			})
			if err != nil {
				t.Fatalf("Compile failed: %v", err)
			}
			if q.SQL != tt.wantSQL {
				t.Errorf("Expected SQL %q, got %q", tt.wantSQL, q.SQL)
			}
		})
	}
}

func TestNewCompiler_SchemaValidation(t *testing.T) {
	cfg := &config.Config{}
	cfg.Analytics.SchemaValidation = true
	c, err := NewCompiler(cfg)
	if err != nil {
		t.Fatalf("NewCompiler failed: %v", err)
	}
	_, err = c.Compile(&analytics.Request{
		Metrics: []analytics.Metric{{Type: analytics.MetricCount, Field: "contracts.nope"}},
	})
	if !errors.Is(err, analytics.ErrUnknownField) {
		t.Errorf("Expected ErrUnknownField, got %v", err)
	}
}

func TestCompileErrorReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&analytics.ValidationError{Err: analytics.ErrNoMetrics}, "no_metrics"},
		{&analytics.ValidationError{Err: analytics.ErrUnknownField}, "unknown_field"},
		{errors.New("something else"), "other"},
	}
	for _, tt := range tests {
		if got := compileErrorReason(tt.err); got != tt.want {
			t.Errorf("Expected %s, got %s", tt.want, got)
		}
	}
}

func intPtr(i int) *int { return &i }
