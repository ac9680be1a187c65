// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/kontrakpro/internal/analytics"
	"github.com/tomtom215/kontrakpro/internal/audit"
	"github.com/tomtom215/kontrakpro/internal/auth"
	"github.com/tomtom215/kontrakpro/internal/authz"
	"github.com/tomtom215/kontrakpro/internal/config"
	"github.com/tomtom215/kontrakpro/internal/database"
	"github.com/tomtom215/kontrakpro/internal/engine"
	"github.com/tomtom215/kontrakpro/internal/executor"
	"github.com/tomtom215/kontrakpro/internal/scheduler"
)

const testJWTSecret = "kontrakpro-api-test-secret-0123456789abcdef"

// testDBSemaphore serializes DuckDB startup across parallel tests.
var testDBSemaphore = make(chan struct{}, 1)

// fakeExecutor returns canned rows and remembers the last query.
type fakeExecutor struct {
	mu      sync.Mutex
	rows    []analytics.Row
	err     error
	lastSQL string
	calls   int
}

func (f *fakeExecutor) Query(_ context.Context, sql string, _ ...interface{}) ([]analytics.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastSQL = sql
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeExecutor) set(rows []analytics.Row, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = rows
	f.err = err
}

func statusRows() []analytics.Row {
	return []analytics.Row{
		{"contracts_status": "active", "count_contracts_id": int64(3)},
		{"contracts_status": "draft", "count_contracts_id": int64(2)},
	}
}

type testEnv struct {
	db         *database.DB
	exec       *fakeExecutor
	auditStore *audit.MemoryStore
	auditLog   *audit.Logger
	jwt        *auth.JWTManager
	server     http.Handler
}

// newTestEnv builds the full router over an in-memory DuckDB store.
// authMode "none" attaches an anonymous subject with defaultRole.
func newTestEnv(t *testing.T, authMode, defaultRole string) *testEnv {
	t.Helper()

	db := setupTestDB(t)

	security := config.SecurityConfig{
		AuthMode:          authMode,
		JWTSecret:         testJWTSecret,
		RateLimitDisabled: true,
		DefaultRole:       defaultRole,
	}
	cfg := &config.Config{Security: security}
	cfg.Scheduler.Enabled = true

	exec := &fakeExecutor{rows: statusRows()}
	eng := engine.New(analytics.NewCompiler(), exec, engine.WithMaxLimit(1000))
	runner := scheduler.NewRunner(db, eng, t.TempDir())

	auditStore := audit.NewMemoryStore(1000)
	auditLog := audit.NewLogger(auditStore, audit.DefaultConfig())
	t.Cleanup(func() { _ = auditLog.Close() })

	authn, err := auth.NewMiddleware(&security)
	if err != nil {
		t.Fatalf("Failed to create auth middleware: %v", err)
	}
	enforcer, err := authz.NewEnforcer(authz.DefaultEnforcerConfig())
	if err != nil {
		t.Fatalf("Failed to create enforcer: %v", err)
	}

	handler := NewHandler(db, eng, runner, auditLog, cfg)
	router := NewRouter(handler, authn, authz.NewMiddleware(enforcer), NewChiMiddleware(ChiMiddlewareConfigFrom(&security)))
	router.ConfigureAudit(NewAuditHandlers(auditLog, auditStore))

	env := &testEnv{
		db:         db,
		exec:       exec,
		auditStore: auditStore,
		auditLog:   auditLog,
		server:     router.SetupChi(),
	}
	if authMode == "jwt" {
		env.jwt, err = auth.NewJWTManager(&security)
		if err != nil {
			t.Fatalf("Failed to create JWT manager: %v", err)
		}
	}
	return env
}

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "1GB"})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close test database: %v", err)
		}
	})
	return db
}

// token issues a bearer token for the jwt-mode environment.
func (e *testEnv) token(t *testing.T, subject, role, orgID string) string {
	t.Helper()
	tok, err := e.jwt.GenerateToken(subject, subject, role, orgID, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	return tok
}

// do sends a request; body may be nil, a string or a value to marshal.
func (e *testEnv) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

// envelope is the decoded APIResponse with Data left raw.
type envelope struct {
	Status   string          `json:"status"`
	Data     json.RawMessage `json:"data"`
	Metadata struct {
		RequestID   string `json:"request_id"`
		QueryTimeMS int64  `json:"query_time_ms"`
		Cached      bool   `json:"cached"`
	} `json:"metadata"`
	Error *struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	env := decodeEnvelope(t, rec)
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("Failed to decode data %s: %v", env.Data, err)
	}
}

// expectError checks the status code and the envelope error code.
func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("Expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil {
		t.Fatalf("Expected error envelope, got %s", rec.Body.String())
	}
	if env.Error.Code != code {
		t.Errorf("Expected error code %s, got %s (%s)", code, env.Error.Code, env.Error.Message)
	}
}

// waitForEvents polls the audit store until at least n events match.
func waitForEvents(t *testing.T, store *audit.MemoryStore, filter audit.QueryFilter, n int64) []audit.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		count, err := store.Count(context.Background(), filter)
		if err != nil {
			t.Fatalf("Count failed: %v", err)
		}
		if count >= n {
			events, err := store.Query(context.Background(), filter)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			return events
		}
		if time.Now().After(deadline) {
			t.Fatalf("Expected at least %d audit events matching %+v, got %d", n, filter, count)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func statusRequestBody() map[string]interface{} {
	return map[string]interface{}{
		"metrics":    []map[string]interface{}{{"type": "count", "field": "contracts.id"}},
		"dimensions": []map[string]interface{}{{"type": "contract_status", "field": "contracts.status"}},
	}
}

var _ executor.Executor = (*fakeExecutor)(nil)
