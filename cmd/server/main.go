// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/kontrakpro/internal/api"
	"github.com/tomtom215/kontrakpro/internal/audit"
	"github.com/tomtom215/kontrakpro/internal/auth"
	"github.com/tomtom215/kontrakpro/internal/authz"
	"github.com/tomtom215/kontrakpro/internal/cache"
	"github.com/tomtom215/kontrakpro/internal/config"
	"github.com/tomtom215/kontrakpro/internal/database"
	"github.com/tomtom215/kontrakpro/internal/engine"
	"github.com/tomtom215/kontrakpro/internal/executor"
	"github.com/tomtom215/kontrakpro/internal/logging"
	"github.com/tomtom215/kontrakpro/internal/scheduler"
	"github.com/tomtom215/kontrakpro/internal/supervisor"
	"github.com/tomtom215/kontrakpro/internal/supervisor/services"
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	// Load configuration first to get logging settings
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting KontrakPro with supervisor tree")
	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("executor", cfg.Executor.Backend).
		Str("dialect", cfg.DialectName()).
		Str("cache", cfg.Cache.Backend).
		Str("auth_mode", cfg.Security.AuthMode).
		Msg("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	if cfg.Database.Seed {
		logging.Info().Msg("Demo data seeded (SEED_DATA=true)")
	}
	logging.Info().Msg("Database initialized successfully")

	stack, err := executor.Open(ctx, &cfg.Executor, db.Conn())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize query executor")
	}
	defer func() {
		if err := stack.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing executor connection")
		}
	}()
	logging.Info().Str("backend", stack.Backend()).Msg("Query executor ready")

	resultCache, err := cache.Open(ctx, &cfg.Cache)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize result cache")
	}
	defer func() {
		if err := resultCache.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing result cache")
		}
	}()
	logging.Info().Str("backend", resultCache.Name()).Dur("ttl", cfg.Cache.TTL).Msg("Result cache ready")

	compiler, err := engine.NewCompiler(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize analytics compiler")
	}
	eng := engine.New(compiler, stack.Executor,
		engine.WithCache(resultCache, cfg.Cache.TTL),
		engine.WithBackend(stack.Backend()),
		engine.WithMaxLimit(cfg.Analytics.MaxLimit),
	)

	auditStore, err := openAuditStore(ctx, cfg, db)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize audit store")
	}
	auditLogger := audit.NewLogger(auditStore, audit.ConfigFrom(&cfg.Audit))
	defer func() {
		if err := auditLogger.Close(); err != nil {
			logging.Error().Err(err).Msg("Error flushing audit log")
		}
	}()

	runner := scheduler.NewRunner(db, eng, cfg.Scheduler.OutputDir)

	authn, err := auth.NewMiddleware(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authentication")
	}
	if cfg.Security.AuthMode == "none" {
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  SECURITY WARNING: Authentication is DISABLED (AUTH_MODE=none)")
		logging.Warn().Msg("  ")
		logging.Warn().Msgf("  Every request runs with the %q role.", cfg.Security.DefaultRole)
		logging.Warn().Msg("  This mode should ONLY be used for local development")
		logging.Warn().Msg("  or completely isolated private networks.")
		logging.Warn().Msg("============================================================")
	} else {
		logging.Info().Msg("JWT authentication enabled")
	}

	enforcer, err := authz.NewEnforcer(&authz.EnforcerConfig{
		DefaultRole:  cfg.Security.DefaultRole,
		CacheEnabled: true,
		CacheTTL:     5 * time.Minute,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authorization")
	}

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	handler := api.NewHandler(db, eng, runner, auditLogger, cfg)
	router := api.NewRouter(handler, authn, authz.NewMiddleware(enforcer),
		api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(&cfg.Security)))
	router.ConfigureAudit(api.NewAuditHandlers(auditLogger, auditStore))

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Bridges zerolog to slog for sutureslog
	slogLogger := logging.NewSlogLogger()

	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// === ADD SERVICES TO SUPERVISOR TREE ===

	if cfg.Audit.Enabled {
		tree.AddBackgroundService(auditLogger)
		logging.Info().Int("retention_days", cfg.Audit.RetentionDays).Msg("Audit retention added to supervisor tree")
	}

	if cfg.Scheduler.Enabled {
		sched := scheduler.New(db, runner, scheduler.ConfigFrom(&cfg.Scheduler))
		tree.AddBackgroundService(services.NewSchedulerService(sched))
		logging.Info().
			Dur("check_interval", cfg.Scheduler.CheckInterval).
			Int("max_concurrent", cfg.Scheduler.MaxConcurrent).
			Msg("Report scheduler added to supervisor tree")
	} else {
		logging.Info().Msg("Report scheduler disabled")
	}

	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// memoryAuditEvents bounds the in-process audit backend.
const memoryAuditEvents = 10000

// auditBackend is what the logger writes to and the audit API reads from.
type auditBackend interface {
	audit.Store
	api.AuditStore
}

// openAuditStore returns the configured audit backend. The duckdb backend
// shares the application database.
func openAuditStore(ctx context.Context, cfg *config.Config, db *database.DB) (auditBackend, error) {
	if cfg.Audit.Backend == "memory" {
		return audit.NewMemoryStore(memoryAuditEvents), nil
	}
	store := audit.NewDuckDBStore(db.Conn())
	if err := store.CreateTable(ctx); err != nil {
		return nil, err
	}
	return store, nil
}
