// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"port too low", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "HTTP_PORT"},
		{"unknown backend", func(c *Config) { c.Executor.Backend = "oracle" }, "EXECUTOR_BACKEND"},
		{"mysql without dsn", func(c *Config) { c.Executor.Backend = "mysql" }, "MYSQL_DSN"},
		{"mysql with dsn", func(c *Config) {
			c.Executor.Backend = "mysql"
			c.Executor.MySQLDSN = "u:p@tcp(db:3306)/kp"
		}, ""},
		{"negative qps", func(c *Config) { c.Executor.RateLimitQPS = -1 }, "EXECUTOR_RATE_LIMIT_QPS"},
		{"qps without burst", func(c *Config) {
			c.Executor.RateLimitQPS = 10
			c.Executor.RateLimitBurst = 0
		}, "EXECUTOR_RATE_LIMIT_BURST"},
		{"unknown dialect", func(c *Config) { c.Analytics.Dialect = "oracle" }, "ANALYTICS_DIALECT"},
		{"sqlite dialect", func(c *Config) { c.Analytics.Dialect = "sqlite" }, ""},
		{"zero max limit", func(c *Config) { c.Analytics.MaxLimit = 0 }, "ANALYTICS_MAX_LIMIT"},
		{"negative window granularity", func(c *Config) { c.Analytics.WindowGranularity = -time.Second }, "ANALYTICS_WINDOW_GRANULARITY"},
		{"zero window granularity", func(c *Config) { c.Analytics.WindowGranularity = 0 }, ""},
		{"unknown cache", func(c *Config) { c.Cache.Backend = "memcached" }, "CACHE_BACKEND"},
		{"redis without addr", func(c *Config) {
			c.Cache.Backend = "redis"
			c.Cache.RedisAddr = ""
		}, "REDIS_ADDR"},
		{"badger without path", func(c *Config) {
			c.Cache.Backend = "badger"
			c.Cache.BadgerPath = ""
		}, "CACHE_BADGER_PATH"},
		{"cache without ttl", func(c *Config) { c.Cache.TTL = 0 }, "CACHE_TTL"},
		{"disabled cache without ttl", func(c *Config) {
			c.Cache.Backend = "none"
			c.Cache.TTL = 0
		}, ""},
		{"scheduler tight interval", func(c *Config) {
			c.Scheduler.Enabled = true
			c.Scheduler.CheckInterval = time.Millisecond
		}, "SCHEDULER_CHECK_INTERVAL"},
		{"scheduler without output", func(c *Config) {
			c.Scheduler.Enabled = true
			c.Scheduler.OutputDir = ""
		}, "SCHEDULER_OUTPUT_DIR"},
		{"unknown audit backend", func(c *Config) { c.Audit.Backend = "s3" }, "AUDIT_BACKEND"},
		{"disabled audit ignores backend", func(c *Config) {
			c.Audit.Enabled = false
			c.Audit.Backend = "s3"
		}, ""},
		{"unknown auth mode", func(c *Config) { c.Security.AuthMode = "basic" }, "AUTH_MODE"},
		{"no auth in production", func(c *Config) { c.Server.Environment = "production" }, "AUTH_MODE=none"},
		{"jwt without secret", func(c *Config) { c.Security.AuthMode = "jwt" }, "JWT_SECRET is required"},
		{"jwt short secret", func(c *Config) {
			c.Security.AuthMode = "jwt"
			c.Security.JWTSecret = "short"
		}, "at least 32 characters"},
		{"jwt placeholder secret", func(c *Config) {
			c.Security.AuthMode = "jwt"
			c.Security.JWTSecret = "REPLACE_WITH_A_REAL_SECRET_VALUE_123456"
		}, "placeholder"},
		{"jwt wildcard cors in production", func(c *Config) {
			c.Server.Environment = "production"
			c.Security.AuthMode = "jwt"
			c.Security.JWTSecret = strings.Repeat("k", 40)
		}, "CORS_ORIGINS"},
		{"unknown role", func(c *Config) { c.Security.DefaultRole = "root" }, "DEFAULT_ROLE"},
		{"rate limit out of range", func(c *Config) { c.Security.RateLimitReqs = 0 }, "RATE_LIMIT_REQUESTS"},
		{"rate limit disabled skips bounds", func(c *Config) {
			c.Security.RateLimitDisabled = true
			c.Security.RateLimitReqs = 0
		}, ""},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestDialectName(t *testing.T) {
	cfg := defaultConfig()
	if cfg.DialectName() != "duckdb" {
		t.Errorf("Expected duckdb, got %q", cfg.DialectName())
	}
	cfg.Analytics.Dialect = "sqlite"
	if cfg.DialectName() != "sqlite" {
		t.Errorf("Expected explicit dialect, got %q", cfg.DialectName())
	}
}
