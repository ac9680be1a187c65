// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package config

import (
	"fmt"
	"strings"
	"time"
)

// Rate limit bounds
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

// Validate checks every configuration section.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateExecutor(); err != nil {
		return err
	}
	if err := c.validateAnalytics(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateScheduler(); err != nil {
		return err
	}
	if err := c.validateAudit(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	return nil
}

func (c *Config) validateExecutor() error {
	switch c.Executor.Backend {
	case "duckdb":
	case "mysql":
		if c.Executor.MySQLDSN == "" {
			return fmt.Errorf("MYSQL_DSN is required when EXECUTOR_BACKEND is mysql")
		}
	default:
		return fmt.Errorf("EXECUTOR_BACKEND must be one of: duckdb, mysql")
	}
	if c.Executor.QueryTimeout < 0 {
		return fmt.Errorf("EXECUTOR_QUERY_TIMEOUT must not be negative")
	}
	if c.Executor.RateLimitQPS < 0 {
		return fmt.Errorf("EXECUTOR_RATE_LIMIT_QPS must not be negative")
	}
	if c.Executor.RateLimitQPS > 0 && c.Executor.RateLimitBurst < 1 {
		return fmt.Errorf("EXECUTOR_RATE_LIMIT_BURST must be at least 1 when rate limiting is enabled")
	}
	return nil
}

var validDialects = map[string]bool{
	"":        true,
	"duckdb":  true,
	"sqlite":  true,
	"d1":      true,
	"mysql":   true,
	"mariadb": true,
}

func (c *Config) validateAnalytics() error {
	if !validDialects[strings.ToLower(c.Analytics.Dialect)] {
		return fmt.Errorf("ANALYTICS_DIALECT must be one of: duckdb, sqlite, mysql")
	}
	if c.Analytics.MaxLimit < 1 {
		return fmt.Errorf("ANALYTICS_MAX_LIMIT must be at least 1")
	}
	if c.Analytics.WindowGranularity < 0 {
		return fmt.Errorf("ANALYTICS_WINDOW_GRANULARITY must not be negative")
	}
	return nil
}

// DialectName returns the configured dialect, defaulting to the executor
// backend.
func (c *Config) DialectName() string {
	if c.Analytics.Dialect != "" {
		return c.Analytics.Dialect
	}
	return c.Executor.Backend
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case "none", "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when CACHE_BACKEND is redis")
		}
	case "badger":
		if c.Cache.BadgerPath == "" {
			return fmt.Errorf("CACHE_BADGER_PATH is required when CACHE_BACKEND is badger")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of: none, memory, redis, badger")
	}
	if c.Cache.Backend != "none" && c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	return nil
}

func (c *Config) validateScheduler() error {
	if !c.Scheduler.Enabled {
		return nil
	}
	if c.Scheduler.CheckInterval < time.Second {
		return fmt.Errorf("SCHEDULER_CHECK_INTERVAL must be at least 1s")
	}
	if c.Scheduler.MaxConcurrent < 1 {
		return fmt.Errorf("SCHEDULER_MAX_CONCURRENT must be at least 1")
	}
	if c.Scheduler.OutputDir == "" {
		return fmt.Errorf("SCHEDULER_OUTPUT_DIR is required when the scheduler is enabled")
	}
	return nil
}

func (c *Config) validateAudit() error {
	if !c.Audit.Enabled {
		return nil
	}
	switch c.Audit.Backend {
	case "duckdb", "memory":
	default:
		return fmt.Errorf("AUDIT_BACKEND must be one of: duckdb, memory")
	}
	if c.Audit.RetentionDays < 0 {
		return fmt.Errorf("AUDIT_RETENTION_DAYS must not be negative")
	}
	return nil
}

var validAuthModes = map[string]bool{
	"none": true,
	"jwt":  true,
}

var validRoles = map[string]bool{
	"viewer": true,
	"editor": true,
	"admin":  true,
}

func (c *Config) validateSecurity() error {
	if !validAuthModes[c.Security.AuthMode] {
		return fmt.Errorf("AUTH_MODE must be one of: none, jwt")
	}

	// Refuse an unauthenticated production deployment.
	if c.Security.AuthMode == "none" && c.IsProduction() {
		return fmt.Errorf("AUTH_MODE=none is not allowed when ENVIRONMENT=production")
	}

	if c.Security.AuthMode == "jwt" {
		if err := c.validateJWTSecret(); err != nil {
			return err
		}
	}

	if !validRoles[c.Security.DefaultRole] {
		return fmt.Errorf("DEFAULT_ROLE must be one of: viewer, editor, admin")
	}

	if c.Security.AuthMode != "none" && c.hasWildcardCORS() && c.IsProduction() {
		return fmt.Errorf("CORS_ORIGINS=* (wildcard) is not allowed in production with authentication enabled")
	}

	return c.validateRateLimits()
}

func (c *Config) validateJWTSecret() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_MODE is jwt")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters for security")
	}
	if containsPlaceholder(c.Security.JWTSecret) {
		return fmt.Errorf("JWT_SECRET contains a placeholder value - generate a secure secret with: openssl rand -base64 32")
	}
	return nil
}

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// IsProduction returns true if the application is running in production mode.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// placeholderPatterns catch secrets copied from example configs.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"PLACEHOLDER",
}

func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	for _, p := range placeholderPatterns {
		if strings.Contains(upper, p) {
			return true
		}
	}
	return false
}
