// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Executor  ExecutorConfig  `koanf:"executor"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	Cache     CacheConfig     `koanf:"cache"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Audit     AuditConfig     `koanf:"audit"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // development, staging, production
}

// DatabaseConfig holds DuckDB settings for the application store.
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"` // 0 = runtime.NumCPU()
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"`
	Seed                   bool   `koanf:"seed"` // Insert demo rows into empty tables
}

// ExecutorConfig selects and tunes the database that runs compiled analytics
// queries. The duckdb backend shares the application store.
type ExecutorConfig struct {
	Backend         string        `koanf:"backend"` // duckdb or mysql
	MySQLDSN        string        `koanf:"mysql_dsn"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	QueryTimeout    time.Duration `koanf:"query_timeout"`

	// RateLimitQPS caps queries per second; 0 disables the limiter.
	RateLimitQPS   float64 `koanf:"rate_limit_qps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	BreakerMaxFailures uint32        `koanf:"breaker_max_failures"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout"`
	BreakerInterval    time.Duration `koanf:"breaker_interval"`
}

// AnalyticsConfig controls request compilation.
type AnalyticsConfig struct {
	// Dialect overrides the date-transform dialect. Empty follows the
	// executor backend.
	Dialect          string `koanf:"dialect"`
	SchemaValidation bool   `koanf:"schema_validation"`
	MaxLimit         int    `koanf:"max_limit"`

	// WindowGranularity rounds time-period windows so equal requests share
	// a result cache entry.
	WindowGranularity time.Duration `koanf:"window_granularity"`
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	Backend       string        `koanf:"backend"` // none, memory, redis, badger
	TTL           time.Duration `koanf:"ttl"`
	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
	BadgerPath    string        `koanf:"badger_path"`
}

// SchedulerConfig holds scheduled report settings.
type SchedulerConfig struct {
	Enabled          bool          `koanf:"enabled"`
	CheckInterval    time.Duration `koanf:"check_interval"`
	MaxConcurrent    int           `koanf:"max_concurrent"`
	ExecutionTimeout time.Duration `koanf:"execution_timeout"`
	OutputDir        string        `koanf:"output_dir"`
}

// AuditConfig holds audit trail settings.
type AuditConfig struct {
	Enabled       bool   `koanf:"enabled"`
	Backend       string `koanf:"backend"` // duckdb or memory
	RetentionDays int    `koanf:"retention_days"`
	BufferSize    int    `koanf:"buffer_size"`
	LogToStdout   bool   `koanf:"log_to_stdout"`
}

// SecurityConfig holds authentication and authorization settings
type SecurityConfig struct {
	AuthMode          string        `koanf:"auth_mode"` // none or jwt
	JWTSecret         string        `koanf:"jwt_secret"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`

	// DefaultRole applies to tokens without a role claim and to every
	// request when auth_mode is none.
	DefaultRole string `koanf:"default_role"`
}

// LoggingConfig holds logging settings for zerolog.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
