// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

// Package logging provides zerolog-based structured logging for KontrakPro.
//
// # Overview
//
// The package provides:
//   - JSON output for production and console output for development
//   - Context-aware logging with request and correlation IDs
//   - An slog adapter so suture supervisors log through zerolog
//   - QueryLogger for analytics query execution
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("report_id", id).Msg("Report executed")
//	logging.Ctx(ctx).Warn().Err(err).Msg("Query failed")
//
// # Query Logging
//
// QueryLogger records SQL text (truncated), parameter count, row count and
// elapsed time. Bound values are never written, since filter values may
// carry contract data.
//
// # Configuration
//
// Level and format come from config.LoggingConfig (LOG_LEVEL, LOG_FORMAT,
// LOG_CALLER). Supported levels are trace, debug, info, warn, error and
// disabled.
//
// # Thread Safety
//
// The global logger is guarded by a RWMutex. zerolog.Logger values are safe
// for concurrent use.
package logging
