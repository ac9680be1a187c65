// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package models

import (
	"time"
)

// APIResponse represents a standardized API response wrapper used by all HTTP endpoints.
//
// Status field values:
//   - "success": Request completed successfully, see Data field
//   - "error": Request failed, see Error field for details
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {
//	    "code": "VALIDATION_ERROR",
//	    "message": "unsupported operator: \"between\"",
//	    "details": {"field": "contracts.value"}
//	  },
//	  "metadata": {"timestamp": "2026-03-02T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError represents an error response with structured error details.
//
// Codes: VALIDATION_ERROR, QUERY_ERROR, DATABASE_ERROR, NOT_FOUND,
// SERVICE_UNAVAILABLE, UNAUTHORIZED, FORBIDDEN, RATE_LIMITED, INTERNAL_ERROR.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// PaginationInfo describes an offset-paginated list.
type PaginationInfo struct {
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
	TotalCount int  `json:"total_count"`
	HasMore    bool `json:"has_more"`
}

// NewPaginationInfo fills HasMore from the page position.
func NewPaginationInfo(limit, offset, total int) PaginationInfo {
	return PaginationInfo{
		Limit:      limit,
		Offset:     offset,
		TotalCount: total,
		HasMore:    offset+limit < total,
	}
}

// ListResponse wraps a page of items.
type ListResponse[T any] struct {
	Items      []T            `json:"items"`
	Pagination PaginationInfo `json:"pagination"`
}

// CompileResponse is the SQL preview returned by the compile endpoint.
type CompileResponse struct {
	SQL     string        `json:"sql"`
	Params  []interface{} `json:"params"`
	Columns []string      `json:"columns"`
	Anchor  string        `json:"anchor"`
	Joins   []string      `json:"joins,omitempty"`
}

// HealthStatus is the body of GET /api/v1/health.
type HealthStatus struct {
	Status            string  `json:"status"` // healthy or degraded
	Version           string  `json:"version"`
	DatabaseConnected bool    `json:"database_connected"`
	ExecutorBackend   string  `json:"executor_backend"`
	AuthMode          string  `json:"auth_mode"`
	SchedulerEnabled  bool    `json:"scheduler_enabled"`
	Uptime            float64 `json:"uptime"`
}
