// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package models

import (
	"time"

	"github.com/tomtom215/kontrakpro/internal/analytics"
)

// ReportFormat is the artifact format for exports and scheduled runs.
type ReportFormat string

const (
	FormatCSV  ReportFormat = "csv"
	FormatXLSX ReportFormat = "xlsx"
	FormatJSON ReportFormat = "json"
)

// ValidReportFormats contains all valid report formats.
var ValidReportFormats = []ReportFormat{FormatCSV, FormatXLSX, FormatJSON}

// IsValidReportFormat checks if a format is valid.
func IsValidReportFormat(f ReportFormat) bool {
	for _, valid := range ValidReportFormats {
		if f == valid {
			return true
		}
	}
	return false
}

// ContentType returns the MIME type served for the format.
func (f ReportFormat) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatJSON:
		return "application/json"
	default:
		return "text/csv; charset=utf-8"
	}
}

// ReportSchedule controls scheduled runs of a saved report.
type ReportSchedule struct {
	CronExpression string `json:"cron_expression" validate:"omitempty,max=100"`
	Timezone       string `json:"timezone,omitempty" validate:"omitempty,max=64"`
	Enabled        bool   `json:"enabled"`
}

// Report is a saved analytics request with export and schedule settings.
type Report struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Description    string             `json:"description,omitempty"`
	Request        *analytics.Request `json:"request"`
	Format         ReportFormat       `json:"format"`
	Schedule       ReportSchedule     `json:"schedule"`
	Recipients     []string           `json:"recipients,omitempty"`
	CreatedBy      string             `json:"created_by"`
	OrganizationID string             `json:"organization_id,omitempty"`
	LastRunAt      *time.Time         `json:"last_run_at,omitempty"`
	LastRunStatus  RunStatus          `json:"last_run_status,omitempty"`
	NextRunAt      *time.Time         `json:"next_run_at,omitempty"`
	RunCount       int                `json:"run_count"`
	SuccessCount   int                `json:"success_count"`
	FailureCount   int                `json:"failure_count"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// CreateReportRequest is the body of POST /api/v1/reports.
type CreateReportRequest struct {
	Name           string             `json:"name" validate:"required,min=1,max=200"`
	Description    string             `json:"description" validate:"max=2000"`
	Request        *analytics.Request `json:"request" validate:"required"`
	Format         ReportFormat       `json:"format" validate:"omitempty,oneof=csv xlsx json"`
	Schedule       ReportSchedule     `json:"schedule"`
	Recipients     []string           `json:"recipients" validate:"omitempty,max=50,dive,email"`
	OrganizationID string             `json:"organization_id" validate:"max=64"`
}

// UpdateReportRequest is a partial update; nil fields are left unchanged.
type UpdateReportRequest struct {
	Name        *string            `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string            `json:"description,omitempty" validate:"omitempty,max=2000"`
	Request     *analytics.Request `json:"request,omitempty"`
	Format      *ReportFormat      `json:"format,omitempty" validate:"omitempty,oneof=csv xlsx json"`
	Schedule    *ReportSchedule    `json:"schedule,omitempty"`
	Recipients  []string           `json:"recipients,omitempty" validate:"omitempty,max=50,dive,email"`
}

// RunStatus is the outcome of a report run.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

// RunTrigger records what started a run.
type RunTrigger string

const (
	TriggerScheduled RunTrigger = "scheduled"
	TriggerManual    RunTrigger = "manual"
)

// ReportRun is one execution of a saved report.
type ReportRun struct {
	ID           string     `json:"id"`
	ReportID     string     `json:"report_id"`
	Trigger      RunTrigger `json:"trigger"`
	Status       RunStatus  `json:"status"`
	RowCount     int        `json:"row_count"`
	ArtifactPath string     `json:"artifact_path,omitempty"`
	DurationMS   int64      `json:"duration_ms"`
	Error        string     `json:"error,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Duration returns the run time, or zero while running.
func (r *ReportRun) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}
