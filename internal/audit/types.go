// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package audit

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
)

// ErrNotFound is returned by Get for an unknown event ID.
var ErrNotFound = errors.New("audit event not found")

// EventType categorizes audit events as "<resource>.<verb>".
type EventType string

const (
	// Analytics
	EventAnalyticsExecute EventType = "analytics.execute"
	EventAnalyticsCompile EventType = "analytics.compile"
	EventAnalyticsExport  EventType = "analytics.export"

	// Saved reports
	EventReportCreated EventType = "report.created"
	EventReportUpdated EventType = "report.updated"
	EventReportDeleted EventType = "report.deleted"
	EventReportRun     EventType = "report.run"
	EventReportExport  EventType = "report.export"

	// Dashboards and widgets
	EventDashboardCreated EventType = "dashboard.created"
	EventDashboardUpdated EventType = "dashboard.updated"
	EventDashboardDeleted EventType = "dashboard.deleted"
	EventWidgetCreated    EventType = "widget.created"
	EventWidgetUpdated    EventType = "widget.updated"
	EventWidgetDeleted    EventType = "widget.deleted"

	// Access control
	EventAuthFailure  EventType = "auth.failure"
	EventAuthzDenied  EventType = "authz.denied"
	EventAdminCleanup EventType = "admin.cleanup"
)

// Severity indicates the severity level of an audit event.
type Severity string

const (
	SeverityDebug    Severity = "debug"
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityDebug:    0,
	SeverityInfo:     1,
	SeverityWarning:  2,
	SeverityError:    3,
	SeverityCritical: 4,
}

// Outcome indicates whether an action succeeded.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Event is one entry in the audit trail.
type Event struct {
	ID          string          `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	Type        EventType       `json:"type"`
	Severity    Severity        `json:"severity"`
	Outcome     Outcome         `json:"outcome"`
	Actor       Actor           `json:"actor"`
	Target      *Target         `json:"target,omitempty"`
	Source      Source          `json:"source"`
	Action      string          `json:"action"`
	Description string          `json:"description"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	RequestID   string          `json:"request_id,omitempty"`
}

// Actor is who performed an action.
type Actor struct {
	ID   string `json:"id"`
	Type string `json:"type"` // user or system
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
	// OrganizationID scopes the actor for tenant-level queries.
	OrganizationID string `json:"organization_id,omitempty"`
}

// Target is the object of an action.
type Target struct {
	ID   string `json:"id"`
	Type string `json:"type"` // report, dashboard, widget, query
	Name string `json:"name,omitempty"`
}

// Source is where a request came from.
type Source struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent,omitempty"`
}

// Store persists audit events.
type Store interface {
	Save(ctx context.Context, event *Event) error
	Get(ctx context.Context, id string) (*Event, error)
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)
	Count(ctx context.Context, filter QueryFilter) (int64, error)
	// Delete removes events older than the cutoff.
	Delete(ctx context.Context, olderThan time.Time) (int64, error)
}

// QueryFilter selects audit events. Zero fields match everything.
type QueryFilter struct {
	Types      []EventType `json:"types,omitempty"`
	Outcomes   []Outcome   `json:"outcomes,omitempty"`
	ActorID    string      `json:"actor_id,omitempty"`
	TargetID   string      `json:"target_id,omitempty"`
	TargetType string      `json:"target_type,omitempty"`
	RequestID  string      `json:"request_id,omitempty"`
	StartTime  *time.Time  `json:"start_time,omitempty"`
	EndTime    *time.Time  `json:"end_time,omitempty"`
	// SearchText matches description or action, case-insensitively.
	SearchText string `json:"search_text,omitempty"`

	// Results are newest first.
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// DefaultQueryFilter returns the newest 100 events.
func DefaultQueryFilter() QueryFilter {
	return QueryFilter{Limit: 100}
}

// Stats summarizes the audit store.
type Stats struct {
	TotalEvents     int64            `json:"total_events"`
	EventsByType    map[string]int64 `json:"events_by_type"`
	EventsByOutcome map[string]int64 `json:"events_by_outcome"`
	OldestEvent     *time.Time       `json:"oldest_event,omitempty"`
	NewestEvent     *time.Time       `json:"newest_event,omitempty"`
}
