// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/kontrakpro/internal/database/query"
	"github.com/tomtom215/kontrakpro/internal/logging"
)

// DuckDBStore persists events in the audit_events table of the application
// database.
type DuckDBStore struct {
	db *sql.DB
}

// NewDuckDBStore wraps an open DuckDB handle. Call CreateTable before use.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

var auditSchema = []string{
	`CREATE TABLE IF NOT EXISTS audit_events (
		id VARCHAR PRIMARY KEY,
		timestamp TIMESTAMP NOT NULL,
		type VARCHAR NOT NULL,
		severity VARCHAR NOT NULL,
		outcome VARCHAR NOT NULL,
		actor_id VARCHAR NOT NULL,
		actor_type VARCHAR NOT NULL,
		actor_name VARCHAR,
		actor_role VARCHAR,
		actor_org_id VARCHAR,
		target_id VARCHAR,
		target_type VARCHAR,
		target_name VARCHAR,
		source_ip VARCHAR,
		source_user_agent VARCHAR,
		action VARCHAR NOT NULL,
		description VARCHAR NOT NULL,
		metadata VARCHAR,
		request_id VARCHAR
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_events_timestamp ON audit_events(timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_events_type ON audit_events(type)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_events_actor ON audit_events(actor_id)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_events_target ON audit_events(target_type, target_id)`,
}

// CreateTable creates audit_events and its indexes if missing.
func (s *DuckDBStore) CreateTable(ctx context.Context) error {
	for _, stmt := range auditSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create audit schema: %w", err)
		}
	}
	logging.Debug().Msg("Audit events table created/verified")
	return nil
}

const eventColumns = `id, timestamp, type, severity, outcome,
	actor_id, actor_type, actor_name, actor_role, actor_org_id,
	target_id, target_type, target_name,
	source_ip, source_user_agent,
	action, description, metadata, request_id`

// Save inserts an event.
func (s *DuckDBStore) Save(ctx context.Context, event *Event) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}

	var targetID, targetType, targetName *string
	if event.Target != nil {
		targetID, targetType, targetName = &event.Target.ID, &event.Target.Type, &event.Target.Name
	}
	var metadata *string
	if len(event.Metadata) > 0 {
		m := string(event.Metadata)
		metadata = &m
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO audit_events ("+eventColumns+") VALUES ("+query.Placeholders(19)+")",
		event.ID,
		event.Timestamp.UTC(),
		string(event.Type),
		string(event.Severity),
		string(event.Outcome),
		event.Actor.ID,
		event.Actor.Type,
		event.Actor.Name,
		event.Actor.Role,
		event.Actor.OrganizationID,
		targetID,
		targetType,
		targetName,
		event.Source.IPAddress,
		event.Source.UserAgent,
		event.Action,
		event.Description,
		metadata,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("failed to save audit event: %w", err)
	}
	return nil
}

// Get returns the event with the given ID.
func (s *DuckDBStore) Get(ctx context.Context, id string) (*Event, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM audit_events WHERE id = ?", id)
	event, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit event: %w", err)
	}
	return event, nil
}

// Query returns matching events, newest first.
func (s *DuckDBStore) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	where, args := buildWhere(filter)

	q := "SELECT " + eventColumns + " FROM audit_events " + where + " ORDER BY timestamp DESC, id DESC"
	if filter.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			q += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit events: %w", err)
	}
	return events, nil
}

// Count returns the number of matching events, ignoring Limit and Offset.
func (s *DuckDBStore) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	where, args := buildWhere(filter)
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_events "+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count audit events: %w", err)
	}
	return count, nil
}

// Delete removes events older than the cutoff.
func (s *DuckDBStore) Delete(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM audit_events WHERE timestamp < ?", olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old audit events: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted count: %w", err)
	}
	return count, nil
}

// GetStats summarizes stored events.
func (s *DuckDBStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	var oldest, newest sql.NullTime
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), MIN(timestamp), MAX(timestamp) FROM audit_events").
		Scan(&stats.TotalEvents, &oldest, &newest)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit totals: %w", err)
	}
	if oldest.Valid {
		stats.OldestEvent = &oldest.Time
	}
	if newest.Valid {
		stats.NewestEvent = &newest.Time
	}

	if stats.EventsByType, err = s.countBy(ctx, "type"); err != nil {
		return nil, err
	}
	if stats.EventsByOutcome, err = s.countBy(ctx, "outcome"); err != nil {
		return nil, err
	}
	return stats, nil
}

// countBy groups on a fixed column name; callers never pass user input.
func (s *DuckDBStore) countBy(ctx context.Context, column string) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+column+", COUNT(*) FROM audit_events GROUP BY "+column)
	if err != nil {
		return nil, fmt.Errorf("failed to count audit events by %s: %w", column, err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("failed to scan %s count: %w", column, err)
		}
		counts[key] = n
	}
	return counts, rows.Err()
}

func buildWhere(f QueryFilter) (string, []interface{}) {
	wb := query.NewWhereBuilder()

	if len(f.Types) > 0 {
		wb.AddIn("type", toArgs(f.Types), false)
	}
	if len(f.Outcomes) > 0 {
		wb.AddIn("outcome", toArgs(f.Outcomes), false)
	}
	for _, eq := range [...]struct{ column, value string }{
		{"actor_id", f.ActorID},
		{"target_id", f.TargetID},
		{"target_type", f.TargetType},
		{"request_id", f.RequestID},
	} {
		if eq.value != "" {
			wb.AddComparison(eq.column, "=", eq.value)
		}
	}
	if f.StartTime != nil || f.EndTime != nil {
		start, end := utcPtr(f.StartTime), utcPtr(f.EndTime)
		wb.AddDateRange("timestamp", start, end)
	}
	if f.SearchText != "" {
		pattern := "%" + strings.ToLower(f.SearchText) + "%"
		wb.AddClause("(LOWER(description) LIKE ? OR LOWER(action) LIKE ?)", pattern, pattern)
	}

	if wb.IsEmpty() {
		return "", nil
	}
	return wb.BuildWithPrefix()
}

func toArgs[T ~string](values []T) []interface{} {
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = string(v)
	}
	return args
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*Event, error) {
	var e Event
	var eventType, severity, outcome string
	var actorName, actorRole, actorOrg sql.NullString
	var targetID, targetType, targetName sql.NullString
	var sourceIP, userAgent, metadata, requestID sql.NullString
	err := row.Scan(
		&e.ID, &e.Timestamp, &eventType, &severity, &outcome,
		&e.Actor.ID, &e.Actor.Type, &actorName, &actorRole, &actorOrg,
		&targetID, &targetType, &targetName,
		&sourceIP, &userAgent,
		&e.Action, &e.Description, &metadata, &requestID,
	)
	if err != nil {
		return nil, err
	}

	e.Type = EventType(eventType)
	e.Severity = Severity(severity)
	e.Outcome = Outcome(outcome)
	e.Timestamp = e.Timestamp.UTC()
	e.Actor.Name = actorName.String
	e.Actor.Role = actorRole.String
	e.Actor.OrganizationID = actorOrg.String
	e.Source.IPAddress = sourceIP.String
	e.Source.UserAgent = userAgent.String
	e.RequestID = requestID.String

	if targetID.Valid {
		e.Target = &Target{ID: targetID.String, Type: targetType.String, Name: targetName.String}
	}
	if metadata.Valid && metadata.String != "" {
		e.Metadata = json.RawMessage(metadata.String)
	}
	return &e, nil
}
