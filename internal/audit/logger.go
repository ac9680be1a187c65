// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package audit

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/kontrakpro/internal/config"
	"github.com/tomtom215/kontrakpro/internal/logging"
	"github.com/tomtom215/kontrakpro/internal/metrics"
)

// Config holds audit logger settings.
type Config struct {
	Enabled bool

	// MinSeverity drops events below this level.
	MinSeverity Severity

	// RetentionDays is how long Cleanup keeps events; 0 keeps everything.
	RetentionDays int

	// CleanupInterval is how often the retention routine runs.
	CleanupInterval time.Duration

	// BufferSize is the capacity of the async write queue.
	BufferSize int

	// LogToStdout also writes each event through the application logger.
	LogToStdout bool
}

// DefaultConfig returns the defaults.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		MinSeverity:     SeverityInfo,
		RetentionDays:   90,
		CleanupInterval: 24 * time.Hour,
		BufferSize:      1000,
	}
}

// ConfigFrom maps the application audit section onto the defaults.
func ConfigFrom(cfg *config.AuditConfig) *Config {
	c := DefaultConfig()
	c.Enabled = cfg.Enabled
	c.RetentionDays = cfg.RetentionDays
	c.LogToStdout = cfg.LogToStdout
	if cfg.BufferSize > 0 {
		c.BufferSize = cfg.BufferSize
	}
	return c
}

// Logger records audit events asynchronously. Log never blocks: when the
// queue is full the event is dropped and counted.
type Logger struct {
	config    *Config
	store     Store
	eventChan chan *Event
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewLogger starts a logger writing to store.
func NewLogger(store Store, cfg *Config) *Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}

	l := &Logger{
		config:    cfg,
		store:     store,
		eventChan: make(chan *Event, cfg.BufferSize),
		stopChan:  make(chan struct{}),
	}

	l.wg.Add(1)
	go l.asyncWriter()

	return l
}

func (l *Logger) asyncWriter() {
	defer l.wg.Done()

	for {
		select {
		case <-l.stopChan:
			for {
				select {
				case event := <-l.eventChan:
					l.writeEvent(event)
				default:
					return
				}
			}
		case event := <-l.eventChan:
			l.writeEvent(event)
		}
	}
}

func (l *Logger) writeEvent(event *Event) {
	if l.config.LogToStdout {
		if data, err := json.Marshal(event); err == nil {
			logging.Info().RawJSON("event", data).Msg("Audit event")
		}
	}

	if l.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := l.store.Save(ctx, event); err != nil {
		logging.Error().Err(err).Str("event_type", string(event.Type)).Msg("Failed to save audit event")
	}
}

// Log queues an event, filling in ID and timestamp when unset.
func (l *Logger) Log(event *Event) {
	if l == nil || !l.config.Enabled || event == nil {
		return
	}
	if event.Severity == "" {
		event.Severity = SeverityInfo
	}
	if severityRank[event.Severity] < severityRank[l.config.MinSeverity] {
		return
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	select {
	case l.eventChan <- event:
		metrics.RecordAuditEvent(string(event.Type), string(event.Outcome))
	default:
		metrics.RecordAuditEvent(string(event.Type), "dropped")
		logging.Warn().Str("event_id", event.ID).Msg("Audit event buffer full, dropping event")
	}
}

// Record is the common shape for request-scoped events.
//
//nolint:gocritic // hugeParam: Actor and Source passed by value for call-site brevity
func (l *Logger) Record(ctx context.Context, eventType EventType, actor Actor, source Source, target *Target, outcome Outcome, description string, metadata map[string]interface{}) {
	severity := SeverityInfo
	if outcome == OutcomeFailure {
		severity = SeverityWarning
	}
	event := &Event{
		Type:        eventType,
		Severity:    severity,
		Outcome:     outcome,
		Actor:       actor,
		Target:      target,
		Source:      source,
		Action:      actionOf(eventType),
		Description: description,
		RequestID:   logging.RequestIDFromContext(ctx),
	}
	if len(metadata) > 0 {
		event.Metadata = mustJSON(metadata)
	}
	l.Log(event)
}

// Close drains queued events and stops the writer. Safe to call twice.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.stopOnce.Do(func() { close(l.stopChan) })
	l.wg.Wait()
	return nil
}

// Cleanup deletes events older than the retention period.
func (l *Logger) Cleanup(ctx context.Context) (int64, error) {
	if l.store == nil || l.config.RetentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -l.config.RetentionDays)
	return l.store.Delete(ctx, cutoff)
}

// Serve runs retention cleanup every CleanupInterval until ctx is done.
// It implements suture.Service.
func (l *Logger) Serve(ctx context.Context) error {
	interval := l.config.CleanupInterval
	if interval <= 0 {
		interval = DefaultConfig().CleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			count, err := l.Cleanup(ctx)
			if err != nil {
				logging.Error().Err(err).Msg("Audit cleanup failed")
			} else if count > 0 {
				logging.Info().Int64("count", count).Msg("Cleaned up old audit events")
			}
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (l *Logger) String() string {
	return "audit-retention"
}

// Query returns matching events from the store.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	return l.store.Query(ctx, filter)
}

// Count returns the number of matching events.
func (l *Logger) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	return l.store.Count(ctx, filter)
}

// Get returns one event by ID.
func (l *Logger) Get(ctx context.Context, id string) (*Event, error) {
	return l.store.Get(ctx, id)
}

// Enabled reports whether events are being recorded.
func (l *Logger) Enabled() bool {
	return l != nil && l.config.Enabled
}

func actionOf(t EventType) string {
	if _, verb, ok := strings.Cut(string(t), "."); ok {
		return verb
	}
	return string(t)
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}

// SourceFromRequest takes the first X-Forwarded-For hop, then X-Real-IP,
// then the connection address.
func SourceFromRequest(r *http.Request) Source {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		ip = strings.TrimSpace(first)
	} else if xri := r.Header.Get("X-Real-IP"); xri != "" {
		ip = xri
	}
	return Source{IPAddress: ip, UserAgent: r.UserAgent()}
}

// SystemActor is the actor for scheduler and maintenance events.
func SystemActor() Actor {
	return Actor{ID: "system", Type: "system", Name: "KontrakPro"}
}
