package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// System names the remote side of an audited call
type System string

const (
	SystemHikCentral System = "hikcentral"
	SystemRoster     System = "roster"
)

// maxBodyLen caps stored bodies; face uploads would otherwise dominate the log
const maxBodyLen = 2048

// Event records one request to an external system and what came back
type Event struct {
	ID           uuid.UUID `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	System       System    `json:"system"`
	Method       string    `json:"method"`
	Endpoint     string    `json:"endpoint"`
	StatusCode   int       `json:"status_code"`
	Success      bool      `json:"success"`
	Message      string    `json:"message,omitempty"`
	RequestBody  string    `json:"request_body,omitempty"`
	ResponseBody string    `json:"response_body,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
	DryRun       bool      `json:"dry_run,omitempty"`
}

// Logger records request events
type Logger interface {
	Log(ctx context.Context, event Event) error
}

// Normalize fills ID and timestamp and truncates bodies
func Normalize(event Event) Event {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	event.RequestBody = Truncate(event.RequestBody)
	event.ResponseBody = Truncate(event.ResponseBody)
	return event
}

func Truncate(body string) string {
	if len(body) <= maxBodyLen {
		return body
	}
	return body[:maxBodyLen] + "...(truncated)"
}

// SlogLogger writes each event as a structured log line
type SlogLogger struct {
	logger *slog.Logger
}

func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{
		logger: logger.With("component", "audit"),
	}
}

func (l *SlogLogger) Log(ctx context.Context, event Event) error {
	event = Normalize(event)

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}

	l.logger.Log(ctx, level, "external_request",
		slog.String("event_id", event.ID.String()),
		slog.String("system", string(event.System)),
		slog.String("method", event.Method),
		slog.String("endpoint", event.Endpoint),
		slog.Int("status_code", event.StatusCode),
		slog.Bool("success", event.Success),
		slog.String("message", event.Message),
		slog.Int64("duration_ms", event.DurationMs),
		slog.Bool("dry_run", event.DryRun),
	)

	return nil
}

// MultiLogger fans an event out to every sink and joins their errors
type MultiLogger struct {
	sinks []Logger
}

func NewMultiLogger(sinks ...Logger) *MultiLogger {
	return &MultiLogger{sinks: sinks}
}

func (m *MultiLogger) Log(ctx context.Context, event Event) error {
	event = Normalize(event)

	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Log(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NoOpLogger is a logger that does nothing (for testing or when audit is disabled)
type NoOpLogger struct{}

func (l *NoOpLogger) Log(_ context.Context, _ Event) error {
	return nil
}
