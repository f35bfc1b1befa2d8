package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"github.com/teemow/calbridge/internal/logging"
)

// BookingRecord captures one booking attempt for the audit trail.
//
// # Privacy Considerations
//
// Attendee holds an email address. Unless the AuditLogger is configured
// with IncludePII, only a hash of it is written.
type BookingRecord struct {
	CalendarID string
	Summary    string
	Attendee   string
	Start      string
	End        string

	// Source identifies the surface the booking came from
	// (webhook, rest, mcp).
	Source string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	EventID   string
	Error     string

	TraceID string
	SpanID  string
}

// NewBookingRecord creates a BookingRecord with timing started.
func NewBookingRecord(source, calendarID string) *BookingRecord {
	return &BookingRecord{
		Source:     source,
		CalendarID: calendarID,
		StartTime:  time.Now(),
	}
}

// WithEvent sets the requested event fields.
func (r *BookingRecord) WithEvent(summary, start, end, attendee string) *BookingRecord {
	r.Summary = summary
	r.Start = start
	r.End = end
	r.Attendee = attendee
	return r
}

// WithSpanContext extracts trace context from the current span.
func (r *BookingRecord) WithSpanContext(ctx context.Context) *BookingRecord {
	r.TraceID = GetTraceID(ctx)
	r.SpanID = GetSpanID(ctx)
	return r
}

// Complete marks the booking as finished.
func (r *BookingRecord) Complete(eventID string, err error) *BookingRecord {
	r.Duration = time.Since(r.StartTime)
	r.EventID = eventID
	r.Success = err == nil
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Status returns "success" or "error".
func (r *BookingRecord) Status() string {
	if r.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns the attributes written for the record.
func (r *BookingRecord) LogAttrs(includePII bool) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("source", r.Source),
		logging.CalendarID(r.CalendarID),
		slog.String("start", r.Start),
		slog.String("end", r.End),
		slog.Duration("duration", r.Duration),
		logging.Status(r.Status()),
	}

	if r.Attendee != "" {
		if includePII {
			attrs = append(attrs, slog.String("attendee", r.Attendee))
		} else {
			attrs = append(attrs, logging.UserHash(r.Attendee))
		}
	}
	if includePII && r.Summary != "" {
		attrs = append(attrs, slog.String("summary", r.Summary))
	}
	if r.EventID != "" {
		attrs = append(attrs, slog.String("event_id", r.EventID))
	}
	if r.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", r.TraceID))
	}
	if r.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", r.SpanID))
	}
	if r.Error != "" {
		attrs = append(attrs, slog.String("error", r.Error))
	}
	return attrs
}

// AuditLogger writes booking records through a slog.Logger.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates an enabled AuditLogger that anonymizes attendees.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogBooking writes the record at info level on success and warn on failure.
// A nil AuditLogger discards the record.
func (al *AuditLogger) LogBooking(ctx context.Context, r *BookingRecord) {
	if al == nil || !al.enabled || r == nil {
		return
	}

	level := slog.LevelInfo
	msg := "booking_created"
	if !r.Success {
		level = slog.LevelWarn
		msg = "booking_failed"
	}
	al.logger.LogAttrs(ctx, level, msg, r.LogAttrs(al.includePII)...)
}
