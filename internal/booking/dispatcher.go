package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/teemow/calbridge/internal/calendar"
	"github.com/teemow/calbridge/internal/instrumentation"
	"github.com/teemow/calbridge/internal/logging"
	"github.com/teemow/calbridge/internal/slots"
)

// DefaultUpstreamTimeout bounds each calendar call when Config leaves it unset.
const DefaultUpstreamTimeout = 5 * time.Second

// Calendar is the calendar capability the dispatcher depends on.
type Calendar interface {
	QueryBusy(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]calendar.TimeRange, error)
	ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]calendar.EventSummary, error)
	InsertEvent(ctx context.Context, calendarID string, input calendar.EventInput) (*calendar.EventSummary, error)
}

// Config holds the dispatcher settings.
type Config struct {
	CalendarID      string
	SlotDuration    time.Duration
	UpstreamTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.CalendarID == "" {
		c.CalendarID = "primary"
	}
	if c.SlotDuration <= 0 {
		c.SlotDuration = slots.DefaultSlotDuration
	}
	if c.UpstreamTimeout <= 0 {
		c.UpstreamTimeout = DefaultUpstreamTimeout
	}
	return c
}

// Dispatcher routes intents to calendar operations. It holds no per-request
// state and is safe for concurrent use.
type Dispatcher struct {
	cal      Calendar
	cfg      Config
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
	audit    *instrumentation.AuditLogger
	validate *validator.Validate
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithAuditLogger sets the audit logger for bookings.
func WithAuditLogger(al *instrumentation.AuditLogger) Option {
	return func(d *Dispatcher) { d.audit = al }
}

// NewDispatcher creates a Dispatcher backed by cal.
func NewDispatcher(cal Calendar, cfg Config, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		cal:      cal,
		cfg:      cfg.withDefaults(),
		logger:   slog.Default(),
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Config returns the effective configuration.
func (d *Dispatcher) Config() Config {
	return d.cfg
}

// HandleIntent dispatches one intent and always produces a reply.
func (d *Dispatcher) HandleIntent(ctx context.Context, payload IntentPayload) Result {
	ctx, span := instrumentation.StartIntentSpan(ctx, string(payload.Name), d.cfg.CalendarID)
	defer span.End()

	start := time.Now()
	var res Result
	switch payload.Name {
	case IntentCheckAvailability:
		res = d.checkAvailability(ctx, payload.Parameters)
	case IntentBookAppointment:
		res = d.bookAppointment(ctx, payload.Parameters)
	default:
		res = Result{Text: TextNotUnderstood}
	}

	outcome := outcomeOf(payload.Name, res.Err)
	d.metrics.RecordIntent(ctx, string(payload.Name), outcome)

	attrs := []slog.Attr{
		logging.Intent(string(payload.Name)),
		slog.String("outcome", outcome),
		slog.Duration(logging.KeyDuration, time.Since(start)),
	}
	if res.Err != nil {
		instrumentation.SetSpanError(span, res.Err)
		attrs = append(attrs, logging.Err(res.Err))
	} else {
		instrumentation.SetSpanSuccess(span)
	}

	level := slog.LevelInfo
	var ue *UpstreamError
	if errors.As(res.Err, &ue) {
		level = slog.LevelError
	}
	d.logger.LogAttrs(ctx, level, "intent dispatched", attrs...)

	return res
}

func outcomeOf(intent Intent, err error) string {
	var ire *InvalidRequestError
	switch {
	case errors.As(err, &ire):
		return instrumentation.OutcomeInvalidRequest
	case err != nil:
		return instrumentation.OutcomeUpstreamError
	case intent == IntentUnrecognized:
		return instrumentation.OutcomeUnmatched
	default:
		return instrumentation.OutcomeFulfilled
	}
}

func (d *Dispatcher) checkAvailability(ctx context.Context, params map[string]any) Result {
	window, err := ResolveWindow(params)
	if err != nil {
		return failure(err)
	}

	free, err := d.FreeSlots(ctx, window)
	if err != nil {
		var ire *InvalidRequestError
		if errors.As(err, &ire) {
			return failure(err)
		}
		return Result{Text: TextAvailabilityFailed, Err: err}
	}

	return Result{Text: FormatSlots(free)}
}

func (d *Dispatcher) bookAppointment(ctx context.Context, params map[string]any) Result {
	req, err := ParseAppointment(params)
	if err != nil {
		return failure(err)
	}

	_, err = d.Book(ctx, req)
	if err != nil {
		var ue *UpstreamError
		if errors.As(err, &ue) {
			return Result{Text: bookingFailedPrefix + ue.Message(), Err: err}
		}
		return failure(err)
	}

	return Result{Text: Confirmation(req.Summary, req.Start)}
}

// failure turns an InvalidRequestError into a reply whose text is its reason.
func failure(err error) Result {
	var ire *InvalidRequestError
	if errors.As(err, &ire) {
		return Result{Text: ire.Reason, Err: err}
	}
	return Result{Text: err.Error(), Err: err}
}

// FormatSlots renders slot starts as the availability reply.
func FormatSlots(free []time.Time) string {
	if len(free) == 0 {
		return TextNoSlots
	}
	parts := make([]string, len(free))
	for i, t := range free {
		parts[i] = t.UTC().Format(time.RFC3339)
	}
	return availableSlotsPrefix + strings.Join(parts, ", ")
}

// Confirmation renders the booking confirmation reply.
func Confirmation(summary string, start time.Time) string {
	return fmt.Sprintf(confirmationFormat, summary, start.UTC().Format(time.RFC3339))
}
