package booking

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/calbridge/internal/calendar"
	"github.com/teemow/calbridge/internal/instrumentation"
	"github.com/teemow/calbridge/internal/slots"
)

// AppointmentRequest is a validated booking request.
type AppointmentRequest struct {
	Summary       string    `json:"summary" validate:"required"`
	Description   string    `json:"description,omitempty"`
	Start         time.Time `json:"start" validate:"required"`
	End           time.Time `json:"end" validate:"required,gtfield=Start"`
	AttendeeEmail string    `json:"attendeeEmail,omitempty" validate:"omitempty,email"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationReason turns validator errors into one user-facing sentence.
func validationReason(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s %q is not a valid email address", fe.Field(), fe.Value()))
		case "gtfield":
			msgs = append(msgs, fe.Field()+" must be after "+strings.ToLower(fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// ResolveWindow derives the availability window from intent parameters.
// A complete startTime/endTime pair wins over date.
func ResolveWindow(params map[string]any) (slots.TimeWindow, error) {
	vals, err := stringParams(params, keys(ParamStartTime), keys(ParamEndTime), keys(ParamDate))
	if err != nil {
		return slots.TimeWindow{}, err
	}
	startS, endS, dateS := vals[0], vals[1], vals[2]

	switch {
	case startS != "" && endS != "":
		return WindowFromTimestamps(startS, endS)
	case dateS != "":
		return WindowFromDate(dateS)
	case startS != "" || endS != "":
		return slots.TimeWindow{}, invalid("%s and %s must be given together", ParamStartTime, ParamEndTime)
	default:
		return slots.TimeWindow{}, &InvalidRequestError{Reason: TextDateRequired}
	}
}

// WindowFromDate returns the UTC day window of a YYYY-MM-DD or RFC 3339 date.
func WindowFromDate(date string) (slots.TimeWindow, error) {
	d, err := slots.ParseDate(date)
	if err != nil {
		return slots.TimeWindow{}, &InvalidRequestError{Reason: err.Error()}
	}
	return slots.DayWindow(d), nil
}

// WindowFromTimestamps builds a window from two RFC 3339 timestamps.
func WindowFromTimestamps(start, end string) (slots.TimeWindow, error) {
	s, err := slots.ParseTimestamp(start)
	if err != nil {
		return slots.TimeWindow{}, &InvalidRequestError{Reason: err.Error()}
	}
	e, err := slots.ParseTimestamp(end)
	if err != nil {
		return slots.TimeWindow{}, &InvalidRequestError{Reason: err.Error()}
	}
	w, err := slots.NewWindow(s, e)
	if err != nil {
		return slots.TimeWindow{}, &InvalidRequestError{Reason: err.Error()}
	}
	return w, nil
}

// ParseAppointment extracts a booking request from intent parameters.
// Missing summary, start or end yields TextMissingFields.
func ParseAppointment(params map[string]any) (AppointmentRequest, error) {
	vals, err := stringParams(params,
		keys(ParamSummary),
		keys(ParamStart, ParamStartTime),
		keys(ParamEnd, ParamEndTime),
		keys(ParamAttendeeEmail, ParamEmail),
		keys(ParamDescription),
	)
	if err != nil {
		return AppointmentRequest{}, err
	}
	summary, startS, endS, email, description := vals[0], vals[1], vals[2], vals[3], vals[4]

	if summary == "" || startS == "" || endS == "" {
		return AppointmentRequest{}, &InvalidRequestError{Reason: TextMissingFields}
	}

	start, err := slots.ParseTimestamp(startS)
	if err != nil {
		return AppointmentRequest{}, &InvalidRequestError{Reason: err.Error()}
	}
	end, err := slots.ParseTimestamp(endS)
	if err != nil {
		return AppointmentRequest{}, &InvalidRequestError{Reason: err.Error()}
	}

	return AppointmentRequest{
		Summary:       summary,
		Description:   description,
		Start:         start,
		End:           end,
		AttendeeEmail: email,
	}, nil
}

// upstreamContext bounds one outbound call.
func (d *Dispatcher) upstreamContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d.cfg.UpstreamTimeout)
}

// FreeSlots returns the free slot starts of the configured calendar in window.
func (d *Dispatcher) FreeSlots(ctx context.Context, window slots.TimeWindow) ([]time.Time, error) {
	if err := window.Validate(); err != nil {
		return nil, &InvalidRequestError{Reason: err.Error()}
	}

	callCtx, cancel := d.upstreamContext(ctx)
	defer cancel()

	busy, err := d.cal.QueryBusy(callCtx, d.cfg.CalendarID, window.Start, window.End)
	if err != nil {
		return nil, &UpstreamError{Op: instrumentation.OperationFreeBusy, Err: err}
	}

	intervals := make([]slots.BusyInterval, len(busy))
	for i, b := range busy {
		intervals[i] = slots.BusyInterval{Start: b.Start, End: b.End}
	}

	free, err := slots.ComputeFreeSlots(window, intervals, d.cfg.SlotDuration)
	if err != nil {
		return nil, &InvalidRequestError{Reason: err.Error()}
	}
	d.metrics.RecordFreeSlots(ctx, len(free))
	trace.SpanFromContext(ctx).SetAttributes(instrumentation.NewSpanAttributeBuilder().WithSlotCount(len(free)).Build()...)
	return free, nil
}

// BusyEvents lists the events of the configured calendar in window.
func (d *Dispatcher) BusyEvents(ctx context.Context, window slots.TimeWindow) ([]calendar.EventSummary, error) {
	if err := window.Validate(); err != nil {
		return nil, &InvalidRequestError{Reason: err.Error()}
	}

	callCtx, cancel := d.upstreamContext(ctx)
	defer cancel()

	events, err := d.cal.ListEvents(callCtx, d.cfg.CalendarID, window.Start, window.End)
	if err != nil {
		return nil, &UpstreamError{Op: instrumentation.OperationListEvents, Err: err}
	}
	return events, nil
}

// Book validates req and creates the event on the configured calendar.
func (d *Dispatcher) Book(ctx context.Context, req AppointmentRequest) (*calendar.EventSummary, error) {
	req.Summary = strings.TrimSpace(req.Summary)
	req.AttendeeEmail = strings.TrimSpace(req.AttendeeEmail)
	if err := d.validate.Struct(req); err != nil {
		return nil, &InvalidRequestError{Reason: validationReason(err)}
	}

	record := instrumentation.NewBookingRecord(SourceFromContext(ctx), d.cfg.CalendarID).
		WithEvent(req.Summary, req.Start.UTC().Format(time.RFC3339), req.End.UTC().Format(time.RFC3339), req.AttendeeEmail).
		WithSpanContext(ctx)

	input := calendar.EventInput{
		Summary:     req.Summary,
		Description: req.Description,
		Start:       req.Start.UTC(),
		End:         req.End.UTC(),
	}
	if req.AttendeeEmail != "" {
		input.Attendees = []string{req.AttendeeEmail}
	}

	callCtx, cancel := d.upstreamContext(ctx)
	defer cancel()

	event, err := d.cal.InsertEvent(callCtx, d.cfg.CalendarID, input)
	if err != nil {
		d.audit.LogBooking(ctx, record.Complete("", err))
		return nil, &UpstreamError{Op: instrumentation.OperationInsertEvent, Err: err}
	}
	if event == nil {
		event = &calendar.EventSummary{}
	}

	d.audit.LogBooking(ctx, record.Complete(event.ID, nil))
	return event, nil
}
