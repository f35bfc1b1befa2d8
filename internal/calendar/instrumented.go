package calendar

import (
	"context"
	"time"

	"github.com/teemow/calbridge/internal/instrumentation"
)

// Instrumented records metrics and a client span for every call to the
// wrapped API.
type Instrumented struct {
	next    API
	metrics *instrumentation.Metrics
}

var _ API = (*Instrumented)(nil)

// NewInstrumented wraps next. A nil metrics recorder disables metrics but
// keeps tracing.
func NewInstrumented(next API, metrics *instrumentation.Metrics) *Instrumented {
	return &Instrumented{next: next, metrics: metrics}
}

func (i *Instrumented) observe(ctx context.Context, operation string, start time.Time, err error) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	i.metrics.RecordCalendarOperation(ctx, operation, status, time.Since(start))
}

// QueryBusy implements API.
func (i *Instrumented) QueryBusy(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]TimeRange, error) {
	ctx, span := instrumentation.StartCalendarSpan(ctx, instrumentation.OperationFreeBusy, calendarID)
	defer span.End()

	start := time.Now()
	busy, err := i.next.QueryBusy(ctx, calendarID, timeMin, timeMax)
	i.observe(ctx, instrumentation.OperationFreeBusy, start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, err
	}
	instrumentation.SetSpanSuccess(span)
	return busy, nil
}

// ListEvents implements API.
func (i *Instrumented) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]EventSummary, error) {
	ctx, span := instrumentation.StartCalendarSpan(ctx, instrumentation.OperationListEvents, calendarID)
	defer span.End()

	start := time.Now()
	events, err := i.next.ListEvents(ctx, calendarID, timeMin, timeMax)
	i.observe(ctx, instrumentation.OperationListEvents, start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, err
	}
	instrumentation.SetSpanSuccess(span)
	return events, nil
}

// InsertEvent implements API.
func (i *Instrumented) InsertEvent(ctx context.Context, calendarID string, input EventInput) (*EventSummary, error) {
	ctx, span := instrumentation.StartCalendarSpan(ctx, instrumentation.OperationInsertEvent, calendarID)
	defer span.End()

	start := time.Now()
	event, err := i.next.InsertEvent(ctx, calendarID, input)
	i.observe(ctx, instrumentation.OperationInsertEvent, start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, err
	}
	span.SetAttributes(instrumentation.NewSpanAttributeBuilder().WithEventID(event.ID).Build()...)
	instrumentation.SetSpanSuccess(span)
	return event, nil
}
