package booking

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calbridge/internal/calendar"
	"github.com/teemow/calbridge/internal/instrumentation"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, 5, 1, hour, minute, 0, 0, time.UTC)
}

func newTestDispatcher(cal Calendar, opts ...Option) *Dispatcher {
	return NewDispatcher(cal, Config{CalendarID: "bookings@example.com"}, opts...)
}

func TestHandleIntent_CheckAvailability_Window(t *testing.T) {
	cal := &fakeCalendar{busy: []calendar.TimeRange{{Start: at(9, 30), End: at(10, 0)}}}
	d := newTestDispatcher(cal)

	res := d.HandleIntent(context.Background(), IntentPayload{
		Name: IntentCheckAvailability,
		Parameters: map[string]any{
			ParamStartTime: "2024-05-01T09:00:00Z",
			ParamEndTime:   "2024-05-01T11:00:00Z",
		},
	})

	require.NoError(t, res.Err)
	assert.Equal(t, "Available slots: 2024-05-01T09:00:00Z, 2024-05-01T10:00:00Z, 2024-05-01T10:30:00Z", res.Text)
	assert.Equal(t, 1, cal.busyCalls)
	assert.Equal(t, "bookings@example.com", cal.lastID)
	assert.Equal(t, at(9, 0), cal.lastMin)
	assert.Equal(t, at(11, 0), cal.lastMax)
	assert.True(t, cal.hadDeadline, "upstream calls must carry a deadline")
}

func TestHandleIntent_CheckAvailability_Date(t *testing.T) {
	cal := &fakeCalendar{}
	d := newTestDispatcher(cal)

	res := d.HandleIntent(context.Background(), IntentPayload{
		Name:       IntentCheckAvailability,
		Parameters: map[string]any{ParamDate: "2024-05-01"},
	})

	require.NoError(t, res.Err)
	assert.Equal(t, at(0, 0), cal.lastMin)
	assert.Equal(t, time.Date(2024, 5, 1, 23, 59, 59, 0, time.UTC), cal.lastMax)
	assert.True(t, strings.HasPrefix(res.Text, "Available slots: 2024-05-01T00:00:00Z, 2024-05-01T00:30:00Z"))
	assert.True(t, strings.HasSuffix(res.Text, "2024-05-01T23:00:00Z"))
	assert.Equal(t, 47, strings.Count(res.Text, "Z"))
}

func TestHandleIntent_CheckAvailability_WindowWinsOverDate(t *testing.T) {
	cal := &fakeCalendar{}
	d := newTestDispatcher(cal)

	res := d.HandleIntent(context.Background(), IntentPayload{
		Name: IntentCheckAvailability,
		Parameters: map[string]any{
			ParamDate:      "2024-06-01",
			ParamStartTime: "2024-05-01T09:00:00Z",
			ParamEndTime:   "2024-05-01T10:00:00Z",
		},
	})

	require.NoError(t, res.Err)
	assert.Equal(t, at(9, 0), cal.lastMin)
	assert.Equal(t, "Available slots: 2024-05-01T09:00:00Z, 2024-05-01T09:30:00Z", res.Text)
}

func TestHandleIntent_CheckAvailability_NoSlots(t *testing.T) {
	cal := &fakeCalendar{busy: []calendar.TimeRange{{Start: at(9, 15), End: at(9, 45)}}}
	d := newTestDispatcher(cal)

	res := d.HandleIntent(context.Background(), IntentPayload{
		Name: IntentCheckAvailability,
		Parameters: map[string]any{
			ParamStartTime: "2024-05-01T09:00:00Z",
			ParamEndTime:   "2024-05-01T10:00:00Z",
		},
	})

	require.NoError(t, res.Err)
	assert.Equal(t, TextNoSlots, res.Text)
}

func TestHandleIntent_CheckAvailability_DateRequired(t *testing.T) {
	for _, params := range []map[string]any{
		nil,
		{},
		{ParamDate: ""},
		{ParamDate: nil},
		{ParamDate: "   "},
	} {
		cal := &fakeCalendar{}
		res := newTestDispatcher(cal).HandleIntent(context.Background(), IntentPayload{
			Name:       IntentCheckAvailability,
			Parameters: params,
		})

		assert.Equal(t, TextDateRequired, res.Text)
		var ire *InvalidRequestError
		assert.ErrorAs(t, res.Err, &ire)
		assert.Zero(t, cal.calls(), "no upstream call for %v", params)
	}
}

func TestHandleIntent_CheckAvailability_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
		want   string
	}{
		{"bad date", map[string]any{ParamDate: "tomorrow"}, "invalid date"},
		{"bad start", map[string]any{ParamStartTime: "9am", ParamEndTime: "2024-05-01T10:00:00Z"}, "invalid timestamp"},
		{"inverted window", map[string]any{ParamStartTime: "2024-05-01T10:00:00Z", ParamEndTime: "2024-05-01T09:00:00Z"}, "start must be before end"},
		{"empty window", map[string]any{ParamStartTime: "2024-05-01T10:00:00Z", ParamEndTime: "2024-05-01T10:00:00Z"}, "start must be before end"},
		{"lone start", map[string]any{ParamStartTime: "2024-05-01T10:00:00Z"}, "must be given together"},
		{"non-string date", map[string]any{ParamDate: 20240501.0}, "must be a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cal := &fakeCalendar{}
			res := newTestDispatcher(cal).HandleIntent(context.Background(), IntentPayload{
				Name:       IntentCheckAvailability,
				Parameters: tt.params,
			})

			var ire *InvalidRequestError
			require.ErrorAs(t, res.Err, &ire)
			assert.Contains(t, res.Text, tt.want)
			assert.Equal(t, http.StatusBadRequest, StatusCode(res.Err))
			assert.Zero(t, cal.calls())
		})
	}
}

func TestHandleIntent_CheckAvailability_UpstreamFailure(t *testing.T) {
	cal := &fakeCalendar{err: errors.New("oauth2: token expired")}
	d := newTestDispatcher(cal)

	res := d.HandleIntent(context.Background(), IntentPayload{
		Name:       IntentCheckAvailability,
		Parameters: map[string]any{ParamDate: "2024-05-01"},
	})

	var ue *UpstreamError
	require.ErrorAs(t, res.Err, &ue)
	assert.Equal(t, instrumentation.OperationFreeBusy, ue.Op)
	assert.Equal(t, TextAvailabilityFailed, res.Text)
	assert.Equal(t, http.StatusInternalServerError, StatusCode(res.Err))
}

func TestHandleIntent_CheckAvailability_Timeout(t *testing.T) {
	cal := &fakeCalendar{block: true}
	d := NewDispatcher(cal, Config{UpstreamTimeout: 20 * time.Millisecond})

	start := time.Now()
	res := d.HandleIntent(context.Background(), IntentPayload{
		Name:       IntentCheckAvailability,
		Parameters: map[string]any{ParamDate: "2024-05-01"},
	})

	assert.Less(t, time.Since(start), 2*time.Second)
	var ue *UpstreamError
	require.ErrorAs(t, res.Err, &ue)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestHandleIntent_BookAppointment(t *testing.T) {
	cal := &fakeCalendar{}
	d := newTestDispatcher(cal)

	res := d.HandleIntent(context.Background(), IntentPayload{
		Name: IntentBookAppointment,
		Parameters: map[string]any{
			ParamSummary:       "Dental checkup",
			ParamStart:         "2024-05-01T12:00:00+02:00",
			ParamEnd:           "2024-05-01T12:30:00+02:00",
			ParamAttendeeEmail: "jane@example.com",
			ParamDescription:   "bring x-rays",
		},
	})

	require.NoError(t, res.Err)
	assert.Equal(t, "✅ Appointment confirmed for Dental checkup on 2024-05-01T10:00:00Z", res.Text)
	assert.Equal(t, 1, cal.insertCalls)
	assert.Equal(t, calendar.EventInput{
		Summary:     "Dental checkup",
		Description: "bring x-rays",
		Start:       at(10, 0),
		End:         at(10, 30),
		Attendees:   []string{"jane@example.com"},
	}, cal.lastInput)
	assert.True(t, cal.hadDeadline)
}

func TestHandleIntent_BookAppointment_Aliases(t *testing.T) {
	cal := &fakeCalendar{}
	d := newTestDispatcher(cal)

	res := d.HandleIntent(context.Background(), IntentPayload{
		Name: IntentBookAppointment,
		Parameters: map[string]any{
			ParamSummary:   "Call",
			ParamStartTime: "2024-05-01T09:00:00Z",
			ParamEndTime:   "2024-05-01T09:30:00Z",
			ParamEmail:     "bob@example.com",
		},
	})

	require.NoError(t, res.Err)
	assert.Equal(t, []string{"bob@example.com"}, cal.lastInput.Attendees)
	assert.Equal(t, at(9, 0), cal.lastInput.Start)
}

func TestHandleIntent_BookAppointment_MissingFields(t *testing.T) {
	base := map[string]any{
		ParamSummary: "Call",
		ParamStart:   "2024-05-01T09:00:00Z",
		ParamEnd:     "2024-05-01T09:30:00Z",
	}

	for _, missing := range []string{ParamSummary, ParamStart, ParamEnd} {
		t.Run(missing, func(t *testing.T) {
			params := map[string]any{}
			for k, v := range base {
				if k != missing {
					params[k] = v
				}
			}

			cal := &fakeCalendar{}
			res := newTestDispatcher(cal).HandleIntent(context.Background(), IntentPayload{
				Name:       IntentBookAppointment,
				Parameters: params,
			})

			assert.Equal(t, TextMissingFields, res.Text)
			var ire *InvalidRequestError
			assert.ErrorAs(t, res.Err, &ire)
			assert.Zero(t, cal.calls(), "missing %s must not reach the calendar", missing)
		})
	}
}

func TestHandleIntent_BookAppointment_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
		want   string
	}{
		{
			name:   "bad email",
			params: map[string]any{ParamSummary: "x", ParamStart: "2024-05-01T09:00:00Z", ParamEnd: "2024-05-01T09:30:00Z", ParamAttendeeEmail: "not-an-email"},
			want:   "not a valid email address",
		},
		{
			name:   "end before start",
			params: map[string]any{ParamSummary: "x", ParamStart: "2024-05-01T09:30:00Z", ParamEnd: "2024-05-01T09:00:00Z"},
			want:   "end must be after start",
		},
		{
			name:   "unparseable start",
			params: map[string]any{ParamSummary: "x", ParamStart: "tomorrow", ParamEnd: "2024-05-01T09:00:00Z"},
			want:   "invalid timestamp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cal := &fakeCalendar{}
			res := newTestDispatcher(cal).HandleIntent(context.Background(), IntentPayload{
				Name:       IntentBookAppointment,
				Parameters: tt.params,
			})

			var ire *InvalidRequestError
			require.ErrorAs(t, res.Err, &ire)
			assert.Contains(t, res.Text, tt.want)
			assert.Zero(t, cal.calls())
		})
	}
}

func TestHandleIntent_BookAppointment_UpstreamFailure(t *testing.T) {
	cal := &fakeCalendar{err: errors.New("Rate Limit Exceeded")}
	d := newTestDispatcher(cal)

	res := d.HandleIntent(context.Background(), IntentPayload{
		Name: IntentBookAppointment,
		Parameters: map[string]any{
			ParamSummary: "Call",
			ParamStart:   "2024-05-01T09:00:00Z",
			ParamEnd:     "2024-05-01T09:30:00Z",
		},
	})

	assert.Equal(t, "Failed to book appointment: Rate Limit Exceeded", res.Text)
	var ue *UpstreamError
	require.ErrorAs(t, res.Err, &ue)
	assert.Equal(t, instrumentation.OperationInsertEvent, ue.Op)
}

func TestHandleIntent_Unrecognized(t *testing.T) {
	cal := &fakeCalendar{}
	res := newTestDispatcher(cal).HandleIntent(context.Background(), IntentPayload{
		Name: ParseIntent("CancelAppointment"),
	})

	assert.Equal(t, TextNotUnderstood, res.Text)
	assert.NoError(t, res.Err)
	assert.Zero(t, cal.calls())
}

func TestHandleIntent_LogsWithoutRawEmail(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	audit := instrumentation.NewAuditLogger(logger)
	d := newTestDispatcher(&fakeCalendar{}, WithLogger(logger), WithAuditLogger(audit))

	ctx := ContextWithSource(context.Background(), SourceWebhook)
	res := d.HandleIntent(ctx, IntentPayload{
		Name: IntentBookAppointment,
		Parameters: map[string]any{
			ParamSummary:       "Call",
			ParamStart:         "2024-05-01T09:00:00Z",
			ParamEnd:           "2024-05-01T09:30:00Z",
			ParamAttendeeEmail: "jane@example.com",
		},
	})
	require.NoError(t, res.Err)

	out := buf.String()
	assert.Contains(t, out, `"msg":"booking_created"`)
	assert.Contains(t, out, `"source":"webhook"`)
	assert.Contains(t, out, `"msg":"intent dispatched"`)
	assert.Contains(t, out, `"outcome":"fulfilled"`)
	assert.NotContains(t, out, "jane@example.com")
}

func TestParseIntent(t *testing.T) {
	assert.Equal(t, IntentCheckAvailability, ParseIntent("CheckAvailability"))
	assert.Equal(t, IntentBookAppointment, ParseIntent("BookAppointment"))
	assert.Equal(t, IntentUnrecognized, ParseIntent("checkavailability"))
	assert.Equal(t, IntentUnrecognized, ParseIntent(""))
}

func TestNewDispatcher_Defaults(t *testing.T) {
	cfg := NewDispatcher(&fakeCalendar{}, Config{}).Config()
	assert.Equal(t, "primary", cfg.CalendarID)
	assert.Equal(t, 30*time.Minute, cfg.SlotDuration)
	assert.Equal(t, DefaultUpstreamTimeout, cfg.UpstreamTimeout)
}
