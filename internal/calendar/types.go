package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// API is the calendar capability used by the booking dispatcher.
type API interface {
	QueryBusy(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]TimeRange, error)
	ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]EventSummary, error)
	InsertEvent(ctx context.Context, calendarID string, input EventInput) (*EventSummary, error)
}

// EventInput represents the input for creating a calendar event
type EventInput struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Attendees   []string
}

// EventSummary represents a simplified calendar event
type EventSummary struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Status      string
	HTMLLink    string
	Attendees   []AttendeeInfo
}

// AttendeeInfo represents information about an event attendee
type AttendeeInfo struct {
	Email          string
	ResponseStatus string // "needsAction", "declined", "tentative", "accepted"
}

// TimeRange represents a busy time range
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// FreeBusyError reports the per-calendar errors returned by a free/busy query.
type FreeBusyError struct {
	CalendarID string
	Reasons    []string
}

func (e *FreeBusyError) Error() string {
	if len(e.Reasons) == 0 {
		return fmt.Sprintf("calendar %s missing from freebusy response", e.CalendarID)
	}
	return fmt.Sprintf("freebusy query for calendar %s failed: %s", e.CalendarID, strings.Join(e.Reasons, ", "))
}

// toEventSummary converts a Google Calendar event to an EventSummary
func toEventSummary(event *calendar.Event) EventSummary {
	if event == nil {
		return EventSummary{}
	}

	summary := EventSummary{
		ID:          event.Id,
		Summary:     event.Summary,
		Description: event.Description,
		Status:      event.Status,
		HTMLLink:    event.HtmlLink,
		Start:       parseEventTime(event.Start),
		End:         parseEventTime(event.End),
	}

	for _, att := range event.Attendees {
		summary.Attendees = append(summary.Attendees, AttendeeInfo{
			Email:          att.Email,
			ResponseStatus: att.ResponseStatus,
		})
	}

	return summary
}

// parseEventTime handles both timed and all-day events. All-day dates are
// taken as midnight UTC.
func parseEventTime(edt *calendar.EventDateTime) time.Time {
	if edt == nil {
		return time.Time{}
	}
	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			return t.UTC()
		}
	}
	if edt.Date != "" {
		if t, err := time.Parse(time.DateOnly, edt.Date); err == nil {
			return t
		}
	}
	return time.Time{}
}
