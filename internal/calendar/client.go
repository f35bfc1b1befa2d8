package calendar

import (
	"context"
	"fmt"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const utc = "UTC"

// Client wraps the Google Calendar service
type Client struct {
	svc *calendar.Service
}

var _ API = (*Client)(nil)

// NewClient creates a Calendar client. Authorization comes from opts,
// typically built by google.ClientOptions.
func NewClient(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// QueryBusy returns the busy intervals of one calendar inside [timeMin, timeMax].
func (c *Client) QueryBusy(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]TimeRange, error) {
	query := &calendar.FreeBusyRequest{
		TimeMin:  timeMin.UTC().Format(time.RFC3339),
		TimeMax:  timeMax.UTC().Format(time.RFC3339),
		TimeZone: utc,
		Items:    []*calendar.FreeBusyRequestItem{{Id: calendarID}},
	}

	result, err := c.svc.Freebusy.Query(query).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to query freebusy: %w", err)
	}

	cal, ok := result.Calendars[calendarID]
	if !ok {
		return nil, &FreeBusyError{CalendarID: calendarID}
	}
	if len(cal.Errors) > 0 {
		fbErr := &FreeBusyError{CalendarID: calendarID}
		for _, e := range cal.Errors {
			fbErr.Reasons = append(fbErr.Reasons, e.Reason)
		}
		return nil, fbErr
	}

	busy := make([]TimeRange, 0, len(cal.Busy))
	for _, period := range cal.Busy {
		start, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			return nil, fmt.Errorf("invalid busy start %q: %w", period.Start, err)
		}
		end, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			return nil, fmt.Errorf("invalid busy end %q: %w", period.End, err)
		}
		busy = append(busy, TimeRange{Start: start.UTC(), End: end.UTC()})
	}

	return busy, nil
}

// ListEvents lists single events in a calendar within a time range, ordered by start.
func (c *Client) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]EventSummary, error) {
	call := c.svc.Events.List(calendarID).
		TimeMin(timeMin.UTC().Format(time.RFC3339)).
		TimeMax(timeMax.UTC().Format(time.RFC3339)).
		TimeZone(utc).
		SingleEvents(true).
		OrderBy("startTime")

	summaries := []EventSummary{}
	err := call.Pages(ctx, func(page *calendar.Events) error {
		for _, event := range page.Items {
			summaries = append(summaries, toEventSummary(event))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	return summaries, nil
}

// InsertEvent creates a new calendar event with UTC start and end.
func (c *Client) InsertEvent(ctx context.Context, calendarID string, input EventInput) (*EventSummary, error) {
	event := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Start: &calendar.EventDateTime{
			DateTime: input.Start.UTC().Format(time.RFC3339),
			TimeZone: utc,
		},
		End: &calendar.EventDateTime{
			DateTime: input.End.UTC().Format(time.RFC3339),
			TimeZone: utc,
		},
	}

	for _, email := range input.Attendees {
		event.Attendees = append(event.Attendees, &calendar.EventAttendee{Email: email})
	}

	call := c.svc.Events.Insert(calendarID, event).Context(ctx)
	if len(event.Attendees) > 0 {
		call = call.SendUpdates("all")
	}

	created, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	summary := toEventSummary(created)
	return &summary, nil
}
