package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

var (
	testMin = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	testMax = time.Date(2024, 5, 1, 23, 59, 59, 0, time.UTC)
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestClient_QueryBusy(t *testing.T) {
	var got gcal.FreeBusyRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.True(t, strings.HasSuffix(r.URL.Path, "/freeBusy"), r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		writeJSON(t, w, http.StatusOK, map[string]any{
			"kind": "calendar#freeBusy",
			"calendars": map[string]any{
				"primary": map[string]any{
					"busy": []map[string]string{
						{"start": "2024-05-01T10:00:00Z", "end": "2024-05-01T10:30:00Z"},
						{"start": "2024-05-01T16:00:00+02:00", "end": "2024-05-01T17:00:00+02:00"},
					},
				},
			},
		})
	})

	busy, err := client.QueryBusy(context.Background(), "primary", testMin, testMax)
	require.NoError(t, err)

	assert.Equal(t, "2024-05-01T00:00:00Z", got.TimeMin)
	assert.Equal(t, "2024-05-01T23:59:59Z", got.TimeMax)
	assert.Equal(t, "UTC", got.TimeZone)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "primary", got.Items[0].Id)

	require.Len(t, busy, 2)
	assert.Equal(t, TimeRange{
		Start: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
	}, busy[0])
	assert.Equal(t, time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC), busy[1].Start)
	assert.Equal(t, time.UTC, busy[1].Start.Location())
}

func TestClient_QueryBusy_Empty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"calendars": map[string]any{"primary": map[string]any{}},
		})
	})

	busy, err := client.QueryBusy(context.Background(), "primary", testMin, testMax)
	require.NoError(t, err)
	assert.NotNil(t, busy)
	assert.Empty(t, busy)
}

func TestClient_QueryBusy_CalendarErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"calendars": map[string]any{
				"bookings@example.com": map[string]any{
					"errors": []map[string]string{{"domain": "global", "reason": "notFound"}},
				},
			},
		})
	})

	_, err := client.QueryBusy(context.Background(), "bookings@example.com", testMin, testMax)
	var fbErr *FreeBusyError
	require.ErrorAs(t, err, &fbErr)
	assert.Equal(t, []string{"notFound"}, fbErr.Reasons)
	assert.Contains(t, err.Error(), "notFound")
}

func TestClient_QueryBusy_MissingCalendar(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"calendars": map[string]any{}})
	})

	_, err := client.QueryBusy(context.Background(), "primary", testMin, testMax)
	var fbErr *FreeBusyError
	require.ErrorAs(t, err, &fbErr)
	assert.Equal(t, "primary", fbErr.CalendarID)
	assert.Contains(t, err.Error(), "missing")
}

func TestClient_QueryBusy_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusForbidden, map[string]any{
			"error": map[string]any{"code": 403, "message": "forbidden"},
		})
	})

	_, err := client.QueryBusy(context.Background(), "primary", testMin, testMax)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query freebusy")

	var apiErr *googleapi.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Code)
}

func TestClient_QueryBusy_ContextCanceled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.QueryBusy(ctx, "primary", testMin, testMax)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_ListEvents_Paginates(t *testing.T) {
	var calls int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Equal(t, http.MethodGet, r.Method)
		require.True(t, strings.HasSuffix(r.URL.Path, "/calendars/primary/events"), r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "true", q.Get("singleEvents"))
		assert.Equal(t, "startTime", q.Get("orderBy"))
		assert.Equal(t, "2024-05-01T00:00:00Z", q.Get("timeMin"))

		if q.Get("pageToken") == "" {
			writeJSON(t, w, http.StatusOK, map[string]any{
				"items": []map[string]any{{
					"id":      "evt-1",
					"summary": "Standup",
					"status":  "confirmed",
					"start":   map[string]string{"dateTime": "2024-05-01T09:00:00Z"},
					"end":     map[string]string{"dateTime": "2024-05-01T09:15:00Z"},
				}},
				"nextPageToken": "page-2",
			})
			return
		}

		assert.Equal(t, "page-2", q.Get("pageToken"))
		writeJSON(t, w, http.StatusOK, map[string]any{
			"items": []map[string]any{{
				"id":      "evt-2",
				"summary": "Offsite",
				"start":   map[string]string{"date": "2024-05-01"},
				"end":     map[string]string{"date": "2024-05-02"},
			}},
		})
	})

	events, err := client.ListEvents(context.Background(), "primary", testMin, testMax)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, events, 2)
	assert.Equal(t, "evt-1", events[0].ID)
	assert.Equal(t, time.Date(2024, 5, 1, 9, 15, 0, 0, time.UTC), events[0].End)
	assert.Equal(t, "evt-2", events[1].ID)
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), events[1].End)
}

func TestClient_InsertEvent(t *testing.T) {
	var got gcal.Event
	var sendUpdates string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.True(t, strings.HasSuffix(r.URL.Path, "/calendars/primary/events"), r.URL.Path)
		sendUpdates = r.URL.Query().Get("sendUpdates")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		writeJSON(t, w, http.StatusOK, map[string]any{
			"id":       "evt-42",
			"status":   "confirmed",
			"htmlLink": "https://calendar.google.com/calendar/event?eid=42",
			"summary":  got.Summary,
			"start":    got.Start,
			"end":      got.End,
			"attendees": []map[string]string{
				{"email": "jane@example.com", "responseStatus": "needsAction"},
			},
		})
	})

	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*60*60))
	event, err := client.InsertEvent(context.Background(), "primary", EventInput{
		Summary:     "Consultation",
		Description: "first visit",
		Start:       start,
		End:         start.Add(30 * time.Minute),
		Attendees:   []string{"jane@example.com"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Consultation", got.Summary)
	assert.Equal(t, "first visit", got.Description)
	assert.Equal(t, "2024-05-01T10:00:00Z", got.Start.DateTime)
	assert.Equal(t, "UTC", got.Start.TimeZone)
	assert.Equal(t, "2024-05-01T10:30:00Z", got.End.DateTime)
	require.Len(t, got.Attendees, 1)
	assert.Equal(t, "jane@example.com", got.Attendees[0].Email)
	assert.Equal(t, "all", sendUpdates)

	assert.Equal(t, "evt-42", event.ID)
	assert.Equal(t, "https://calendar.google.com/calendar/event?eid=42", event.HTMLLink)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), event.Start)
	require.Len(t, event.Attendees, 1)
	assert.Equal(t, "needsAction", event.Attendees[0].ResponseStatus)
}

func TestClient_InsertEvent_NoAttendees(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("sendUpdates"))
		writeJSON(t, w, http.StatusOK, map[string]any{"id": "evt-1"})
	})

	event, err := client.InsertEvent(context.Background(), "primary", EventInput{
		Summary: "Solo",
		Start:   testMin,
		End:     testMin.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "evt-1", event.ID)
}

func TestClient_InsertEvent_Error(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusBadRequest, map[string]any{
			"error": map[string]any{"code": 400, "message": "Invalid attendee email."},
		})
	})

	_, err := client.InsertEvent(context.Background(), "primary", EventInput{Summary: "x", Start: testMin, End: testMax})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create event")
	assert.Contains(t, err.Error(), "Invalid attendee email.")
}

func TestToEventSummary_Nil(t *testing.T) {
	assert.Equal(t, EventSummary{}, toEventSummary(nil))
	assert.True(t, parseEventTime(nil).IsZero())
	assert.True(t, parseEventTime(&gcal.EventDateTime{DateTime: "garbage"}).IsZero())
}
