package server

import (
	"context"
	"sync"
	"time"

	"github.com/teemow/calbridge/internal/calendar"
)

// fakeCalendar is an in-memory booking.Calendar.
type fakeCalendar struct {
	mu        sync.Mutex
	busy      []calendar.TimeRange
	events    []calendar.EventSummary
	err       error
	lastInput calendar.EventInput
	inserts   int
}

func (f *fakeCalendar) QueryBusy(_ context.Context, _ string, _, _ time.Time) ([]calendar.TimeRange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.busy, nil
}

func (f *fakeCalendar) ListEvents(_ context.Context, _ string, _, _ time.Time) ([]calendar.EventSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func (f *fakeCalendar) InsertEvent(_ context.Context, _ string, input calendar.EventInput) (*calendar.EventSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts++
	f.lastInput = input
	if f.err != nil {
		return nil, f.err
	}
	return &calendar.EventSummary{
		ID:       "evt-1",
		Summary:  input.Summary,
		Start:    input.Start,
		End:      input.End,
		HTMLLink: "https://calendar.example.com/evt-1",
	}, nil
}
