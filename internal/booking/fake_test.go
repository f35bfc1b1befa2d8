package booking

import (
	"context"
	"sync"
	"time"

	"github.com/teemow/calbridge/internal/calendar"
)

// fakeCalendar records calls and returns canned responses.
type fakeCalendar struct {
	mu sync.Mutex

	busy     []calendar.TimeRange
	events   []calendar.EventSummary
	inserted *calendar.EventSummary
	err      error
	block    bool

	busyCalls   int
	listCalls   int
	insertCalls int
	lastID      string
	lastMin     time.Time
	lastMax     time.Time
	lastInput   calendar.EventInput
	hadDeadline bool
}

func (f *fakeCalendar) record(ctx context.Context, calendarID string) error {
	f.lastID = calendarID
	_, f.hadDeadline = ctx.Deadline()
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

func (f *fakeCalendar) QueryBusy(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]calendar.TimeRange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.busyCalls++
	f.lastMin, f.lastMax = timeMin, timeMax
	if err := f.record(ctx, calendarID); err != nil {
		return nil, err
	}
	return f.busy, nil
}

func (f *fakeCalendar) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]calendar.EventSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	f.lastMin, f.lastMax = timeMin, timeMax
	if err := f.record(ctx, calendarID); err != nil {
		return nil, err
	}
	return f.events, nil
}

func (f *fakeCalendar) InsertEvent(ctx context.Context, calendarID string, input calendar.EventInput) (*calendar.EventSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls++
	f.lastInput = input
	if err := f.record(ctx, calendarID); err != nil {
		return nil, err
	}
	if f.inserted != nil {
		return f.inserted, nil
	}
	return &calendar.EventSummary{ID: "evt-1", Summary: input.Summary, Start: input.Start, End: input.End}, nil
}

func (f *fakeCalendar) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busyCalls + f.listCalls + f.insertCalls
}
