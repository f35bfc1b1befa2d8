package slots

import (
	"errors"
	"sort"
	"time"
)

// DefaultSlotDuration is the length of a bookable slot when none is configured.
const DefaultSlotDuration = 30 * time.Minute

var (
	// ErrInvalidRange is returned when a window does not start before it ends.
	ErrInvalidRange = errors.New("invalid time range: start must be before end")

	// ErrInvalidDuration is returned for a non-positive slot duration.
	ErrInvalidDuration = errors.New("slot duration must be positive")
)

// TimeWindow is the range of time searched for free slots.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// NewWindow returns a window normalized to UTC.
// It fails with ErrInvalidRange unless start is before end.
func NewWindow(start, end time.Time) (TimeWindow, error) {
	w := TimeWindow{Start: start.UTC(), End: end.UTC()}
	if err := w.Validate(); err != nil {
		return TimeWindow{}, err
	}
	return w, nil
}

// Validate reports ErrInvalidRange when the window is empty or inverted.
func (w TimeWindow) Validate() error {
	if !w.Start.Before(w.End) {
		return ErrInvalidRange
	}
	return nil
}

// BusyInterval is a range during which the calendar is occupied.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the interval intersects [start, end).
func (b BusyInterval) Overlaps(start, end time.Time) bool {
	return b.Start.Before(end) && b.End.After(start)
}

// ComputeFreeSlots returns the start of every free slot in the window, in
// increasing order. Slots are aligned to window.Start and a slot is only
// emitted when it ends at or before window.End.
//
// The busy intervals may be unordered and may extend past the window. A
// window shorter than one slot yields an empty result, not an error.
func ComputeFreeSlots(window TimeWindow, busy []BusyInterval, duration time.Duration) ([]time.Time, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	if duration <= 0 {
		return nil, ErrInvalidDuration
	}

	sorted := make([]BusyInterval, len(busy))
	copy(sorted, busy)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	free := make([]time.Time, 0)
	first := 0

	for cursor := window.Start.UTC(); ; cursor = cursor.Add(duration) {
		slotEnd := cursor.Add(duration)
		if slotEnd.After(window.End) {
			break
		}

		// Intervals ending at or before the cursor cannot block this or any later slot.
		for first < len(sorted) && !sorted[first].End.After(cursor) {
			first++
		}

		blocked := false
		for i := first; i < len(sorted) && sorted[i].Start.Before(slotEnd); i++ {
			if sorted[i].Overlaps(cursor, slotEnd) {
				blocked = true
				break
			}
		}

		if !blocked {
			free = append(free, cursor)
		}
	}

	return free, nil
}
