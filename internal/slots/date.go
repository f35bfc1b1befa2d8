package slots

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// DayWindow returns [00:00:00Z, 23:59:59Z] of the UTC calendar day containing date.
func DayWindow(date time.Time) TimeWindow {
	d := date.UTC()
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return TimeWindow{
		Start: start,
		End:   start.Add(24*time.Hour - time.Second),
	}
}

// ParseDate parses either a plain YYYY-MM-DD date or an RFC 3339 timestamp.
// For timestamps the calendar date is read in the timestamp's own offset.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC3339", s)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// ParseTimestamp parses an RFC 3339 timestamp and normalizes it to UTC.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: expected RFC3339", s)
	}
	return t.UTC(), nil
}
