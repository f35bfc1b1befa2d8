package google

import "google.golang.org/api/calendar/v3"

// DefaultScopes are the OAuth scopes requested for the service account.
// Booking needs write access, so the read-only scope is not enough.
var DefaultScopes = []string{
	calendar.CalendarScope,
}
