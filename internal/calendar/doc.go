// Package calendar provides a client for the Google Calendar API, trimmed to
// what appointment booking needs: free/busy lookups, event listing and event
// creation.
//
// All times are exchanged in UTC. Every call takes a context so callers can
// bound it with a deadline.
//
// Two decorators wrap any API implementation:
//   - Instrumented records metrics and a client span per call
//   - Cached serves busy lookups from a short-lived cache and invalidates a
//     calendar's entries after a booking
//
// Example usage:
//
//	opts, err := google.ClientOptions(ctx, google.Source{File: path})
//	if err != nil {
//	    return err
//	}
//	client, err := calendar.NewClient(ctx, opts...)
//	if err != nil {
//	    return err
//	}
//	busy, err := client.QueryBusy(ctx, "primary", start, end)
package calendar
