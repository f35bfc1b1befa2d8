// Package booking turns conversational-agent intents into calendar work.
//
// A Dispatcher understands two intents. CheckAvailability resolves a time
// window from either a date or a startTime/endTime pair, fetches busy
// intervals and answers with the free slots. BookAppointment validates the
// requested event and creates it. Anything else gets a fixed "not understood"
// reply.
//
// HandleIntent never returns a Go error. Failures are folded into Result:
// Text is always safe to show to the end user, and Err carries an
// *InvalidRequestError or *UpstreamError so transports can pick a status.
//
// The typed operations FreeSlots, BusyEvents and Book are exported for the
// REST and MCP adapters.
package booking
