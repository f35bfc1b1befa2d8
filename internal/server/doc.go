// Package server exposes the booking dispatcher over HTTP.
//
// # Routes
//
//   - POST /webhook: conversational-agent fulfillment
//     ({queryResult:{intent:{displayName},parameters}} in, {fulfillmentText} out)
//   - GET /free-slots: busy events and free slots for a date or window
//   - POST /schedule: direct booking
//   - GET /healthz, /readyz, /healthz/detailed: probes
//
// All three business routes are thin adapters over booking.Dispatcher.
//
// # Middleware
//
// Every request, including 404 and 405 replies, gets a request id, then the
// access log and HTTP metrics, then panic recovery. The booking routes are
// also rate limited per client IP.
//
// # Status codes
//
// The webhook answers 200 whenever it has a reply the agent can speak,
// including validation messages and unmatched intents. Only calendar
// failures produce 500, and an undecodable body produces 400. The REST routes
// map InvalidRequestError to 400 and UpstreamError to 500.
//
// Prometheus metrics are served separately by MetricsServer.
package server
