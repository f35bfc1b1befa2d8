// Package booking_tools provides MCP (Model Context Protocol) tools for
// checking availability and booking appointments.
//
// The tools are thin adapters over booking.Dispatcher, so an assistant talking
// MCP gets exactly the replies a conversational agent gets from the webhook.
package booking_tools
