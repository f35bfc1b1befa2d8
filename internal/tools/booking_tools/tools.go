package booking_tools

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calbridge/internal/booking"
	"github.com/teemow/calbridge/internal/instrumentation"
	"github.com/teemow/calbridge/internal/tools/common"
)

// Tool names.
const (
	ToolCheckAvailability = "check_availability"
	ToolBookAppointment   = "book_appointment"
)

// RegisterBookingTools registers the availability and booking tools with the MCP server.
// metrics and logger may be nil.
func RegisterBookingTools(s *mcpserver.MCPServer, d *booking.Dispatcher, metrics *instrumentation.Metrics, logger *slog.Logger) error {
	if d == nil {
		return errors.New("dispatcher is required")
	}

	checkAvailabilityTool := mcp.NewTool(ToolCheckAvailability,
		mcp.WithDescription("List free appointment slots on a day or within a time range. Provide either date, or both startTime and endTime."),
		mcp.WithString(booking.ParamDate,
			mcp.Description("Day to check (YYYY-MM-DD, UTC)"),
		),
		mcp.WithString(booking.ParamStartTime,
			mcp.Description("Start of the range (RFC3339 format, e.g., '2025-03-10T09:00:00Z')"),
		),
		mcp.WithString(booking.ParamEndTime,
			mcp.Description("End of the range (RFC3339 format, e.g., '2025-03-10T17:00:00Z')"),
		),
	)

	s.AddTool(checkAvailabilityTool, common.InstrumentedToolHandler(ToolCheckAvailability, metrics, logger,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return dispatch(ctx, d, booking.IntentCheckAvailability, request)
		}))

	bookAppointmentTool := mcp.NewTool(ToolBookAppointment,
		mcp.WithDescription("Book an appointment on the calendar"),
		mcp.WithString(booking.ParamSummary,
			mcp.Required(),
			mcp.Description("Title of the appointment"),
		),
		mcp.WithString(booking.ParamStart,
			mcp.Required(),
			mcp.Description("Start time (RFC3339 format)"),
		),
		mcp.WithString(booking.ParamEnd,
			mcp.Required(),
			mcp.Description("End time (RFC3339 format)"),
		),
		mcp.WithString(booking.ParamAttendeeEmail,
			mcp.Description("Email address to invite"),
		),
		mcp.WithString(booking.ParamDescription,
			mcp.Description("Event description"),
		),
	)

	s.AddTool(bookAppointmentTool, common.InstrumentedToolHandler(ToolBookAppointment, metrics, logger,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return dispatch(ctx, d, booking.IntentBookAppointment, request)
		}))

	return nil
}

// dispatch runs intent through the dispatcher. Any classified failure becomes
// a tool error result carrying the reply text.
func dispatch(ctx context.Context, d *booking.Dispatcher, intent booking.Intent, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = booking.ContextWithSource(ctx, booking.SourceMCP)
	res := d.HandleIntent(ctx, booking.IntentPayload{
		Name:       intent,
		Parameters: request.GetArguments(),
	})
	if res.Err != nil {
		return mcp.NewToolResultError(res.Text), nil
	}
	return mcp.NewToolResultText(res.Text), nil
}
