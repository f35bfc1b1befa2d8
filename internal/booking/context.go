package booking

import "context"

type contextKey int

const sourceKey contextKey = iota

// Booking sources recorded in the audit log.
const (
	SourceWebhook = "webhook"
	SourceREST    = "rest"
	SourceMCP     = "mcp"
	SourceCLI     = "cli"
)

// ContextWithSource tags ctx with the surface a request arrived on.
func ContextWithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey, source)
}

// SourceFromContext returns the tagged source, or "unknown".
func SourceFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(sourceKey).(string); ok && s != "" {
		return s
	}
	return "unknown"
}
