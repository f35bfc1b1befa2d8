// Package instrumentation provides OpenTelemetry instrumentation for calbridge.
//
// This package enables observability through:
//   - OpenTelemetry metrics for HTTP requests, dispatched intents and calendar API calls
//   - Distributed tracing for webhook handling and calendar API calls
//   - Prometheus metrics export via /metrics endpoint on dedicated port
//   - OTLP export support for modern observability platforms
//   - Audit logging of booking attempts
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, route, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//   - http_rate_limited_total: Counter of requests rejected by the rate limiter
//
// Dispatcher Metrics:
//   - intents_total: Counter of dispatched intents by intent name and outcome
//   - free_slots_returned: Histogram of the number of free slots per availability query
//
// Calendar API Metrics:
//   - calendar_api_operations_total: Counter of calendar operations by operation and status
//   - calendar_api_operation_duration_seconds: Histogram of calendar operation durations
//   - busy_cache_lookups_total: Counter of busy-interval cache lookups by result
//
// MCP Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool calls by tool and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool durations
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: calbridge)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	recorder := provider.Metrics()
//	recorder.RecordCalendarOperation(ctx, instrumentation.OperationFreeBusy, instrumentation.StatusSuccess, time.Since(start))
package instrumentation
