// Package instrumentation provides OpenTelemetry instrumentation for the
// mailmcp server.
//
// # Metrics
//
// Server/HTTP Metrics (HTTP transport only):
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// Mailbox Metrics:
//   - mail_operations_total: Counter of backend operations by provider, operation, status
//   - mail_operation_duration_seconds: Histogram of backend operation durations
//   - mail_folder_fallbacks_total: Counter of IMAP folder lookups that fell back
//     to the first candidate name, by role and reason
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// # Tracing
//
// Spans are created for MCP tool invocations (tool.<name>) and for every
// mailbox backend call (mail.<provider>.<operation>).
//
// # Configuration
//
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: mailmcp)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	ctx, done := instrumentation.ObserveMailOperation(ctx, provider.Metrics(), "imap", instrumentation.OperationList)
//	summaries, err := fetch(ctx)
//	done(err)
package instrumentation
