package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrProvider  = "provider"
	attrTool      = "tool"
	attrRole      = "role"
	attrReason    = "reason"
	attrDomain    = "user_domain"
)

// Metrics records the server's metrics. A nil *Metrics, or one created with
// &Metrics{}, silently drops every recording.
type Metrics struct {
	// HTTP metrics (streamable-http transport only)
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// Mailbox backend metrics
	mailOperationsTotal   metric.Int64Counter
	mailOperationDuration metric.Float64Histogram
	folderFallbacksTotal  metric.Int64Counter

	// MCP Tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// detailedLabels controls whether high-cardinality labels are included
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all instruments created on
// meter.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	m.mailOperationsTotal, err = meter.Int64Counter(
		"mail_operations_total",
		metric.WithDescription("Total number of mailbox backend operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail_operations_total counter: %w", err)
	}

	m.mailOperationDuration, err = meter.Float64Histogram(
		"mail_operation_duration_seconds",
		metric.WithDescription("Mailbox backend operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail_operation_duration_seconds histogram: %w", err)
	}

	m.folderFallbacksTotal, err = meter.Int64Counter(
		"mail_folder_fallbacks_total",
		metric.WithDescription("Folder resolutions that fell back to the first candidate"),
		metric.WithUnit("{resolution}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail_folder_fallbacks_total counter: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordMailOperation records one mailbox backend operation.
//
// Parameters:
//   - provider: "gmail" or "imap"
//   - operation: one of the Operation* constants
//   - status: StatusSuccess or StatusError
//   - duration: time taken for the operation
func (m *Metrics) RecordMailOperation(ctx context.Context, provider, operation, status string, duration time.Duration) {
	if m == nil || m.mailOperationsTotal == nil || m.mailOperationDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrProvider, provider),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	m.mailOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.mailOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordFolderFallback records a folder resolution that used the default
// candidate. role is the folder role ("sent", "trash"), reason is one of the
// Fallback* constants.
func (m *Metrics) RecordFolderFallback(ctx context.Context, role, reason string) {
	if m == nil || m.folderFallbacksTotal == nil {
		return
	}

	m.folderFallbacksTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrRole, role),
		attribute.String(attrReason, reason),
	))
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	m.RecordToolInvocationWithUser(ctx, toolName, status, "", duration)
}

// RecordToolInvocationWithUser records an MCP tool invocation. The mailbox
// user is reduced to its domain and only added when detailed labels are
// enabled.
func (m *Metrics) RecordToolInvocationWithUser(ctx context.Context, toolName, status, user string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	if m.detailedLabels && user != "" {
		attrs = append(attrs, attribute.String(attrDomain, ExtractUserDomain(user)))
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}
