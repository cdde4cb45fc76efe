package instrumentation

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the tracer name used for all spans of the server.
const TracerName = "github.com/teemow/mailmcp"

// Span attribute keys.
const (
	// SpanAttrTool is the MCP tool name attribute.
	SpanAttrTool = "mcp.tool"

	// SpanAttrReadOnly indicates that write tools are disabled.
	SpanAttrReadOnly = "mcp.read_only"

	// SpanAttrProvider is the mailbox backend ("gmail" or "imap").
	SpanAttrProvider = "mail.provider"

	// SpanAttrOperation is the mailbox operation type.
	SpanAttrOperation = "mail.operation"

	// SpanAttrFolder is the IMAP folder an operation works on.
	SpanAttrFolder = "mail.folder"

	// SpanAttrMessageID is the backend's message identifier.
	SpanAttrMessageID = "mail.message_id"
)

// SpanAttributeBuilder helps construct span attributes with consistent naming.
type SpanAttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewSpanAttributeBuilder creates a new SpanAttributeBuilder.
func NewSpanAttributeBuilder() *SpanAttributeBuilder {
	return &SpanAttributeBuilder{
		attrs: make([]attribute.KeyValue, 0, 6),
	}
}

// WithProvider adds the mailbox provider attribute.
func (b *SpanAttributeBuilder) WithProvider(provider string) *SpanAttributeBuilder {
	if provider != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrProvider, provider))
	}
	return b
}

// WithFolder adds the folder attribute.
func (b *SpanAttributeBuilder) WithFolder(folder string) *SpanAttributeBuilder {
	if folder != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrFolder, folder))
	}
	return b
}

// WithMessageID adds the message identifier attribute.
func (b *SpanAttributeBuilder) WithMessageID(id string) *SpanAttributeBuilder {
	if id != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrMessageID, id))
	}
	return b
}

// WithReadOnly adds the read-only indicator attribute.
func (b *SpanAttributeBuilder) WithReadOnly(readOnly bool) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.Bool(SpanAttrReadOnly, readOnly))
	return b
}

// Build returns the constructed attributes.
func (b *SpanAttributeBuilder) Build() []attribute.KeyValue {
	return b.attrs
}

// StartToolSpan starts a server span for an MCP tool invocation.
func StartToolSpan(ctx context.Context, toolName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
	allAttrs = append(allAttrs, attribute.String(SpanAttrTool, toolName))
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "tool."+toolName,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartMailSpan starts a client span named mail.<provider>.<operation>.
func StartMailSpan(ctx context.Context, provider, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+2)
	allAttrs = append(allAttrs,
		attribute.String(SpanAttrProvider, provider),
		attribute.String(SpanAttrOperation, operation),
	)
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "mail."+provider+"."+operation,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// ObserveMailOperation starts a mail span and returns a function that ends
// it and records the operation in m. m may be nil.
//
//	ctx, done := instrumentation.ObserveMailOperation(ctx, c.metrics, "imap", instrumentation.OperationList)
//	defer func() { done(err) }()
func ObserveMailOperation(ctx context.Context, m *Metrics, provider, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := StartMailSpan(ctx, provider, operation, attrs...)

	return ctx, func(err error) {
		status := StatusSuccess
		if err != nil {
			status = StatusError
			SetSpanError(span, err)
		} else {
			SetSpanSuccess(span)
		}
		span.End()
		m.RecordMailOperation(ctx, provider, operation, status, time.Since(start))
	}
}

// SetSpanError records an error on the span and sets the status to error.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess sets the span status to OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// GetTraceID returns the trace ID from the current span in context.
// Returns empty string if no valid span is present.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}

// GetSpanID returns the span ID from the current span in context.
// Returns empty string if no valid span is present.
func GetSpanID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().SpanID().String()
	}
	return ""
}
