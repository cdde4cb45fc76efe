package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/codes"

	"github.com/teemow/mailmcp/internal/instrumentation"
	"github.com/teemow/mailmcp/internal/server"
)

// ToolHandler is the signature of an MCP tool handler.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler wraps a tool handler with tracing, metrics and
// audit logging. operation is one of the instrumentation.Operation*
// constants and is recorded together with the mailbox provider.
//
// Usage:
//
//	s.AddTool(listTool, common.InstrumentedToolHandler("list_emails", instrumentation.OperationList, sc, handler))
func InstrumentedToolHandler(
	toolName string,
	operation string,
	sc *server.ServerContext,
	handler ToolHandler,
) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		folder := StringArg(args, "folder")

		ctx, span := instrumentation.StartToolSpan(ctx, toolName,
			instrumentation.NewSpanAttributeBuilder().
				WithFolder(folder).
				WithReadOnly(sc.ReadOnly()).
				Build()...,
		)
		defer span.End()

		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()

		start := time.Now()
		result, err := handler(ctx, request)
		duration := time.Since(start)

		failed := err != nil || (result != nil && result.IsError)
		switch {
		case err != nil:
			instrumentation.SetSpanError(span, err)
		case failed:
			span.SetStatus(codes.Error, ResultText(result))
		default:
			instrumentation.SetSpanSuccess(span)
		}

		if metrics == nil && auditLogger == nil {
			return result, err
		}

		status := instrumentation.StatusSuccess
		if failed {
			status = instrumentation.StatusError
		}
		if metrics != nil {
			metrics.RecordToolInvocationWithUser(ctx, toolName, status, sc.User(), duration)
		}

		if auditLogger != nil {
			invocation := instrumentation.NewToolInvocation(toolName).
				WithSpanContext(ctx).
				WithUser(sc.User()).
				WithProvider(sc.ProviderName(), operation).
				WithFolder(folder).
				WithRecipients(countRecipients(args))
			invocation.StartTime = start
			switch {
			case err != nil:
				invocation.CompleteWithError(err)
			case failed:
				invocation.Complete(false, nil)
				invocation.Error = ResultText(result)
			default:
				invocation.CompleteSuccess()
			}
			invocation.Duration = duration

			auditLogger.LogToolInvocation(invocation)
			if operation == instrumentation.OperationSend || operation == instrumentation.OperationTrash {
				auditLogger.LogToolAudit(invocation)
			}
		}

		return result, err
	}
}

// countRecipients counts the addresses in the to, cc and bcc arguments.
// Unparseable lists count as zero.
func countRecipients(args map[string]any) int {
	n := 0
	for _, key := range []string{"to", "cc", "bcc"} {
		n += len(AddressListArg(args, key))
	}
	return n
}
