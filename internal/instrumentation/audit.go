package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// ToolInvocation is the audit record of one MCP tool call.
//
// UserEmail is the configured mailbox address. Operational logs only carry
// its domain; the full address appears in LogAuditAttrs.
type ToolInvocation struct {
	Tool      string
	UserEmail string

	Provider  string // gmail or imap
	Operation string // one of the Operation* constants
	Folder    string

	// Recipients is the number of envelope recipients of a send.
	Recipients int

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewToolInvocation starts the clock for tool.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{Tool: tool, StartTime: time.Now()}
}

func (ti *ToolInvocation) WithUser(email string) *ToolInvocation {
	ti.UserEmail = email
	return ti
}

func (ti *ToolInvocation) WithProvider(provider, operation string) *ToolInvocation {
	ti.Provider = provider
	ti.Operation = operation
	return ti
}

func (ti *ToolInvocation) WithFolder(folder string) *ToolInvocation {
	ti.Folder = folder
	return ti
}

func (ti *ToolInvocation) WithRecipients(n int) *ToolInvocation {
	ti.Recipients = n
	return ti
}

// WithSpanContext copies the trace and span IDs of the active span, if any.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.IsValid() {
		ti.TraceID = sc.TraceID().String()
		ti.SpanID = sc.SpanID().String()
	}
	return ti
}

// Complete stops the clock.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

func (ti *ToolInvocation) CompleteWithError(err error) *ToolInvocation {
	return ti.Complete(false, err)
}

func (ti *ToolInvocation) CompleteSuccess() *ToolInvocation {
	return ti.Complete(true, nil)
}

// UserDomain returns the domain of the mailbox owner.
func (ti *ToolInvocation) UserDomain() string {
	return ExtractUserDomain(ti.UserEmail)
}

// Status returns StatusSuccess or StatusError.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns the operational attributes: user domain only, no span ID.
func (ti *ToolInvocation) LogAttrs() []slog.Attr {
	return ti.attrs(false)
}

// LogAuditAttrs returns the full audit attributes, including the mailbox
// address.
func (ti *ToolInvocation) LogAuditAttrs() []slog.Attr {
	return ti.attrs(true)
}

func (ti *ToolInvocation) attrs(full bool) []slog.Attr {
	attrs := []slog.Attr{slog.String("tool", ti.Tool)}
	if full {
		attrs = append(attrs, slog.String("user", ti.UserEmail))
	} else {
		attrs = append(attrs, slog.String("user_domain", ti.UserDomain()))
	}
	attrs = append(attrs,
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	)

	optional := []struct{ key, val string }{
		{"provider", ti.Provider},
		{"operation", ti.Operation},
		{"folder", ti.Folder},
		{"trace_id", ti.TraceID},
	}
	if full {
		optional = append(optional, struct{ key, val string }{"span_id", ti.SpanID})
	}
	for _, o := range optional {
		if o.val != "" {
			attrs = append(attrs, slog.String(o.key, o.val))
		}
	}
	if ti.Recipients > 0 {
		attrs = append(attrs, slog.Int("recipients", ti.Recipients))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}
	return attrs
}

// AuditLogger writes tool invocations to a slog.Logger.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger returns an enabled logger that anonymizes the user.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig returns a logger honouring config. A nil logger
// means slog.Default().
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{logger: logger, includePII: config.IncludePII, enabled: config.Enabled}
}

// SetEnabled turns audit output on or off.
func (al *AuditLogger) SetEnabled(enabled bool) {
	al.enabled = enabled
}

// LogToolInvocation writes tool_executed or tool_failed. The mailbox address
// is included only when the logger was configured with IncludePII.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if !al.enabled {
		return
	}
	msg, level := "tool_executed", slog.LevelInfo
	if !ti.Success {
		msg, level = "tool_failed", slog.LevelWarn
	}
	al.logger.LogAttrs(context.Background(), level, msg, ti.attrs(al.includePII)...)
}

// LogToolAudit writes a tool_audit record with the full mailbox address.
// Used for calls that change mail state (send, trash).
func (al *AuditLogger) LogToolAudit(ti *ToolInvocation) {
	if !al.enabled {
		return
	}
	al.logger.LogAttrs(context.Background(), slog.LevelInfo, "tool_audit", ti.LogAuditAttrs()...)
}
