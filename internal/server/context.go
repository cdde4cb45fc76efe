package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teemow/mailmcp/internal/instrumentation"
	"github.com/teemow/mailmcp/internal/logging"
	"github.com/teemow/mailmcp/internal/mailbox"
)

// ErrShutdown is returned by Mailbox after Shutdown.
var ErrShutdown = errors.New("server is shutting down")

// MailboxFactory creates the mailbox backend. It is called lazily on first
// use and again after a failed attempt.
type MailboxFactory func(ctx context.Context, metrics *instrumentation.Metrics) (mailbox.Mailbox, error)

// ServerContext holds the context for the MCP server
type ServerContext struct {
	ctx         context.Context
	cancel      context.CancelFunc
	factory     MailboxFactory
	mailbox     mailbox.Mailbox
	readOnly    bool
	user        string
	logger      *slog.Logger
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	mu          sync.RWMutex
	shutdown    bool
}

// Option configures a ServerContext.
type Option func(*ServerContext)

// WithReadOnly disables the tools that modify the mailbox.
func WithReadOnly(readOnly bool) Option {
	return func(sc *ServerContext) { sc.readOnly = readOnly }
}

// WithUser sets the mailbox owner recorded in audit logs.
func WithUser(email string) Option {
	return func(sc *ServerContext) { sc.user = email }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(sc *ServerContext) {
		if logger != nil {
			sc.logger = logger
		}
	}
}

// WithMailbox installs an already created backend, skipping the factory.
func WithMailbox(mb mailbox.Mailbox) Option {
	return func(sc *ServerContext) { sc.mailbox = mb }
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, factory MailboxFactory, opts ...Option) (*ServerContext, error) {
	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:     shutdownCtx,
		cancel:  cancel,
		factory: factory,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(sc)
	}

	if sc.factory == nil && sc.mailbox == nil {
		cancel()
		return nil, fmt.Errorf("a mailbox factory is required")
	}
	return sc, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Mailbox returns the mailbox backend, creating it on first use. A failed
// creation is not cached.
func (sc *ServerContext) Mailbox() (mailbox.Mailbox, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil, ErrShutdown
	}
	if sc.mailbox != nil {
		return sc.mailbox, nil
	}

	mb, err := sc.factory(sc.ctx, sc.metrics)
	if err != nil {
		sc.logger.Warn("failed to create mailbox", logging.Err(err))
		return nil, err
	}
	sc.mailbox = mb
	return mb, nil
}

// ProviderName returns the provider of the backend if it has been created,
// and "" otherwise. It never creates the backend.
func (sc *ServerContext) ProviderName() string {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	if sc.mailbox == nil {
		return ""
	}
	return sc.mailbox.Provider()
}

// User returns the configured mailbox owner.
func (sc *ServerContext) User() string {
	return sc.user
}

// ReadOnly reports whether write tools are disabled.
func (sc *ServerContext) ReadOnly() bool {
	return sc.readOnly
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Metrics returns the metrics recorder, or nil when metrics are disabled.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetMetrics sets the metrics recorder. It must be called before the
// mailbox is first used for backend metrics to be recorded.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// AuditLogger returns the audit logger, or nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// SetAuditLogger sets the audit logger.
func (sc *ServerContext) SetAuditLogger(al *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = al
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
