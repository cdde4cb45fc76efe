package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/mailmcp/internal/config"
	"github.com/teemow/mailmcp/internal/instrumentation"
	"github.com/teemow/mailmcp/internal/logging"
	"github.com/teemow/mailmcp/internal/prompts"
	"github.com/teemow/mailmcp/internal/server"
	"github.com/teemow/mailmcp/internal/tools/email_tools"
)

// Transport types.
const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

// serveOptions holds the flags of the serve command.
type serveOptions struct {
	transport string
	httpAddr  string
	provider  string
	envFile   string
	readOnly  bool
	debug     bool
	metrics   MetricsConfig
}

func newServeCmd() *cobra.Command {
	opts := serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide email tools and
prompts for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport on /mcp

Mail providers:
  - gmail: Gmail API. Requires GMAIL_CREDENTIALS_FILE and a token created with
    'mailmcp authenticate'.
  - imap: Any IMAP/SMTP server. Requires IMAP_HOST, SMTP_HOST, EMAIL_USER and
    EMAIL_PASS (IMAP_PORT defaults to 993, SMTP_PORT to 465).

Settings are read from the environment and from the file given by --env-file.
Environment variables take precedence.

Safety Mode:
  Use --read-only to disable send_email and move_to_trash.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("metrics-addr") {
				if addr := os.Getenv("METRICS_ADDR"); addr != "" {
					opts.metrics.Addr = addr
				}
			}
			if !cmd.Flags().Changed("metrics-enabled") && os.Getenv("METRICS_ENABLED") == "false" {
				opts.metrics.Enabled = false
			}
			return runServe(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&opts.transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "Mail provider: gmail or imap. Overrides MAIL_PROVIDER.")
	cmd.Flags().StringVar(&opts.envFile, "env-file", config.DefaultEnvFile, "Dotenv file with mail settings. A missing file is ignored.")
	cmd.Flags().BoolVar(&opts.readOnly, "read-only", false, "Disable tools that send or move email")

	// Metrics server flags
	cmd.Flags().BoolVar(&opts.metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port (streamable-http only). Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// loadConfig reads the mail settings and applies the --provider override.
func loadConfig(opts serveOptions) (*config.Config, error) {
	switch opts.transport {
	case transportStdio, transportStreamableHTTP:
	default:
		return nil, fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", opts.transport)
	}

	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return nil, err
	}
	if opts.provider != "" {
		cfg.MailProvider = opts.provider
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger returns a JSON logger. stdout carries the MCP protocol on the
// stdio transport, so logs always go to w (stderr in production).
func newLogger(w io.Writer, debug bool, cfg *config.Config) *slog.Logger {
	level := cfg.SlogLevel()
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// newMCPServer creates the MCP server with all tools and prompts registered.
func newMCPServer(sc *server.ServerContext) (*mcpserver.MCPServer, error) {
	// Note: mcp.Implementation has Title field but WithTitle() ServerOption not available in v0.43.0
	mcpSrv := mcpserver.NewMCPServer("mailmcp", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithPromptCapabilities(false),
		mcpserver.WithRecovery(),
	)

	if err := email_tools.RegisterEmailTools(mcpSrv, sc); err != nil {
		return nil, fmt.Errorf("failed to register email tools: %w", err)
	}
	prompts.RegisterPrompts(mcpSrv)
	return mcpSrv, nil
}

func runServe(opts serveOptions) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger := newLogger(os.Stderr, opts.debug, cfg)
	slog.SetDefault(logger)

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Warn("error during instrumentation shutdown", slog.String("error", err.Error()))
		}
	}()

	// Start metrics server if enabled and not in stdio mode
	var metricsServer *server.MetricsServer
	if opts.transport != transportStdio && opts.metrics.Enabled && provider.PrometheusHandler() != nil {
		metricsServer, err = startMetricsServer(opts.metrics.Addr, provider)
		if err != nil {
			return err
		}
	}

	serverContext, err := server.NewServerContext(shutdownCtx,
		server.NewMailboxFactory(cfg, logger),
		server.WithReadOnly(opts.readOnly),
		server.WithLogger(logger),
		server.WithUser(cfg.EmailUser),
	)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}

	// Set metrics and audit logger on server context for tool instrumentation
	if provider.Enabled() {
		serverContext.SetMetrics(provider.Metrics())
		serverContext.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging))
	}
	defer func() {
		// Shutdown metrics server first
		if metricsServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("error during metrics server shutdown", slog.String("error", err.Error()))
			}
		}
		_ = serverContext.Shutdown()
	}()

	mcpSrv, err := newMCPServer(serverContext)
	if err != nil {
		return err
	}

	logger.Info("starting mailmcp",
		slog.String("version", version),
		slog.String("transport", opts.transport),
		slog.String("provider", cfg.MailProvider),
		slog.Bool("read_only", opts.readOnly),
		logging.UserHash(cfg.EmailUser),
	)

	switch opts.transport {
	case transportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, opts.httpAddr, logger)
	default:
		return runStdioServer(mcpSrv)
	}
}

func startMetricsServer(addr string, provider *instrumentation.Provider) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		Enabled:                 true,
		InstrumentationProvider: provider,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	// Use ready channel to confirm metrics server started successfully
	metricsReady := make(chan struct{})
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && !errors.Is(err, http.ErrServerClosed) {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	// Wait for metrics server to be ready or fail
	select {
	case <-metricsReady:
		slog.Info("metrics server started", "addr", metricsServer.BoundAddr())
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, addr string, logger *slog.Logger) error {
	httpServer := server.NewHTTPServer(mcpSrv, sc)

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(addr); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}
