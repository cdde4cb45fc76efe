package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/teemow/mailmcp/internal/instrumentation"
)

const (
	// DefaultMetricsAddr is the listen address of the metrics server.
	DefaultMetricsAddr = ":9090"

	// DefaultShutdownTimeout bounds graceful shutdown of the HTTP servers.
	DefaultShutdownTimeout = 30 * time.Second

	metricsReadHeaderTimeout = 10 * time.Second
	metricsWriteTimeout      = 10 * time.Second
	metricsIdleTimeout       = 60 * time.Second
)

// ErrNoScrapeEndpoint is returned when the configured metrics exporter
// pushes instead of being scraped.
var ErrNoScrapeEndpoint = errors.New("metrics exporter has no scrape endpoint")

// MetricsServerConfig holds configuration for the metrics server.
type MetricsServerConfig struct {
	// Addr defaults to DefaultMetricsAddr.
	Addr string

	Enabled bool

	InstrumentationProvider *instrumentation.Provider
}

// MetricsServer serves /metrics on its own port, apart from the MCP endpoint.
type MetricsServer struct {
	httpServer *http.Server
	metrics    http.Handler
	addr       string
	boundAddr  string
}

// NewMetricsServer requires an enabled provider using the Prometheus
// exporter.
func NewMetricsServer(config MetricsServerConfig) (*MetricsServer, error) {
	if config.Addr == "" {
		config.Addr = DefaultMetricsAddr
	}
	p := config.InstrumentationProvider
	if p == nil {
		return nil, fmt.Errorf("instrumentation provider is required for metrics server")
	}
	if !p.Enabled() {
		return nil, fmt.Errorf("instrumentation provider is not enabled")
	}
	handler := p.PrometheusHandler()
	if handler == nil {
		return nil, ErrNoScrapeEndpoint
	}
	return &MetricsServer{metrics: handler, addr: config.Addr}, nil
}

// Handler returns the mux serving /metrics and /healthz.
func (s *MetricsServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.metrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Start serves until Shutdown.
func (s *MetricsServer) Start() error {
	return s.StartWithReadySignal(nil)
}

// StartWithReadySignal is like Start but closes ready once the listener is
// bound, so callers can tell a bind failure from a running server.
func (s *MetricsServer) StartWithReadySignal(ready chan<- struct{}) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: metricsReadHeaderTimeout,
		WriteTimeout:      metricsWriteTimeout,
		IdleTimeout:       metricsIdleTimeout,
	}
	s.boundAddr = ln.Addr().String()
	if ready != nil {
		close(ready)
	}

	slog.Info("starting metrics server", "addr", s.boundAddr)
	return s.httpServer.Serve(ln)
}

// Shutdown stops a started server. It is a no-op otherwise.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	slog.Info("shutting down metrics server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured listen address.
func (s *MetricsServer) Addr() string {
	return s.addr
}

// BoundAddr returns the address the server listens on, which differs from
// Addr when port 0 was requested. It is empty before the server starts.
func (s *MetricsServer) BoundAddr() string {
	return s.boundAddr
}
