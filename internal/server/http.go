package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailmcp/internal/instrumentation"
)

// MCPEndpoint is the path of the streamable HTTP endpoint.
const MCPEndpoint = "/mcp"

// HTTPServer serves an MCP server over streamable HTTP together with the
// health endpoints.
type HTTPServer struct {
	mcpServer  *mcpserver.MCPServer
	sc         *ServerContext
	health     *HealthChecker
	httpServer *http.Server
}

// NewHTTPServer creates an HTTPServer. sc may be nil in tests.
func NewHTTPServer(mcpServer *mcpserver.MCPServer, sc *ServerContext) *HTTPServer {
	return &HTTPServer{
		mcpServer: mcpServer,
		sc:        sc,
		health:    NewHealthChecker(sc),
	}
}

// Health returns the health checker backing /healthz and /readyz.
func (s *HTTPServer) Health() *HealthChecker {
	return s.health
}

// Handler returns the HTTP handler with all routes registered.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(MCPEndpoint, mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithEndpointPath(MCPEndpoint),
	))
	s.health.RegisterHealthEndpoints(mux)

	var metrics *instrumentation.Metrics
	if s.sc != nil {
		metrics = s.sc.Metrics()
	}
	return metricsMiddleware(metrics, mux)
}

// Start listens on addr and serves until Shutdown.
func (s *HTTPServer) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on an existing listener.
func (s *HTTPServer) Serve(ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	slog.Info("starting MCP HTTP server", "addr", ln.Addr().String(), "endpoint", MCPEndpoint)
	err := s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown marks the server not ready and gracefully stops it.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// metricsMiddleware records every request in http_requests_total. Unknown
// paths are folded into "other".
func metricsMiddleware(m *instrumentation.Metrics, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.RecordHTTPRequest(r.Context(), r.Method, routeLabel(r.URL.Path), rec.status, time.Since(start))
	})
}

func routeLabel(path string) string {
	switch path {
	case MCPEndpoint, "/healthz", "/readyz", "/healthz/detailed":
		return path
	default:
		return "other"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps server-sent event streams working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
