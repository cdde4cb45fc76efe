package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

const (
	statusOK           = "ok"
	statusNotReady     = "not ready"
	statusShuttingDown = "shutting down"

	// backendPending is reported until the first tool call creates the mailbox.
	backendPending = "pending"
)

// HealthChecker serves liveness and readiness probes for the HTTP transport.
type HealthChecker struct {
	ready     atomic.Bool
	sc        *ServerContext
	startTime time.Time
}

// NewHealthChecker returns a checker that starts out ready. sc may be nil.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{sc: sc, startTime: time.Now()}
	h.ready.Store(true)
	return h
}

// SetReady flips the readiness state.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports the readiness state.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// HealthResponse is the body of /healthz and /readyz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse is the body of /healthz/detailed.
type DetailedHealthResponse struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	Provider string `json:"provider"`
	ReadOnly bool   `json:"read_only"`
}

// status returns the overall status and whether traffic should be accepted.
func (h *HealthChecker) status() (string, bool) {
	switch {
	case h.sc != nil && h.sc.IsShutdown():
		return statusShuttingDown, false
	case !h.ready.Load():
		return statusNotReady, false
	default:
		return statusOK, true
	}
}

func (h *HealthChecker) provider() string {
	if h.sc == nil {
		return backendPending
	}
	if name := h.sc.ProviderName(); name != "" {
		return name
	}
	return backendPending
}

// LivenessHandler answers /healthz. It only proves the process serves HTTP.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: statusOK})
	})
}

// ReadinessHandler answers /readyz. The mailbox backend is created lazily,
// so a pending backend does not make the server unready.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		status, ok := h.status()
		resp := HealthResponse{
			Status: status,
			Checks: map[string]string{
				"server":  status,
				"mailbox": h.provider(),
			},
		}
		code := http.StatusOK
		if !ok {
			resp.Status = statusNotReady
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, resp)
	})
}

// DetailedHealthHandler answers /healthz/detailed.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		status, ok := h.status()
		resp := DetailedHealthResponse{
			Status:   status,
			Uptime:   time.Since(h.startTime).Truncate(time.Second).String(),
			Provider: h.provider(),
			ReadOnly: h.sc != nil && h.sc.ReadOnly(),
		}
		code := http.StatusOK
		if !ok {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, resp)
	})
}

// RegisterHealthEndpoints mounts the probes on mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/healthz/detailed", h.DetailedHealthHandler())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
