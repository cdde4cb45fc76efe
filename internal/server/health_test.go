package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailmcp/internal/instrumentation"
	"github.com/teemow/mailmcp/internal/mailbox"
)

func serveHealth(t *testing.T, h http.Handler) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHealthChecker_Readiness(t *testing.T) {
	factory := func(context.Context, *instrumentation.Metrics) (mailbox.Mailbox, error) {
		return &stubMailbox{provider: "imap"}, nil
	}
	sc, err := NewServerContext(context.Background(), factory, WithReadOnly(true))
	require.NoError(t, err)
	h := NewHealthChecker(sc)

	code, body := serveHealth(t, h.ReadinessHandler())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"server": "ok", "mailbox": "pending"}, body["checks"])

	_, err = sc.Mailbox()
	require.NoError(t, err)
	_, body = serveHealth(t, h.ReadinessHandler())
	assert.Equal(t, "imap", body["checks"].(map[string]any)["mailbox"])

	code, body = serveHealth(t, h.DetailedHealthHandler())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "imap", body["provider"])
	assert.Equal(t, true, body["read_only"])
	assert.NotEmpty(t, body["uptime"])

	require.NoError(t, sc.Shutdown())
	code, body = serveHealth(t, h.ReadinessHandler())
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "shutting down", body["checks"].(map[string]any)["server"])

	code, body = serveHealth(t, h.DetailedHealthHandler())
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "shutting down", body["status"])
}

func TestHealthChecker_NilContext(t *testing.T) {
	h := NewHealthChecker(nil)
	assert.True(t, h.IsReady())

	code, body := serveHealth(t, h.LivenessHandler())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	h.SetReady(false)
	code, body = serveHealth(t, h.DetailedHealthHandler())
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "pending", body["provider"])

	code, _ = serveHealth(t, h.LivenessHandler())
	assert.Equal(t, http.StatusOK, code)
}
