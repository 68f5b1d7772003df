package controlplane

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tjfontaine/polyglot-integration-gateway/internal/testutil"
)

var testInfo = Info{Application: "polyglot-integration-gateway", Version: "1.0.0"}

func newTestServer(t *testing.T, backend Checker) *Server {
	t.Helper()
	logger, _ := testutil.NewBufferLogger()
	s := NewServer(testInfo, backend, logger)
	s.now = func() time.Time { return time.Date(2025, 8, 19, 9, 25, 30, 135_000_000, time.Local) }
	return s
}

func get(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestAlive(t *testing.T) {
	s := newTestServer(t, nil)

	rec, body := get(t, s, http.MethodGet, "/api/alive", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{
		"status":      "alive",
		"timestamp":   "2025-08-19T09:25:30.135",
		"application": "polyglot-integration-gateway",
		"version":     "1.0.0",
	}, body)
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name    string
		backend Checker
		want    map[string]any
	}{
		{
			name:    "no backend configured",
			backend: nil,
			want:    map[string]any{"application": "UP"},
		},
		{
			name:    "backend up",
			backend: CheckerFunc(func(context.Context) error { return nil }),
			want:    map[string]any{"application": "UP", "backend": "UP"},
		},
		{
			name:    "backend down",
			backend: CheckerFunc(func(context.Context) error { return errors.New("connection refused") }),
			want:    map[string]any{"application": "UP", "backend": "DOWN"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.backend)

			rec, body := get(t, s, http.MethodGet, "/api/health", "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "UP", body["status"])
			assert.Equal(t, "2025-08-19T09:25:30.135", body["timestamp"])
			assert.Equal(t, tt.want, body["components"])
		})
	}
}

func TestHTTPChecker(t *testing.T) {
	// Any HTTP answer counts, including a 404 for the bare base URL.
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	assert.NoError(t, HTTPChecker(srv.Client(), srv.URL).Check(context.Background()))

	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()
	assert.Error(t, HTTPChecker(http.DefaultClient, closed.URL).Check(context.Background()))

	assert.Error(t, HTTPChecker(http.DefaultClient, "://bad").Check(context.Background()))
}

func TestWelcomeAndInfo(t *testing.T) {
	s := newTestServer(t, nil)

	rec, body := get(t, s, http.MethodGet, "/api/welcome", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to polyglot-integration-gateway", body["message"])
	assert.NotEmpty(t, body["description"])

	rec, body = get(t, s, http.MethodGet, "/api/info", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "polyglot-integration-gateway", body["application"])
	assert.Equal(t, "1.0.0", body["version"])
	assert.True(t, strings.HasPrefix(body["go"].(string), "go"))
}

func TestEcho(t *testing.T) {
	s := newTestServer(t, nil)

	rec, body := get(t, s, http.MethodPost, "/api/echo", `{"name":"Jean","n":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Echo successful", body["message"])
	assert.Equal(t, map[string]any{"name": "Jean", "n": float64(3)}, body["received"])
}

func TestEcho_InvalidBody(t *testing.T) {
	s := newTestServer(t, nil)

	rec, body := get(t, s, http.MethodPost, "/api/echo", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", body["status"])
	assert.True(t, strings.HasPrefix(body["message"].(string), "Invalid JSON body: "))
}

func TestStats(t *testing.T) {
	s := newTestServer(t, nil)

	rec, body := get(t, s, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["uptime"])
	assert.NotZero(t, body["num_goroutine"])
	assert.Contains(t, body, "memory")
}

func TestMount(t *testing.T) {
	s := newTestServer(t, nil)
	r := chi.NewRouter()
	s.Mount(r)

	rec, body := get(t, r, http.MethodGet, "/api/alive", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alive", body["status"])
}
