package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func missingPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.yaml")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(missingPath(t))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 40*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "http://localhost:8001", cfg.Backend.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.Interval)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GATEWAY_SERVER__PORT", "9000")
	t.Setenv("GATEWAY_BACKEND__BASE_URL", "http://person-backend:8001")
	t.Setenv("GATEWAY_BACKEND__TIMEOUT", "5s")
	t.Setenv("GATEWAY_SCHEDULER__ENABLED", "false")

	cfg, err := Load(missingPath(t))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "http://person-backend:8001", cfg.Backend.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
	assert.False(t, cfg.Scheduler.Enabled)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8181
backend:
  base_url: http://file-backend:9001
logging:
  level: debug
  format: text
scheduler:
  interval: 1m
`), 0o600))

	t.Setenv("GATEWAY_SERVER__PORT", "8282")

	cfg, err := Load(path)
	require.NoError(t, err)

	// Environment wins over the file.
	assert.Equal(t, 8282, cfg.Server.Port)
	assert.Equal(t, "http://file-backend:9001", cfg.Backend.BaseURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "bad log level", key: "GATEWAY_LOGGING__LEVEL", val: "verbose"},
		{name: "bad log format", key: "GATEWAY_LOGGING__FORMAT", val: "xml"},
		{name: "bad backend url", key: "GATEWAY_BACKEND__BASE_URL", val: "not a url"},
		{name: "port out of range", key: "GATEWAY_SERVER__PORT", val: "70000"},
		{name: "metrics path", key: "GATEWAY_METRICS__PATH", val: "metrics"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			_, err := Load(missingPath(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "config validation failed")
		})
	}
}
