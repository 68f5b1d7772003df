// Package config loads gateway configuration from an optional YAML file and
// GATEWAY_ environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultPath is read when Load is given an empty path.
const DefaultPath = "config.yaml"

// EnvPrefix prefixes every environment override. Nested keys use "__",
// e.g. GATEWAY_BACKEND__BASE_URL.
const EnvPrefix = "GATEWAY_"

// Config is the full gateway configuration.
type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Backend   BackendConfig   `koanf:"backend"`
	Logging   LoggingConfig   `koanf:"logging"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

// AppConfig names the application reported by the info endpoints.
type AppConfig struct {
	Name    string `koanf:"name" validate:"required"`
	Version string `koanf:"version" validate:"required"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port           int           `koanf:"port" validate:"required,min=1,max=65535"`
	ReadTimeout    time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout   time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout    time.Duration `koanf:"idle_timeout" validate:"required"`
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"required"`
}

// BackendConfig locates the person backend.
type BackendConfig struct {
	BaseURL string        `koanf:"base_url" validate:"required,url"`
	Timeout time.Duration `koanf:"timeout" validate:"required"`
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json text"`
}

// SchedulerConfig drives the periodic transform job.
type SchedulerConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Interval        time.Duration `koanf:"interval" validate:"required"`
	SourceURL       string        `koanf:"source_url" validate:"required,url"`
	ManualSourceURL string        `koanf:"manual_source_url" validate:"required,url"`
}

// TelemetryConfig enables tracing.
type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name" validate:"required"`
}

// MetricsConfig exposes the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path" validate:"required,startswith=/"`
}

var defaults = map[string]any{
	"app.name":                    "polyglot-integration-gateway",
	"app.version":                 "1.0.0",
	"server.port":                 8080,
	"server.read_timeout":         "15s",
	"server.write_timeout":        "45s",
	"server.idle_timeout":         "60s",
	"server.request_timeout":      "40s",
	"backend.base_url":            "http://localhost:8001",
	"backend.timeout":             "30s",
	"logging.level":               "info",
	"logging.format":              "json",
	"scheduler.enabled":           true,
	"scheduler.interval":          "30s",
	"scheduler.source_url":        "https://jsonplaceholder.typicode.com/posts/1",
	"scheduler.manual_source_url": "https://jsonplaceholder.typicode.com/posts/2",
	"telemetry.enabled":           false,
	"telemetry.service_name":      "polyglot-integration-gateway",
	"metrics.enabled":             true,
	"metrics.path":                "/metrics",
}

// Load reads path (DefaultPath when empty), applies environment overrides,
// fills defaults and validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
