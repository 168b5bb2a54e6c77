// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/fx"
)

// Config is the root configuration for the offerly service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	HTTP     HTTPConfig
	Database DatabaseConfig
	Autosave AutosaveConfig
	Janitor  JanitorConfig
	Tracing  TracingConfig
}

// HTTPConfig configures the HTTP listener.
type HTTPConfig struct {
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`
}

// DatabaseConfig configures the gorm connection.
type DatabaseConfig struct {
	DSN string `env:"DATABASE_DSN" envDefault:"file:offerly.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"`
}

// AutosaveConfig controls the draft autosave scheduler.
type AutosaveConfig struct {
	Debounce time.Duration `env:"AUTOSAVE_DEBOUNCE" envDefault:"2s"`
}

// JanitorConfig controls stale draft cleanup.
type JanitorConfig struct {
	Retention    time.Duration `env:"DRAFT_RETENTION" envDefault:"720h"`
	PollInterval time.Duration `env:"DRAFT_JANITOR_INTERVAL" envDefault:"1h"`
	BatchSize    int           `env:"DRAFT_JANITOR_BATCH" envDefault:"50"`
}

// TracingConfig configures the OpenTelemetry exporter.
type TracingConfig struct {
	Enabled          bool    `env:"TRACING_ENABLED" envDefault:"false"`
	ServiceName      string  `env:"TRACING_SERVICE_NAME" envDefault:"offerly"`
	ExporterEndpoint string  `env:"TRACING_ENDPOINT"`
	ExporterProtocol string  `env:"TRACING_PROTOCOL" envDefault:"http"`
	SamplingRatio    float64 `env:"TRACING_SAMPLING_RATIO" envDefault:"1"`
}

// Load parses configuration from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// IsProduction reports whether the service runs in a production environment.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

var Module = fx.Module("config",
	fx.Provide(Load),
)
