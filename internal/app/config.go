// Package app holds process-level wiring: configuration and startup helpers.
package app

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv          string        `envconfig:"APP_ENV" default:"development"`
	AppAddr         string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout  time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"30s"`
	AppIdleTimeout  time.Duration `envconfig:"APP_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"APP_SHUTDOWN_TIMEOUT" default:"30s"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	PGDSN      string `envconfig:"PG_DSN" required:"true"`
	PGMaxConns int32  `envconfig:"PG_MAX_CONNS" default:"25"`
	PGMinConns int32  `envconfig:"PG_MIN_CONNS" default:"5"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.PGDSN == "" {
		return nil, errors.New("database DSN must be provided")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
