package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the chat history service.
// Environment variables are automatically parsed from the CHATFOLD_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Remote myself-chooser endpoint. Loaders call it when a source format
	// does not mark which participant is the local user.
	ChooserURL string `envconfig:"CHOOSER_URL" default:"http://localhost:8081"`

	// ChooserTimeoutSec bounds a single choose-myself round trip. The remote
	// end may be a human-facing picker, so the default is generous.
	ChooserTimeoutSec int `envconfig:"CHOOSER_TIMEOUT_SEC" default:"300"`

	// HTTPClientTimeoutSec bounds outbound media downloads during loading.
	HTTPClientTimeoutSec int `envconfig:"HTTP_CLIENT_TIMEOUT_SEC" default:"60"`

	// Logging Configuration
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// LogTruncateLen caps rendered request/response payloads in logs.
	LogTruncateLen int `envconfig:"LOG_TRUNCATE_LEN" default:"150"`
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP_PORT: %d", c.HTTPPort)
	}
	if c.ChooserURL == "" {
		return fmt.Errorf("CHOOSER_URL must not be empty")
	}
	if c.ChooserTimeoutSec <= 0 {
		return fmt.Errorf("invalid CHOOSER_TIMEOUT_SEC: %d", c.ChooserTimeoutSec)
	}
	if c.HTTPClientTimeoutSec <= 0 {
		return fmt.Errorf("invalid HTTP_CLIENT_TIMEOUT_SEC: %d", c.HTTPClientTimeoutSec)
	}
	if c.LogTruncateLen <= 0 {
		return fmt.Errorf("invalid LOG_TRUNCATE_LEN: %d", c.LogTruncateLen)
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Environment variables should be prefixed with CHATFOLD_
// Example: CHATFOLD_HTTP_PORT, CHATFOLD_CHOOSER_URL
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("CHATFOLD", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("chooser_url", cfg.ChooserURL).
		Str("log_level", cfg.LogLevel).
		Int("log_truncate_len", cfg.LogTruncateLen).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing
func NewForTesting() *Config {
	return &Config{
		Environment:          EnvTesting,
		HTTPPort:             8080,
		ChooserURL:           "http://localhost:8081",
		ChooserTimeoutSec:    5,
		HTTPClientTimeoutSec: 5,
		LogLevel:             "debug",
		LogTruncateLen:       150,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
