package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Sandbox   SandboxConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// SandboxConfig describes the confined root and how it is presented.
type SandboxConfig struct {
	Root              string `envconfig:"SANDBOX_ROOT"`
	DisplayRoot       string `envconfig:"SANDBOX_DISPLAY_ROOT"`
	RelativePaths     bool   `envconfig:"SANDBOX_RELATIVE_PATHS" default:"true"`
	MaxSearchFileSize int64  `envconfig:"SANDBOX_MAX_SEARCH_FILE_SIZE" default:"10485760"`
	Debug             bool   `envconfig:"SANDBOX_DEBUG" default:"false"`
	ArchiveWorkers    int    `envconfig:"SANDBOX_ARCHIVE_WORKERS" default:"4"`
	ArchiveMaxBytes   int64  `envconfig:"SANDBOX_ARCHIVE_MAX_BYTES" default:"0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from the environment or returns the default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration. The sandbox root is left empty and
// must be supplied before Validate passes.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Sandbox: SandboxConfig{
			RelativePaths:     true,
			MaxSearchFileSize: 10 * 1024 * 1024,
			ArchiveWorkers:    4,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Sandbox.Root) == "" {
		errs = append(errs, errors.New("SANDBOX_ROOT is required"))
	}
	if c.Sandbox.MaxSearchFileSize < 0 {
		errs = append(errs, errors.New("SANDBOX_MAX_SEARCH_FILE_SIZE must not be negative"))
	}
	if c.Sandbox.ArchiveWorkers < 0 {
		errs = append(errs, errors.New("SANDBOX_ARCHIVE_WORKERS must not be negative"))
	}
	if c.Sandbox.ArchiveMaxBytes < 0 {
		errs = append(errs, errors.New("SANDBOX_ARCHIVE_MAX_BYTES must not be negative"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		errs = append(errs, errors.New("rate limit RPS and burst must be positive when enabled"))
	}
	return errors.Join(errs...)
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}
