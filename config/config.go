// Package config loads the client configuration file.
//
// The file is YAML; every field is optional and falls back to Default:
//
//	url: localhost:8080
//	request_timeout: 15s
//	confirm_timeout: 15s
//	rate_limit:
//	  requests_per_second: 10
//	  burst: 5
//	logging:
//	  level: info
//	keys:
//	  dir: ~/.config/embers/keys
//	  default: my-wallet
//	metrics:
//	  addr: 127.0.0.1:9090
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the client
type Config struct {
	URL            string          `yaml:"url"`
	RequestTimeout time.Duration   `yaml:"request_timeout"`
	ConfirmTimeout time.Duration   `yaml:"confirm_timeout"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
	Logging        LoggingConfig   `yaml:"logging"`
	Keys           KeysConfig      `yaml:"keys"`
	Metrics        MetricsConfig   `yaml:"metrics"`
}

// RateLimitConfig holds client-side request limiting. Zero disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// KeysConfig holds key storage settings
type KeysConfig struct {
	Dir     string `yaml:"dir"`
	Default string `yaml:"default"`
}

// MetricsConfig holds the optional metrics listener address
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		URL:            "localhost:8080",
		RequestTimeout: 15 * time.Second,
		ConfirmTimeout: 15 * time.Second,
		Logging:        LoggingConfig{Level: "info"},
	}
}

// Load reads the file at path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// fields are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if strings.HasPrefix(cfg.Keys.Dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.Keys.Dir = filepath.Join(home, cfg.Keys.Dir[2:])
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return errors.New("url must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.ConfirmTimeout <= 0 {
		return fmt.Errorf("confirm_timeout must be positive, got %s", c.ConfirmTimeout)
	}
	if c.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("rate_limit.requests_per_second must not be negative, got %g", c.RateLimit.RequestsPerSecond)
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst < 1 {
		return fmt.Errorf("rate_limit.burst must be at least 1 when rate limiting is enabled")
	}
	return nil
}
