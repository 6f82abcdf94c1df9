// Package config loads runtime settings from an optional YAML file and the environment.
// Environment variables always win over file values.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"garage-portal/internal/logger"

	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no explicit path is given. A missing default file is not an error.
const DefaultFile = "garage.yaml"

// LogSection mirrors logger.LogConfig in the YAML file.
type LogSection struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	TimeFormat string `yaml:"time_format"`
	Output     string `yaml:"output"`
}

// Config holds the settings shared by cmd/server and cmd/app.
type Config struct {
	APIBaseURL     string     `yaml:"api_base_url"`
	APIToken       string     `yaml:"api_token"`  // operator token for the CLI
	JWTSecret      string     `yaml:"jwt_secret"` // enables signature verification of session tokens
	ServerPort     string     `yaml:"server_port"`
	AllowedOrigins string     `yaml:"allowed_origins"`
	HTTPTimeout    string     `yaml:"http_timeout"`
	Log            LogSection `yaml:"log"`

	timeout time.Duration
}

// Load reads path (or DefaultFile when path is empty), applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{
		ServerPort:  "8080",
		HTTPTimeout: "30s",
		Log: LogSection{
			Level:      "info",
			Format:     "console",
			TimeFormat: time.RFC3339,
			Output:     "stderr",
		},
	}

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	override(&c.APIBaseURL, "API_BASE_URL")
	override(&c.APIToken, "API_TOKEN")
	override(&c.JWTSecret, "JWT_SECRET")
	override(&c.ServerPort, "SERVER_PORT")
	override(&c.AllowedOrigins, "ALLOWED_ORIGINS")
	override(&c.HTTPTimeout, "HTTP_TIMEOUT")
	override(&c.Log.Level, "LOG_LEVEL")
	override(&c.Log.Format, "LOG_FORMAT")
	override(&c.Log.TimeFormat, "LOG_TIME_FORMAT")
	override(&c.Log.Output, "LOG_OUTPUT")
}

func (c *Config) validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute http(s) URL, got %q", c.APIBaseURL)
	}
	d, err := time.ParseDuration(c.HTTPTimeout)
	if err != nil || d <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be a positive duration, got %q", c.HTTPTimeout)
	}
	c.timeout = d
	return nil
}

// Timeout is the shared HTTP client timeout for calls to the order API.
func (c *Config) Timeout() time.Duration {
	return c.timeout
}

// LoggerConfig returns the logger configuration from the main config.
func (c *Config) LoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		TimeFormat: c.Log.TimeFormat,
		Output:     c.Log.Output,
	}
}

func override(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
