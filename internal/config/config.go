// Package config loads the gkcms configuration from a YAML file and the
// environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/remiblancher/goodkey-cms/internal/observability"
)

// Environment variables read by ApplyEnv.
const (
	EnvAPIURL   = "API_URL"
	EnvAPIToken = "API_TOKEN"
	EnvPort     = "GKCMS_PORT"
	EnvHost     = "GKCMS_HOST"
	EnvAuditLog = "GKCMS_AUDIT_LOG"
	EnvLogLevel = "GKCMS_LOG_LEVEL"
)

// Config is the complete gkcms configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Signing SigningConfig `yaml:"signing"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Audit   AuditConfig   `yaml:"audit"`
	Tracing TracingConfig `yaml:"tracing"`
}

// APIConfig locates the GoodKey API.
type APIConfig struct {
	URL string `yaml:"url"`

	// TokenEnv names the environment variable holding the API token.
	// The token itself never appears in the file.
	TokenEnv string `yaml:"token_env"`

	Timeout time.Duration `yaml:"timeout"`
}

// SigningConfig pins the key and certificate used for signing. Empty values
// select the first entry of the token profile.
type SigningConfig struct {
	KeyID         string `yaml:"key_id"`
	CertificateID string `yaml:"certificate_id"`
}

// ServerConfig configures the HTTP front door.
type ServerConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	TLSCert string `yaml:"tls_cert"`
	TLSKey  string `yaml:"tls_key"`
}

// LogConfig configures technical logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// AuditConfig configures the audit log. An empty path disables auditing.
type AuditConfig struct {
	Path string `yaml:"path"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Exporter    string `yaml:"exporter"`
	ServiceName string `yaml:"service_name"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		API: APIConfig{
			TokenEnv: EnvAPIToken,
			Timeout:  30 * time.Second,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Log:     LogConfig{Level: "info"},
		Tracing: TracingConfig{Exporter: observability.ExporterNone, ServiceName: "gkcms"},
	}
}

// Load reads path over the defaults, applies the environment and validates
// the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides file values with the environment.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.API.URL = v
	}
	if v := os.Getenv(EnvHost); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv(EnvAuditLog); v != "" {
		c.Audit.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.API.URL == "" {
		return fmt.Errorf("api.url is required (or set %s)", EnvAPIURL)
	}
	u, err := url.Parse(c.API.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.url must be an http or https URL: %q", c.API.URL)
	}
	if c.API.TokenEnv == "" {
		return fmt.Errorf("api.token_env is required")
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if (c.Server.TLSCert == "") != (c.Server.TLSKey == "") {
		return fmt.Errorf("server.tls_cert and server.tls_key must be set together")
	}
	if _, err := observability.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Tracing.Exporter {
	case "", observability.ExporterNone, observability.ExporterStdout:
	default:
		return fmt.Errorf("unsupported tracing exporter: %s (expected none or stdout)", c.Tracing.Exporter)
	}
	return nil
}

// Token returns the API token from the environment variable named by
// api.token_env.
func (c *Config) Token() (string, error) {
	token := os.Getenv(c.API.TokenEnv)
	if token == "" {
		return "", fmt.Errorf("environment variable %s is not set or empty", c.API.TokenEnv)
	}
	return token, nil
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() observability.LogLevel {
	level, _ := observability.ParseLevel(c.Log.Level)
	return level
}

// Address returns host:port for the HTTP server.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
