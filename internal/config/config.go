// Package config loads and validates application configuration from YAML
// files and environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Definitions   DefinitionsConfig   `yaml:"definitions"`
	Backend       BackendConfig       `yaml:"backend"`
	Rates         RatesConfig         `yaml:"rates"`
	Forms         FormsConfig         `yaml:"forms"`
	Lookup        LookupCacheConfig   `yaml:"lookup"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig describes HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	HandlerTimeout  time.Duration `yaml:"handler_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORS            CORSConfig    `yaml:"cors"`
}

// CORSConfig describes Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	MaxAge         int      `yaml:"max_age"`
}

// DefinitionsConfig describes where to find definition YAML files.
type DefinitionsConfig struct {
	Directories []string `yaml:"directories"`
}

// BackendConfig describes the storefront private API. The two access
// credentials are read from the named environment variables once at
// startup; a missing credential is logged but not fatal.
type BackendConfig struct {
	BaseURL         string        `yaml:"base_url"`
	Timeout         time.Duration `yaml:"timeout"`
	AccessIDEnv     string        `yaml:"access_id_env"`
	AccessSecretEnv string        `yaml:"access_secret_env"`
}

// RatesConfig describes the external exchange-rate service.
type RatesConfig struct {
	BaseURL   string        `yaml:"base_url"`
	APIKeyEnv string        `yaml:"api_key_env"`
	Timeout   time.Duration `yaml:"timeout"`
}

// FormsConfig describes form session engine settings.
type FormsConfig struct {
	SessionTTL         time.Duration `yaml:"session_ttl"`
	MaxSessions        int           `yaml:"max_sessions"`
	CalculationTimeout time.Duration `yaml:"calculation_timeout"`
}

// LookupCacheConfig describes lookup cache settings.
type LookupCacheConfig struct {
	Cache CacheConfig `yaml:"cache"`
}

// CacheConfig describes cache settings.
type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

// ObservabilityConfig describes logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel string        `yaml:"log_level"`
	Metrics  MetricsConfig `yaml:"metrics"`
}

// MetricsConfig describes Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			HandlerTimeout:  25 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			CORS: CORSConfig{
				AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type", "X-Correlation-Id"},
				MaxAge:         86400,
			},
		},
		Definitions: DefinitionsConfig{
			Directories: []string{"definitions"},
		},
		Backend: BackendConfig{
			AccessIDEnv:     "SHOPDESK_ACCESS_ID",
			AccessSecretEnv: "SHOPDESK_ACCESS_SECRET",
		},
		Rates: RatesConfig{
			BaseURL:   "https://api.exchangeratesapi.io/v1",
			APIKeyEnv: "SHOPDESK_RATES_API_KEY",
			Timeout:   10 * time.Second,
		},
		Forms: FormsConfig{
			SessionTTL:         30 * time.Minute,
			MaxSessions:        10000,
			CalculationTimeout: 10 * time.Second,
		},
		Lookup: LookupCacheConfig{
			Cache: CacheConfig{
				TTL:        5 * time.Minute,
				MaxEntries: 1000,
			},
		},
		Observability: ObservabilityConfig{
			LogLevel: "info",
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}

// Load reads a YAML config file, applies environment variable overrides,
// and validates required fields.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required fields are present and valid.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}
	if c.Backend.BaseURL == "" {
		errs = append(errs, "backend.base_url is required")
	}
	if len(c.Definitions.Directories) == 0 {
		errs = append(errs, "definitions.directories must name at least one directory")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// applyEnvOverrides reads SHOPDESK_* environment variables and overrides
// config values. Only the most commonly overridden fields are supported.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SHOPDESK_SERVER_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SHOPDESK_BACKEND_BASE_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("SHOPDESK_RATES_BASE_URL"); v != "" {
		cfg.Rates.BaseURL = v
	}
	if v := os.Getenv("SHOPDESK_OBSERVABILITY_LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
}
