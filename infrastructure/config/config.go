// Package config loads the layer's configuration from the environment,
// optionally overlaid from a YAML file, and watches a runtime overrides
// file for the values that may change while the process lives.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"lugares-client/infrastructure/remote"
)

// Config holds all construction-time configuration. TTLs are configuration,
// not constants baked into cache logic, so each resource family can carry
// its own freshness window.
type Config struct {
	// Backend
	BaseURL        string        `yaml:"baseUrl"`
	APIKey         string        `yaml:"apiKey"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`

	// Cache freshness windows
	PlacesTTL time.Duration `yaml:"placesTtl"`
	RoutesTTL time.Duration `yaml:"routesTtl"`

	// On-device storage; empty selects the in-memory store
	PrefsPath string `yaml:"prefsPath"`

	// Runtime overrides file watched for changes; empty disables watching
	OverridesPath string `yaml:"overridesPath"`

	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"logLevel"`

	Breaker remote.BreakerConfig `yaml:"breaker"`
}

// LoadConfig loads configuration from environment variables, overlaying a
// YAML file when CONFIG_FILE points at one.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		BaseURL:        getEnv("BACKEND_BASE_URL", ""),
		APIKey:         getEnv("BACKEND_API_KEY", ""),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),

		PlacesTTL: getEnvDuration("PLACES_CACHE_TTL", 5*time.Minute),
		RoutesTTL: getEnvDuration("ROUTES_CACHE_TTL", 2*time.Minute),

		PrefsPath:     getEnv("PREFS_PATH", ""),
		OverridesPath: getEnv("OVERRIDES_PATH", ""),

		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		Breaker: remote.DefaultBreakerConfig(),
	}
	cfg.Breaker.Enabled = getEnvBool("BREAKER_ENABLED", true)

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overlayFile applies the non-zero values from a YAML file on top of the
// environment-derived configuration.
func (c *Config) overlayFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if file.BaseURL != "" {
		c.BaseURL = file.BaseURL
	}
	if file.APIKey != "" {
		c.APIKey = file.APIKey
	}
	if file.RequestTimeout > 0 {
		c.RequestTimeout = file.RequestTimeout
	}
	if file.PlacesTTL > 0 {
		c.PlacesTTL = file.PlacesTTL
	}
	if file.RoutesTTL > 0 {
		c.RoutesTTL = file.RoutesTTL
	}
	if file.PrefsPath != "" {
		c.PrefsPath = file.PrefsPath
	}
	if file.OverridesPath != "" {
		c.OverridesPath = file.OverridesPath
	}
	if file.Environment != "" {
		c.Environment = file.Environment
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
	}
	return nil
}

// Validate checks required configuration. A missing base URL fails here so
// a misconfigured process dies at construction, not per call.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("BACKEND_BASE_URL is required")
	}
	if c.PlacesTTL <= 0 || c.RoutesTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvDuration gets a duration environment variable with a default
// value. Bare numbers are read as seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
