// Package config provides configuration management for the registry
// binaries. The library itself takes an explicit registry.Config; this
// package only maps environment variables onto it.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Registry RegistryConfig
	Server   ServerConfig
	Metrics  MetricsConfig
	Logging  LoggingConfig
}

// RegistryConfig holds registry client configuration
type RegistryConfig struct {
	// BaseURL is the root of the record store.
	BaseURL string
	// CacheTTLSeconds is the freshness window for cached documents.
	CacheTTLSeconds int
	// MaxRetries is the total number of network attempts per fetch.
	MaxRetries int
	// TimeoutSeconds bounds each individual network attempt.
	TimeoutSeconds int
	// SnapshotFallback enables the embedded snapshot as the final
	// fallback tier.
	SnapshotFallback bool
}

// CacheTTL returns the cache TTL as a duration.
func (r RegistryConfig) CacheTTL() time.Duration {
	return time.Duration(r.CacheTTLSeconds) * time.Second
}

// Timeout returns the per-attempt timeout as a duration.
func (r RegistryConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
}

// MetricsConfig holds Prometheus metrics configuration
type MetricsConfig struct {
	Enabled  bool
	Endpoint string
}

// LoggingConfig holds log output configuration
type LoggingConfig struct {
	// Format is "text" (tint, for terminals) or "json".
	Format string
	// Level is "debug", "info", "warn", or "error".
	Level string
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	// Load .env file using Viper (optional, won't fail if not found)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if .env file doesn't exist

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("REGISTRY_CACHE_TTL_SECONDS", 300)
	viper.SetDefault("REGISTRY_MAX_RETRIES", 3)
	viper.SetDefault("REGISTRY_TIMEOUT_SECONDS", 10)
	viper.SetDefault("REGISTRY_SNAPSHOT_FALLBACK", true)
	viper.SetDefault("METRICS_ENABLED", false)
	viper.SetDefault("METRICS_ENDPOINT", "/metrics")
	viper.SetDefault("LOG_FORMAT", "text")
	viper.SetDefault("LOG_LEVEL", "info")

	// Enable automatic environment variable reading
	viper.AutomaticEnv()

	cfg := &Config{
		Registry: RegistryConfig{
			BaseURL:          viper.GetString("REGISTRY_BASE_URL"),
			CacheTTLSeconds:  viper.GetInt("REGISTRY_CACHE_TTL_SECONDS"),
			MaxRetries:       viper.GetInt("REGISTRY_MAX_RETRIES"),
			TimeoutSeconds:   viper.GetInt("REGISTRY_TIMEOUT_SECONDS"),
			SnapshotFallback: viper.GetBool("REGISTRY_SNAPSHOT_FALLBACK"),
		},
		Server: ServerConfig{
			Port: viper.GetString("PORT"),
		},
		Metrics: MetricsConfig{
			Enabled:  viper.GetBool("METRICS_ENABLED"),
			Endpoint: viper.GetString("METRICS_ENDPOINT"),
		},
		Logging: LoggingConfig{
			Format: viper.GetString("LOG_FORMAT"),
			Level:  viper.GetString("LOG_LEVEL"),
		},
	}

	return cfg, nil
}

// Validate checks settings the binaries cannot run without.
func (c *Config) Validate() error {
	if c.Registry.BaseURL == "" {
		return fmt.Errorf("REGISTRY_BASE_URL must be set")
	}
	if c.Registry.CacheTTLSeconds <= 0 {
		return fmt.Errorf("REGISTRY_CACHE_TTL_SECONDS must be positive")
	}
	if c.Registry.MaxRetries <= 0 {
		return fmt.Errorf("REGISTRY_MAX_RETRIES must be positive")
	}
	if c.Registry.TimeoutSeconds <= 0 {
		return fmt.Errorf("REGISTRY_TIMEOUT_SECONDS must be positive")
	}
	return nil
}
