// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/brandhub/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Notification configuration
	Notify NotifyConfig

	// Observability configuration
	Observability ObservabilityConfig

	// Team lifecycle configuration
	Team TeamConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NotifyConfig holds team event notification configuration
type NotifyConfig struct {
	// RedisURL enables the Redis pub/sub notifier when set.
	// Empty means events are written to the structured log only.
	RedisURL string
	Channel  string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// TeamConfig holds invitation and access request tuning
type TeamConfig struct {
	// PruneSchedule is a cron expression for removing stale expired invitations
	PruneSchedule string
	// PruneRetention keeps expired invitations visible for this long before removal
	PruneRetention time.Duration
	// PermissionCacheTTL bounds staleness of cached permission rows.
	// Zero (the default) disables the cache so role changes take effect
	// on the very next request across all instances.
	PermissionCacheTTL time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("BRANDHUB_HOST", "0.0.0.0"),
			Port:            getEnv("BRANDHUB_PORT", "8080"),
			ReadTimeout:     getEnvDuration("BRANDHUB_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("BRANDHUB_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("BRANDHUB_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("BRANDHUB_SHUTDOWN_TIMEOUT", 30*time.Second),
			HealthPort:      getEnv("BRANDHUB_HEALTH_PORT", "9090"),
		},
		Database: DatabaseConfig{
			URL:             getEnv("BRANDHUB_POSTGRES_URL", ""),
			MaxOpenConns:    getEnvInt("BRANDHUB_POSTGRES_MAX_CONNS", 25),
			MaxIdleConns:    getEnvInt("BRANDHUB_POSTGRES_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("BRANDHUB_POSTGRES_CONN_LIFETIME", 30*time.Minute),
		},
		Notify: NotifyConfig{
			RedisURL: getEnv("BRANDHUB_REDIS_URL", ""),
			Channel:  getEnv("BRANDHUB_NOTIFY_CHANNEL", ""),
		},
		Observability: ObservabilityConfig{
			LogLevel:       observability.ParseLogLevel(getEnv("BRANDHUB_LOG_LEVEL", "info")),
			MetricsEnabled: getEnvBool("BRANDHUB_METRICS_ENABLED", true),
		},
		Team: TeamConfig{
			PruneSchedule:      getEnv("BRANDHUB_INVITATION_PRUNE_SCHEDULE", "0 3 * * *"),
			PruneRetention:     getEnvDuration("BRANDHUB_INVITATION_PRUNE_RETENTION", 30*24*time.Hour),
			PermissionCacheTTL: getEnvDuration("BRANDHUB_PERMISSION_CACHE_TTL", 0),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required (BRANDHUB_POSTGRES_URL)")
	}
	if c.Database.MaxOpenConns < c.Database.MaxIdleConns {
		return fmt.Errorf("max open connections must be >= max idle connections")
	}

	if c.Team.PruneSchedule == "" {
		return fmt.Errorf("invitation prune schedule is required")
	}
	if c.Team.PruneRetention <= 0 {
		return fmt.Errorf("invitation prune retention must be positive")
	}
	if c.Team.PermissionCacheTTL < 0 {
		return fmt.Errorf("permission cache TTL must not be negative")
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
