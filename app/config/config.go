package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the session service
type Config struct {
	// Server
	Port     string `env:"PORT" default:"9500"`
	Host     string `env:"HOST" default:"0.0.0.0"`
	LogLevel string `env:"LOG_LEVEL" default:"info"`

	// Database
	DatabaseHost     string `env:"DB_HOST" default:"portal-postgres"`
	DatabasePort     string `env:"DB_PORT" default:"5432"`
	DatabaseName     string `env:"DB_NAME" default:"portal_db"`
	DatabaseUser     string `env:"DB_USER" default:"portal_app"`
	DatabasePassword string `env:"DB_PASSWORD" required:"true"`
	DatabaseSSLMode  string `env:"DB_SSL_MODE" default:"require"`

	// Privileged database role, used only for policy-bypass profile reads.
	// Leaving the user empty disables the privileged path.
	DatabasePrivilegedUser     string `env:"DB_PRIVILEGED_USER"`
	DatabasePrivilegedPassword string `env:"DB_PRIVILEGED_PASSWORD"`

	// Kratos
	KratosPublicURL string `env:"KRATOS_PUBLIC_URL" required:"true"`

	// Redis session token cache
	RedisAddr     string `env:"REDIS_ADDR" default:"portal-redis:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" default:"0"`

	// Session lifecycle
	BootstrapTimeout    time.Duration `env:"BOOTSTRAP_TIMEOUT" default:"10s"`
	SessionPollInterval time.Duration `env:"SESSION_POLL_INTERVAL" default:"30s"`

	// Features
	EnableAuditLog bool `env:"ENABLE_AUDIT_LOG" default:"true"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	config := &Config{}

	// Server configuration
	config.Port = getEnvOrDefault("PORT", "9500")
	config.Host = getEnvOrDefault("HOST", "0.0.0.0")
	config.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	// Database configuration
	config.DatabaseHost = getEnvOrDefault("DB_HOST", "portal-postgres")
	config.DatabasePort = getEnvOrDefault("DB_PORT", "5432")
	config.DatabaseName = getEnvOrDefault("DB_NAME", "portal_db")
	config.DatabaseUser = getEnvOrDefault("DB_USER", "portal_app")
	config.DatabasePassword = os.Getenv("DB_PASSWORD")
	if config.DatabasePassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	config.DatabaseSSLMode = getEnvOrDefault("DB_SSL_MODE", "require")

	config.DatabasePrivilegedUser = os.Getenv("DB_PRIVILEGED_USER")
	config.DatabasePrivilegedPassword = os.Getenv("DB_PRIVILEGED_PASSWORD")
	if config.DatabasePrivilegedUser != "" && config.DatabasePrivilegedPassword == "" {
		return nil, fmt.Errorf("DB_PRIVILEGED_PASSWORD is required when DB_PRIVILEGED_USER is set")
	}

	// Kratos configuration
	config.KratosPublicURL = os.Getenv("KRATOS_PUBLIC_URL")
	if config.KratosPublicURL == "" {
		return nil, fmt.Errorf("KRATOS_PUBLIC_URL is required")
	}

	// Redis configuration
	config.RedisAddr = getEnvOrDefault("REDIS_ADDR", "portal-redis:6379")
	config.RedisPassword = os.Getenv("REDIS_PASSWORD")
	redisDBStr := getEnvOrDefault("REDIS_DB", "0")
	redisDB, err := strconv.Atoi(redisDBStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	config.RedisDB = redisDB

	// Session lifecycle configuration
	bootstrapTimeoutStr := getEnvOrDefault("BOOTSTRAP_TIMEOUT", "10s")
	config.BootstrapTimeout, err = time.ParseDuration(bootstrapTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid BOOTSTRAP_TIMEOUT: %w", err)
	}

	pollIntervalStr := getEnvOrDefault("SESSION_POLL_INTERVAL", "30s")
	config.SessionPollInterval, err = time.ParseDuration(pollIntervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_POLL_INTERVAL: %w", err)
	}

	// Feature flags
	config.EnableAuditLog = getBoolEnv("ENABLE_AUDIT_LOG", true)

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate port
	port, err := strconv.ParseInt(c.Port, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid port: %s", c.Port)
	}
	// Check port range (1-65535)
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535: %s", c.Port)
	}

	// Validate log level
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	// Validate bootstrap timeout (minimum 1 second, it bounds startup)
	if c.BootstrapTimeout < time.Second {
		return fmt.Errorf("bootstrap timeout must be at least 1 second, got: %v", c.BootstrapTimeout)
	}

	// Validate poll interval (minimum 1 second to avoid hammering Kratos)
	if c.SessionPollInterval < time.Second {
		return fmt.Errorf("session poll interval must be at least 1 second, got: %v", c.SessionPollInterval)
	}

	return nil
}

// HasPrivilegedDatabase reports whether a policy-bypass role is configured.
func (c *Config) HasPrivilegedDatabase() bool {
	return c.DatabasePrivilegedUser != ""
}

// Helper functions

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
