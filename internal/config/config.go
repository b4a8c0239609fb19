// Package config reads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// MinJWTSecretLength is the shortest accepted signing secret.
const MinJWTSecretLength = 32

// Config holds every setting the server needs.
type Config struct {
	Port          string
	StorageDriver string
	DatabasePath  string
	RedisURL      string
	RedisPassword string
	DatabaseURL   string
	JWTSecret     string
	CookieSecure  bool
	LogLevel      slog.Level
	CatalogPath   string

	AuthRatePerMinute int
	AuthRateBurst     int
}

// Load reads a .env file when one exists, then the environment, and
// validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:          envOrDefault("PORT", "8080"),
		StorageDriver: strings.ToLower(envOrDefault("STORAGE_DRIVER", DriverSQLite)),
		DatabasePath:  envOrDefault("DATABASE_PATH", "course-tracker.db"),
		RedisURL:      os.Getenv("REDIS_URL"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		CatalogPath:   os.Getenv("CATALOG_PATH"),
		// Default to secure cookies; disable only for local development.
		CookieSecure: os.Getenv("COOKIE_SECURE") != "false",
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(envOrDefault("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	var err error
	if cfg.AuthRatePerMinute, err = envInt("AUTH_RATE_PER_MINUTE", 10); err != nil {
		return nil, err
	}
	if cfg.AuthRateBurst, err = envInt("AUTH_RATE_BURST", 5); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	if len(c.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters for HMAC-SHA256 security", MinJWTSecretLength)
	}

	switch c.StorageDriver {
	case DriverSQLite:
		if c.DatabasePath == "" {
			return errors.New("DATABASE_PATH is required for the sqlite driver")
		}
	case DriverRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis driver")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q (want sqlite, redis or postgres)", c.StorageDriver)
	}

	if c.AuthRatePerMinute < 1 {
		return fmt.Errorf("AUTH_RATE_PER_MINUTE must be positive, got %d", c.AuthRatePerMinute)
	}
	if c.AuthRateBurst < 1 {
		return fmt.Errorf("AUTH_RATE_BURST must be positive, got %d", c.AuthRateBurst)
	}
	return nil
}

func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func envInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
