package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/msomdec/course-tracker/internal/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// clearEnv blanks every variable the config reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "STORAGE_DRIVER", "DATABASE_PATH", "REDIS_URL", "REDIS_PASSWORD", "DATABASE_URL",
		"JWT_SECRET", "COOKIE_SECURE", "LOG_LEVEL", "CATALOG_PATH", "AUTH_RATE_PER_MINUTE", "AUTH_RATE_BURST",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := config.FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}

	if cfg.Port != "8080" {
		t.Fatalf("expected port 8080, got %s", cfg.Port)
	}
	if cfg.StorageDriver != config.DriverSQLite || cfg.DatabasePath != "course-tracker.db" {
		t.Fatalf("unexpected storage defaults %s %s", cfg.StorageDriver, cfg.DatabasePath)
	}
	if !cfg.CookieSecure {
		t.Fatal("expected secure cookies by default")
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("expected info level, got %v", cfg.LogLevel)
	}
	if cfg.AuthRatePerMinute != 10 || cfg.AuthRateBurst != 5 {
		t.Fatalf("unexpected rate defaults %d/%d", cfg.AuthRatePerMinute, cfg.AuthRateBurst)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("STORAGE_DRIVER", "Redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("AUTH_RATE_BURST", "9")

	cfg, err := config.FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.StorageDriver != config.DriverRedis {
		t.Fatalf("expected redis driver, got %s", cfg.StorageDriver)
	}
	if cfg.CookieSecure {
		t.Fatal("expected insecure cookies")
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", cfg.LogLevel)
	}
	if cfg.AuthRateBurst != 9 {
		t.Fatalf("expected burst 9, got %d", cfg.AuthRateBurst)
	}
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{}},
		{"short secret", map[string]string{"JWT_SECRET": "short"}},
		{"unknown driver", map[string]string{"JWT_SECRET": testSecret, "STORAGE_DRIVER": "mongo"}},
		{"redis without url", map[string]string{"JWT_SECRET": testSecret, "STORAGE_DRIVER": "redis"}},
		{"postgres without url", map[string]string{"JWT_SECRET": testSecret, "STORAGE_DRIVER": "postgres"}},
		{"bad log level", map[string]string{"JWT_SECRET": testSecret, "LOG_LEVEL": "loud"}},
		{"bad rate", map[string]string{"JWT_SECRET": testSecret, "AUTH_RATE_PER_MINUTE": "ten"}},
		{"zero burst", map[string]string{"JWT_SECRET": testSecret, "AUTH_RATE_BURST": "0"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := config.FromEnv(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("PORT")

	dir := t.TempDir()
	env := "JWT_SECRET=" + testSecret + "\nPORT=9191\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Chdir(dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9191" {
		t.Fatalf("expected port from .env, got %s", cfg.Port)
	}
}
