package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Port:                   "8080",
		DataBackend:            "memory",
		SessionSecret:          "0123456789abcdef",
		SessionTTL:             7 * 24 * time.Hour,
		SessionCleanupInterval: 10 * time.Minute,
		RateLimitPerMinute:     60,
		LogLevel:               "info",
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "DATA_BACKEND", "SQLITE_DB_PATH", "SESSION_SECRET",
		"SESSION_TTL", "SESSION_CLEANUP_INTERVAL", "SEED_DEMO_DATA",
		"RATE_LIMIT_RPM", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.DataBackend != "sqlite" {
		t.Errorf("DataBackend = %q", cfg.DataBackend)
	}
	if cfg.SQLiteDBPath != "./data/fintrack.db" {
		t.Errorf("SQLiteDBPath = %q", cfg.SQLiteDBPath)
	}
	if cfg.SessionTTL != 7*24*time.Hour {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if cfg.SessionCleanupInterval != 10*time.Minute {
		t.Errorf("SessionCleanupInterval = %v", cfg.SessionCleanupInterval)
	}
	if cfg.SeedDemoData {
		t.Error("SeedDemoData should default to false")
	}
	if cfg.RateLimitPerMinute != 60 {
		t.Errorf("RateLimitPerMinute = %d", cfg.RateLimitPerMinute)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("SESSION_SECRET", "0123456789abcdef")
	t.Setenv("SESSION_TTL", "24h")
	t.Setenv("SEED_DEMO_DATA", "true")
	t.Setenv("RATE_LIMIT_RPM", "120")

	cfg := Load()
	if cfg.Port != "9000" || cfg.DataBackend != "memory" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("SessionTTL = %v", cfg.SessionTTL)
	}
	if !cfg.SeedDemoData {
		t.Fatal("SEED_DEMO_DATA=true not applied")
	}
	if cfg.RateLimitPerMinute != 120 {
		t.Fatalf("RateLimitPerMinute = %d", cfg.RateLimitPerMinute)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("SESSION_TTL", "soon")
	t.Setenv("RATE_LIMIT_RPM", "lots")
	t.Setenv("SEED_DEMO_DATA", "maybe")

	cfg := Load()
	if cfg.SessionTTL != 7*24*time.Hour {
		t.Fatalf("SessionTTL = %v", cfg.SessionTTL)
	}
	if cfg.RateLimitPerMinute != 60 {
		t.Fatalf("RateLimitPerMinute = %d", cfg.RateLimitPerMinute)
	}
	if cfg.SeedDemoData {
		t.Fatal("malformed bool should keep the default")
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name    string
		mutate  func(*Config)
		message string
	}{
		{"bad port", func(c *Config) { c.Port = "web" }, "invalid port"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "must be between"},
		{"unknown backend", func(c *Config) { c.DataBackend = "postgres" }, "invalid data backend"},
		{"missing secret", func(c *Config) { c.SessionSecret = "" }, "session secret is required"},
		{"short secret", func(c *Config) { c.SessionSecret = "short" }, "too short"},
		{"ttl too small", func(c *Config) { c.SessionTTL = time.Second }, "at least 1 minute"},
		{"ttl too large", func(c *Config) { c.SessionTTL = 60 * 24 * time.Hour }, "at most 30 days"},
		{"cleanup too small", func(c *Config) { c.SessionCleanupInterval = 0 }, "cleanup interval"},
		{"rate limit too small", func(c *Config) { c.RateLimitPerMinute = 0 }, "at least 1"},
		{"rate limit too large", func(c *Config) { c.RateLimitPerMinute = 20000 }, "at most 10000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.message) {
				t.Fatalf("error %q missing %q", err, tc.message)
			}
		})
	}
}

func TestValidateAggregatesErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "web"
	cfg.SessionSecret = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"invalid port", "session secret"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("aggregated error %q missing %q", err, want)
		}
	}
}
