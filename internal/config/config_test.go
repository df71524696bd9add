package config

import (
	"testing"
	"time"

	"log/slog"
)

// clearEnv blanks every variable Load reads so ambient shell state cannot
// leak into assertions.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "SERVER_PORT",
		"SERVER_READ_TIMEOUT_SECONDS", "SERVER_WRITE_TIMEOUT_SECONDS", "SERVER_SHUTDOWN_TIMEOUT_SECONDS",
		"LOG_LEVEL", "LOG_FORMAT",
		"REDIS_URL", "REDIS_POOL_SIZE",
		"FETCH_TIMEOUT_SECONDS", "AGGREGATOR_DEFAULT_LIMIT", "MIN_CREDIBILITY", "DUPLICATE_THRESHOLD",
		"FETCH_INTERVAL_MINUTES",
		"QUEUE_KEY_PREFIX", "DATABASE_URL", "SOURCES_FILE", "TIERS_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 10*time.Second || cfg.Server.WriteTimeout != 10*time.Second {
		t.Errorf("server timeouts = %v/%v, want 10s/10s", cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
	}
	if cfg.Logging.Level != slog.LevelInfo || cfg.Logging.Format != "json" {
		t.Errorf("logging = %v/%q, want info/json", cfg.Logging.Level, cfg.Logging.Format)
	}
	if cfg.Redis.URL != "redis://localhost:6379/0" || cfg.Redis.PoolSize != 10 {
		t.Errorf("redis = %q pool %d", cfg.Redis.URL, cfg.Redis.PoolSize)
	}
	if cfg.Aggregator.FetchTimeout != 10*time.Second {
		t.Errorf("fetch timeout = %v, want 10s", cfg.Aggregator.FetchTimeout)
	}
	if cfg.Aggregator.FailureThreshold != 3 {
		t.Errorf("failure threshold = %d, want 3", cfg.Aggregator.FailureThreshold)
	}
	if cfg.Aggregator.DuplicateThreshold != 0.85 || cfg.Aggregator.SimilarThreshold != 0.70 {
		t.Errorf("dedup thresholds = %v/%v, want 0.85/0.70",
			cfg.Aggregator.DuplicateThreshold, cfg.Aggregator.SimilarThreshold)
	}
	if cfg.Aggregator.MinCredibility != 0 {
		t.Errorf("min credibility = %v, want 0 (filtering disabled)", cfg.Aggregator.MinCredibility)
	}
	if cfg.Queue.KeyPrefix != "digitaltide:queue" {
		t.Errorf("queue prefix = %q", cfg.Queue.KeyPrefix)
	}
	if cfg.Scheduler.FetchInterval != time.Hour {
		t.Errorf("fetch interval = %v, want 1h", cfg.Scheduler.FetchInterval)
	}
	if cfg.Storage.DatabaseURL != "" {
		t.Errorf("database url = %q, want empty (persistence disabled)", cfg.Storage.DatabaseURL)
	}
	if cfg.Sources.RegistryPath != "./config/sources.yaml" || cfg.Sources.TiersPath != "./config/tiers.yaml" {
		t.Errorf("source paths = %q / %q", cfg.Sources.RegistryPath, cfg.Sources.TiersPath)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_READ_TIMEOUT_SECONDS", "30")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("REDIS_URL", "redis://cache.internal:6380/1")
	t.Setenv("REDIS_POOL_SIZE", "25")
	t.Setenv("FETCH_TIMEOUT_SECONDS", "20")
	t.Setenv("AGGREGATOR_DEFAULT_LIMIT", "100")
	t.Setenv("MIN_CREDIBILITY", "0.4")
	t.Setenv("DUPLICATE_THRESHOLD", "0.9")
	t.Setenv("FETCH_INTERVAL_MINUTES", "15")
	t.Setenv("QUEUE_KEY_PREFIX", "newsd:queue")
	t.Setenv("DATABASE_URL", "postgres://app@db/news")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("read timeout = %v, want 30s", cfg.Server.ReadTimeout)
	}
	if cfg.Logging.Level != slog.LevelDebug || cfg.Logging.Format != "text" {
		t.Errorf("logging = %v/%q, want debug/text", cfg.Logging.Level, cfg.Logging.Format)
	}
	if cfg.Redis.URL != "redis://cache.internal:6380/1" || cfg.Redis.PoolSize != 25 {
		t.Errorf("redis = %q pool %d", cfg.Redis.URL, cfg.Redis.PoolSize)
	}
	if cfg.Aggregator.FetchTimeout != 20*time.Second {
		t.Errorf("fetch timeout = %v, want 20s", cfg.Aggregator.FetchTimeout)
	}
	if cfg.Aggregator.DefaultLimit != 100 {
		t.Errorf("default limit = %d, want 100", cfg.Aggregator.DefaultLimit)
	}
	if cfg.Aggregator.MinCredibility != 0.4 {
		t.Errorf("min credibility = %v, want 0.4", cfg.Aggregator.MinCredibility)
	}
	if cfg.Aggregator.DuplicateThreshold != 0.9 {
		t.Errorf("duplicate threshold = %v, want 0.9", cfg.Aggregator.DuplicateThreshold)
	}
	if cfg.Scheduler.FetchInterval != 15*time.Minute {
		t.Errorf("fetch interval = %v, want 15m", cfg.Scheduler.FetchInterval)
	}
	if cfg.Queue.KeyPrefix != "newsd:queue" {
		t.Errorf("queue prefix = %q, want newsd:queue", cfg.Queue.KeyPrefix)
	}
	if cfg.Storage.DatabaseURL != "postgres://app@db/news" {
		t.Errorf("database url = %q", cfg.Storage.DatabaseURL)
	}
}

func TestLoadCloudPortPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7000")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "7000" {
		t.Errorf("port = %q, PORT should win over SERVER_PORT", cfg.Server.Port)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric timeout", "SERVER_READ_TIMEOUT_SECONDS", "soon"},
		{"negative timeout", "SERVER_SHUTDOWN_TIMEOUT_SECONDS", "-5"},
		{"unknown log level", "LOG_LEVEL", "verbose"},
		{"unknown log format", "LOG_FORMAT", "xml"},
		{"zero pool size", "REDIS_POOL_SIZE", "0"},
		{"limit not a number", "AGGREGATOR_DEFAULT_LIMIT", "many"},
		{"credibility above one", "MIN_CREDIBILITY", "1.5"},
		{"threshold negative", "DUPLICATE_THRESHOLD", "-0.2"},
		{"interval zero", "FETCH_INTERVAL_MINUTES", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("Load should reject %s=%q", tt.key, tt.value)
			}
		})
	}
}
