package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents runtime configuration derived from environment variables.
type Config struct {
	Server     ServerConfig
	Logging    LoggingConfig
	Redis      RedisConfig
	Aggregator AggregatorConfig
	Queue      QueueConfig
	Scheduler  SchedulerConfig
	Storage    StorageConfig
	Sources    SourcesConfig
}

// ServerConfig holds HTTP server runtime parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig represents structured logging configuration.
type LoggingConfig struct {
	Level  slog.Level
	Format string
}

// RedisConfig holds connection parameters for the queue broker.
type RedisConfig struct {
	URL         string
	PoolSize    int
	DialTimeout time.Duration
}

// AggregatorConfig tunes the feed aggregation cycle.
type AggregatorConfig struct {
	FetchTimeout       time.Duration // per-source fetch deadline
	DefaultLimit       int
	FailureThreshold   int     // consecutive failures before a source is skipped
	MinCredibility     float64 // credibility floor, 0 disables filtering
	CacheTTL           time.Duration
	DuplicateThreshold float64
	SimilarThreshold   float64
}

// QueueConfig tunes the task queue lanes.
type QueueConfig struct {
	KeyPrefix string
	PollWait  time.Duration
}

// SchedulerConfig holds recurring job intervals.
type SchedulerConfig struct {
	FetchInterval   time.Duration
	CleanupInterval time.Duration
	QuotaInterval   time.Duration
}

// StorageConfig holds the optional Postgres result sink connection.
type StorageConfig struct {
	DatabaseURL string // empty disables persistence
}

// SourcesConfig points at the YAML data files.
type SourcesConfig struct {
	RegistryPath string
	TiersPath    string
}

const (
	defaultPort            = "8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultShutdownTimeout = 5 * time.Second

	defaultLogFormat = "json"

	defaultRedisURL         = "redis://localhost:6379/0"
	defaultRedisPoolSize    = 10
	defaultRedisDialTimeout = 5 * time.Second

	defaultFetchTimeout       = 10 * time.Second
	defaultLimit              = 50
	defaultFailureThreshold   = 3
	defaultCacheTTL           = 5 * time.Minute
	defaultDuplicateThreshold = 0.85
	defaultSimilarThreshold   = 0.70

	defaultQueuePrefix = "digitaltide:queue"
	defaultPollWait    = 2 * time.Second

	defaultFetchInterval   = 1 * time.Hour
	defaultCleanupInterval = 24 * time.Hour
	defaultQuotaInterval   = 30 * 24 * time.Hour

	defaultRegistryPath = "./config/sources.yaml"
	defaultTiersPath    = "./config/tiers.yaml"
)

// Load reads configuration from environment variables, applying defaults when
// values are not provided. A .env file is honored when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	// Cloud platforms set PORT, but allow SERVER_PORT override for local dev
	port := getEnv("PORT", "")
	if port == "" {
		port = getEnv("SERVER_PORT", defaultPort)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            port,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:  slog.LevelInfo,
			Format: defaultLogFormat,
		},
		Redis: RedisConfig{
			URL:         getEnv("REDIS_URL", defaultRedisURL),
			PoolSize:    defaultRedisPoolSize,
			DialTimeout: defaultRedisDialTimeout,
		},
		Aggregator: AggregatorConfig{
			FetchTimeout:       defaultFetchTimeout,
			DefaultLimit:       defaultLimit,
			FailureThreshold:   defaultFailureThreshold,
			CacheTTL:           defaultCacheTTL,
			DuplicateThreshold: defaultDuplicateThreshold,
			SimilarThreshold:   defaultSimilarThreshold,
		},
		Queue: QueueConfig{
			KeyPrefix: getEnv("QUEUE_KEY_PREFIX", defaultQueuePrefix),
			PollWait:  defaultPollWait,
		},
		Scheduler: SchedulerConfig{
			FetchInterval:   defaultFetchInterval,
			CleanupInterval: defaultCleanupInterval,
			QuotaInterval:   defaultQuotaInterval,
		},
		Storage: StorageConfig{
			DatabaseURL: os.Getenv("DATABASE_URL"),
		},
		Sources: SourcesConfig{
			RegistryPath: getEnv("SOURCES_FILE", defaultRegistryPath),
			TiersPath:    getEnv("TIERS_FILE", defaultTiersPath),
		},
	}

	if v := os.Getenv("SERVER_READ_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_READ_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ReadTimeout = d
	}

	if v := os.Getenv("SERVER_WRITE_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.WriteTimeout = d
	}

	if v := os.Getenv("SERVER_SHUTDOWN_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ShutdownTimeout = d
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.Logging.Level = level
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		switch v {
		case "json", "text":
			cfg.Logging.Format = v
		default:
			return Config{}, fmt.Errorf("invalid LOG_FORMAT: must be 'json' or 'text'")
		}
	}

	if v := os.Getenv("REDIS_POOL_SIZE"); v != "" {
		n, err := parsePositiveInt(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid REDIS_POOL_SIZE: %w", err)
		}
		cfg.Redis.PoolSize = n
	}

	if v := os.Getenv("FETCH_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid FETCH_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Aggregator.FetchTimeout = d
	}

	if v := os.Getenv("AGGREGATOR_DEFAULT_LIMIT"); v != "" {
		n, err := parsePositiveInt(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid AGGREGATOR_DEFAULT_LIMIT: %w", err)
		}
		cfg.Aggregator.DefaultLimit = n
	}

	if v := os.Getenv("MIN_CREDIBILITY"); v != "" {
		f, err := parseFraction(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid MIN_CREDIBILITY: %w", err)
		}
		cfg.Aggregator.MinCredibility = f
	}

	if v := os.Getenv("DUPLICATE_THRESHOLD"); v != "" {
		f, err := parseFraction(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DUPLICATE_THRESHOLD: %w", err)
		}
		cfg.Aggregator.DuplicateThreshold = f
	}

	if v := os.Getenv("FETCH_INTERVAL_MINUTES"); v != "" {
		n, err := parsePositiveInt(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid FETCH_INTERVAL_MINUTES: %w", err)
		}
		cfg.Scheduler.FetchInterval = time.Duration(n) * time.Minute
	}

	return cfg, nil
}

func parseSeconds(raw string) (time.Duration, error) {
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return time.Duration(seconds) * time.Second, nil
}

func parsePositiveInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("must be a positive integer")
	}
	return n, nil
}

func parseFraction(raw string) (float64, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 || f > 1 {
		return 0, fmt.Errorf("must be a number between 0 and 1")
	}
	return f, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("must be one of debug, info, warn, error")
	}
}
