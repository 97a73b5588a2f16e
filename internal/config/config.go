package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// CORS (browser frontend origin)
	AllowedOrigins []string

	// Storage
	DatabaseURL string
	UsePostgres bool // false = in-memory store

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int // bulkhead on concurrent store reads

	// Cache
	CacheTTL time.Duration

	// Observability
	OTLPEndpoint string

	// JWT / Auth
	JWTSecret    string
	JWTAccessTTL time.Duration

	// Accrual scheduler
	AccrualCron        string        // cron spec for the daily accrual trigger
	AccrualBudget      time.Duration // wall-clock budget per run
	AccrualConcurrency int           // parallel investment workers
	RunLockTTL         time.Duration // abandoned run-lock takeover threshold
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AllowedOrigins: []string{getEnv("ALLOWED_ORIGIN", "*")},

		DatabaseURL: getEnv("DATABASE_URL", ""),
		UsePostgres: getEnv("USE_POSTGRES", "false") == "true",

		MaxRetries:     getEnvInt("MAX_RETRIES", 1),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 20),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		JWTSecret:    getEnv("JWT_SECRET", "invest-default-dev-secret-change-me"),
		JWTAccessTTL: getEnvDuration("JWT_ACCESS_TTL", 15*time.Minute),

		AccrualCron:        getEnv("ACCRUAL_CRON", "0 0 * * *"),
		AccrualBudget:      getEnvDuration("ACCRUAL_BUDGET", 10*time.Minute),
		AccrualConcurrency: getEnvInt("ACCRUAL_CONCURRENCY", 8),
		RunLockTTL:         getEnvDuration("RUN_LOCK_TTL", 30*time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
