package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap/zapcore"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; DATABASE_URL is optional and selects
// Postgres storage over the in-memory project store when set.
type Config struct {
	// Server
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64

	// Logging
	LogLevel zapcore.Level

	// Database
	DatabaseURL      string
	DBMaxConns       int32
	DBMinConns       int32
	DBConnectTimeout time.Duration
	MigrationsDir    string

	// Per-client rate limiting on /api/v1
	RateLimitPerClient float64
	RateLimitBurst     int
	RateLimitIdleTTL   time.Duration
	RateLimitSweep     time.Duration
}

func Load() (*Config, error) {
	level, err := zapcore.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		MaxBodyBytes:    int64(getInt("MAX_BODY_BYTES", 1<<20)),

		LogLevel: level,

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DBMaxConns:       int32(getInt("DB_MAX_CONNS", 25)),
		DBMinConns:       int32(getInt("DB_MIN_CONNS", 5)),
		DBConnectTimeout: getDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
		MigrationsDir:    getEnv("MIGRATIONS_DIR", "migrations"),

		RateLimitPerClient: getFloat("RATE_LIMIT_PER_CLIENT", 20),
		RateLimitBurst:     getInt("RATE_LIMIT_BURST", 40),
		RateLimitIdleTTL:   getDuration("RATE_LIMIT_IDLE_TTL", 10*time.Minute),
		RateLimitSweep:     getDuration("RATE_LIMIT_SWEEP_INTERVAL", time.Minute),
	}

	if cfg.RateLimitPerClient <= 0 || cfg.RateLimitBurst <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_PER_CLIENT and RATE_LIMIT_BURST must be positive")
	}
	if cfg.RateLimitIdleTTL <= 0 || cfg.RateLimitSweep <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_IDLE_TTL and RATE_LIMIT_SWEEP_INTERVAL must be positive")
	}
	if cfg.MaxBodyBytes <= 0 {
		return nil, fmt.Errorf("MAX_BODY_BYTES must be positive")
	}

	return cfg, nil
}

// UsesDatabase reports whether projects are persisted in Postgres.
func (c *Config) UsesDatabase() bool {
	return c.DatabaseURL != ""
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
