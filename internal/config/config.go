package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Plan sources
const (
	PlanSourceAPI   = "api"
	PlanSourceMongo = "mongo"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	MongoDB MongoDBConfig
	Redis   RedisConfig
	JWT     JWTConfig
	PlanAPI PlanAPIConfig
	Board   BoardConfig
	OTEL    OTELConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           string
	IdempotencyTTL time.Duration
}

// MongoDBConfig holds MongoDB connection configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// RedisConfig holds Redis connection configuration. Redis is optional.
type RedisConfig struct {
	Addr     string
	Password string
}

// JWTConfig holds the secret shared with the plan API for token verification
type JWTConfig struct {
	Secret string
}

// PlanAPIConfig describes where week plans come from
type PlanAPIConfig struct {
	Source       string // "api" or "mongo"
	BaseURL      string // e.g. http://localhost:8080/api
	Timeout      time.Duration
	WeekCacheTTL time.Duration // 0 disables the Redis week cache
}

// BoardConfig tunes the calendar board engine
type BoardConfig struct {
	FetchConcurrency int
	DecorationDelay  time.Duration
	Timezone         string
	IdleTTL          time.Duration // boards unused for this long are dropped; 0 keeps them
	SweepInterval    time.Duration
}

// OTELConfig holds OpenTelemetry exporter configuration
type OTELConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	URLPathPrefix  string
	InstanceID     string
	Token          string
}

// Load reads configuration from environment variables
// It attempts to load from .env file first, then falls back to system env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8090"),
			IdempotencyTTL: getEnvAsDuration("IDEMPOTENCY_TTL", 10*time.Minute),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "planboard"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""), // empty disables the week cache and idempotency
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
		PlanAPI: PlanAPIConfig{
			Source:       getEnv("PLAN_SOURCE", PlanSourceAPI),
			BaseURL:      getEnv("PLAN_API_BASE_URL", "http://localhost:8080/api"),
			Timeout:      getEnvAsDuration("PLAN_API_TIMEOUT", 10*time.Second),
			WeekCacheTTL: getEnvAsDuration("PLAN_WEEK_CACHE_TTL", 30*time.Second),
		},
		Board: BoardConfig{
			FetchConcurrency: getEnvAsInt("BOARD_FETCH_CONCURRENCY", 7),
			DecorationDelay:  getEnvAsDuration("BOARD_DECORATION_DELAY", 0),
			Timezone:         getEnv("BOARD_TIMEZONE", "Local"),
			IdleTTL:          getEnvAsDuration("BOARD_IDLE_TTL", 30*time.Minute),
			SweepInterval:    getEnvAsDuration("BOARD_SWEEP_INTERVAL", time.Minute),
		},
		OTEL: OTELConfig{
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "planboard"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
			Environment:    getEnv("OTEL_ENVIRONMENT", "development"),
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			URLPathPrefix:  getEnv("OTEL_URL_PATH_PREFIX", "/otlp"),
			InstanceID:     getEnv("OTEL_INSTANCE_ID", ""),
			Token:          getEnv("OTEL_TOKEN", ""),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.PlanAPI.Source {
	case PlanSourceAPI:
		if c.PlanAPI.BaseURL == "" {
			return fmt.Errorf("PLAN_API_BASE_URL is required when PLAN_SOURCE=api")
		}
	case PlanSourceMongo:
	default:
		return fmt.Errorf("PLAN_SOURCE must be %q or %q, got %q", PlanSourceAPI, PlanSourceMongo, c.PlanAPI.Source)
	}
	if c.Board.FetchConcurrency <= 0 {
		return fmt.Errorf("BOARD_FETCH_CONCURRENCY must be positive")
	}
	if c.Board.IdleTTL > 0 && c.Board.SweepInterval <= 0 {
		return fmt.Errorf("BOARD_SWEEP_INTERVAL must be positive when BOARD_IDLE_TTL is set")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("BOARD_TIMEZONE: %w", err)
	}
	if c.OTEL.Enabled && c.OTEL.Endpoint == "" {
		return fmt.Errorf("OTEL_EXPORTER_OTLP_ENDPOINT is required when OTEL_ENABLED=true")
	}
	return nil
}

// Location resolves the board timezone used for calendar-day keys
func (c *Config) Location() (*time.Location, error) {
	if c.Board.Timezone == "" || c.Board.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Board.Timezone)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as int or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go duration strings ("250ms", "30s")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
