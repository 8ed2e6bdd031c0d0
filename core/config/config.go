// Package config loads gateway configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"bisage.dev/gateway/core/db"
	"github.com/joho/godotenv"
)

// MemoryBackend selects where conversation turns live. The checkpoint
// store does not follow it: it uses Redis whenever a Redis client is
// configured, else process memory.
type MemoryBackend string

const (
	MemoryBackendPostgres MemoryBackend = "postgres"
	MemoryBackendSQLite   MemoryBackend = "sqlite"
	MemoryBackendMemory   MemoryBackend = "memory"
)

// Config holds all application configuration, loaded once at startup.
type Config struct {
	Env  string
	Port string

	DB db.Config

	LLM LLMConfig

	MemoryBackend  MemoryBackend
	MemoryTTLHours int

	UseLLMRouter       bool
	UseLLMPlanner      bool
	PresentationUseLLM bool
	DemoMode           bool

	FrontendURL string

	FanOutCap int

	CacheBackend  string // "memory" | "redis"
	RedisURL      string
	AllowlistPath string // optional YAML override for the allowlist
	AdminAPIKey   string // guards POST /cache/invalidate when set

	OTel OTelConfig
}

// LLMConfig configures the language-model provider adapter.
type LLMConfig struct {
	Provider string // "openai" | "anthropic"
	Model    string
	APIKey   string
	BaseURL  string
}

// OTelConfig configures OpenTelemetry export.
type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

// Load loads configuration from environment variables (and a local .env
// file, if present). It provides sensible defaults for development.
func Load() (Config, error) {
	_ = godotenv.Load() // optional; missing .env is not an error

	cfg := Config{
		Env:  getEnv("GATEWAY_ENV", "development"),
		Port: getEnv("PORT", "8080"),
		DB: db.Config{
			DSN:          buildDSN(),
			MaxConns:     int32(getEnvInt("DB_MAX_CONNS", 10)),
			MinConns:     int32(getEnvInt("DB_MIN_CONNS", 2)),
			QueryTimeout: getEnvInt("DB_TIMEOUT_SECONDS", 30),
		},
		LLM: LLMConfig{
			Provider: getEnv("LLM_PROVIDER", "openai"),
			Model:    getEnv("LLM_MODEL", ""),
			APIKey:   getEnv("LLM_API_KEY", ""),
			BaseURL:  getEnv("LLM_BASE_URL", ""),
		},
		MemoryBackend:      MemoryBackend(getEnv("MEMORY_BACKEND", "memory")),
		MemoryTTLHours:     getEnvInt("MEMORY_TTL_HOURS", 720),
		UseLLMRouter:       getEnvBool("USE_LLM_ROUTER", true),
		UseLLMPlanner:      getEnvBool("USE_LLM_PLANNER", true),
		PresentationUseLLM: getEnvBool("PRESENTATION_USE_LLM", false),
		DemoMode:           getEnvBool("DEMO_MODE", false),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:3000"),
		FanOutCap:          getEnvInt("EXECUTOR_FANOUT_CAP", 4),
		CacheBackend:       getEnv("CACHE_BACKEND", "memory"),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379/0"),
		AllowlistPath:      getEnv("ALLOWLIST_OVERRIDE_PATH", ""),
		AdminAPIKey:        getEnv("ADMIN_API_KEY", ""),
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "bisage-gateway"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
	}

	switch cfg.MemoryBackend {
	case MemoryBackendPostgres, MemoryBackendSQLite, MemoryBackendMemory:
	default:
		return Config{}, fmt.Errorf("invalid MEMORY_BACKEND %q", cfg.MemoryBackend)
	}

	return cfg, nil
}

// buildDSN constructs the database connection string from individual env vars.
// DB_URL, if set, takes precedence over the individual DATABASE_* vars.
func buildDSN() string {
	if url := getEnv("DB_URL", ""); url != "" {
		return url
	}

	host := getEnv("DATABASE_HOST", "localhost")
	port := getEnv("DATABASE_PORT", "5432")
	user := getEnv("DATABASE_USER", "postgres")
	password := getEnv("DATABASE_PASSWORD", "postgres")
	name := getEnv("DATABASE_NAME", "bisage")
	sslMode := getEnv("DATABASE_SSLMODE", "disable")

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		user, password, host, port, name, sslMode,
	)
}

// IsProduction returns true if running in production environment.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// IsDevelopment returns true if running in development environment.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
