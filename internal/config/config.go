// Package config loads memoryd's configuration from the process
// environment, with optional .env support, matching the env-var loading
// style of intelligencedev-manifold's main.go (firstNonEmpty/intFromEnv
// helpers over godotenv.Load()).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DBConfig describes the Postgres connection and pool sizing.
type DBConfig struct {
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	PoolSize        int
	PoolOverflow    int
	PoolTimeout     time.Duration
	ConnMaxLifetime time.Duration
}

func (d DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", d.User, d.Password, d.Host, d.Port, d.Name)
}

// LLMConfig describes default model parameters and provider credentials.
type LLMConfig struct {
	AnthropicAPIKey string
	OpenAIAPIKey    string
	GeminiAPIKey    string
	DefaultModel    string
	EmbeddingModel  string
	Temperature     float64
	MaxTokens       int
	Timeout         time.Duration
}

// AuthConfig describes JWT signing parameters.
type AuthConfig struct {
	JWTSecret   string
	TokenExpiry time.Duration
}

// Config is the fully resolved process configuration.
type Config struct {
	DB   DBConfig
	LLM  LLMConfig
	Auth AuthConfig

	CORSOrigins []string
	LogLevel    string

	// BatchSize is the number of messages that triggers a cleaning round.
	// Source left this at 6, commented as production-intended 50; kept
	// configurable rather than guessed.
	BatchSize int

	RetrievalCandidates int
	RetrievalTopK       int

	GCCron string

	RedisAddr             string
	KafkaBrokers          []string
	ClickHouseDSN         string
	TranscriptArchiveBucket string
	AWSRegion             string
}

// Load reads configuration from the environment, loading a .env file from
// the working directory first if present (missing .env is not an error).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DB: DBConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            intFromEnv("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "memoryd"),
			User:            getEnv("DB_USER", "memoryd"),
			Password:        os.Getenv("DB_PASSWORD"),
			PoolSize:        intFromEnv("DB_POOL_SIZE", 10),
			PoolOverflow:    intFromEnv("DB_POOL_OVERFLOW", 5),
			PoolTimeout:     durationFromEnv("DB_POOL_TIMEOUT_SECONDS", 30*time.Second),
			ConnMaxLifetime: durationFromEnv("DB_POOL_RECYCLE_SECONDS", 30*time.Minute),
		},
		LLM: LLMConfig{
			AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
			OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
			GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
			DefaultModel:    getEnv("LLM_DEFAULT_MODEL", "claude-sonnet-4-5"),
			EmbeddingModel:  getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			Temperature:     floatFromEnv("LLM_TEMPERATURE", 0.7),
			MaxTokens:       intFromEnv("LLM_MAX_TOKENS", 1024),
			Timeout:         durationFromEnv("LLM_TIMEOUT_SECONDS", 30*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:   getEnv("JWT_SECRET", "dev-secret-change-me"),
			TokenExpiry: time.Duration(intFromEnv("JWT_TOKEN_EXPIRY_HOURS", 7*24)) * time.Hour,
		},
		CORSOrigins:             splitCSV(getEnv("CORS_ORIGINS", "*")),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		BatchSize:               intFromEnv("BATCH_SIZE", 6),
		RetrievalCandidates:     intFromEnv("RETRIEVAL_CANDIDATES", 50),
		RetrievalTopK:           intFromEnv("RETRIEVAL_TOP_K", 5),
		GCCron:                  getEnv("GC_CRON", "0 3 * * *"),
		RedisAddr:               os.Getenv("REDIS_ADDR"),
		KafkaBrokers:            splitCSV(os.Getenv("KAFKA_BROKERS")),
		ClickHouseDSN:           os.Getenv("CLICKHOUSE_DSN"),
		TranscriptArchiveBucket: os.Getenv("TRANSCRIPT_ARCHIVE_BUCKET"),
		AWSRegion:               getEnv("AWS_REGION", "us-east-1"),
	}

	if cfg.Auth.JWTSecret == "dev-secret-change-me" {
		// not fatal: local/dev runs are expected to override this.
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intFromEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func floatFromEnv(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return time.Duration(n) * time.Second
}

func splitCSV(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
