package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Environment Environment

	// Server configuration
	ServerPort  string
	ServerHost  string
	CORSOrigins []string

	// Database configuration
	DBDriver     string // postgres or sqlite
	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string
	DBSSLMode    string
	SQLitePath   string
	MigrationsOn bool

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration, used to verify admin bearer tokens
	JWTSecret string

	LLM       LLMConfig
	Embedding EmbeddingConfig
	Search    SearchConfig
	Batch     BatchConfig

	// Run report archive
	ReportBucket string
	AWSRegion    string

	LogLevel  string
	LogFormat string

	// PromptsFile overrides the embedded prompt templates when set.
	PromptsFile string
}

// LLMConfig configures the chat model used for enrichment.
type LLMConfig struct {
	Provider    string // openai, deepseek, togetherai, anthropic
	Model       string
	ModelFamily string
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float32
	// BreakerFailures is the number of consecutive failures that opens the
	// provider circuit.
	BreakerFailures uint32
}

// EmbeddingConfig configures the embedding model. Dimensions must match the
// recipes.embedding column.
type EmbeddingConfig struct {
	Provider   string // openai, togetherai, gemini
	Model      string
	BaseURL    string
	APIKey     string
	Dimensions int
}

// SearchConfig tunes similarity search.
type SearchConfig struct {
	DefaultLimit      int
	Overfetch         int
	DetailConcurrency int
	EmbeddingCacheTTL time.Duration
}

// BatchConfig holds enrichment run defaults.
type BatchConfig struct {
	ChunkSize   int
	Partitions  []int
	OnlyMissing bool
}

// DSN returns the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()

	// A missing .env file is fine; real deployments use the environment.
	if env == Development || env == Test {
		_ = godotenv.Load()
	}

	cfg := &Config{Environment: env}
	loadSettings(cfg)

	// Load secrets based on environment
	switch env {
	case CI:
		if err := loadCISecrets(cfg); err != nil {
			return nil, fmt.Errorf("failed to load CI configuration: %w", err)
		}
	case Development, Test:
		loadDevSecrets(cfg)
	case Production:
		loadProdSecrets(cfg)
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	// Validate the configuration
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadSettings reads the non-secret settings, which come from the
// environment in every deployment.
func loadSettings(cfg *Config) {
	cfg.ServerPort = getEnv("SERVER_PORT", "8080")
	cfg.ServerHost = getEnv("SERVER_HOST", "0.0.0.0")
	cfg.CORSOrigins = splitList(os.Getenv("CORS_ORIGINS"))

	cfg.DBDriver = getEnv("DB_DRIVER", "postgres")
	cfg.DBHost = getEnv("DB_HOST", "localhost")
	cfg.DBPort = getEnv("DB_PORT", "5432")
	cfg.DBUser = getEnv("DB_USER", "postgres")
	cfg.DBName = getEnv("DB_NAME", "alchemorsel")
	cfg.DBSSLMode = getEnv("DB_SSL_MODE", "disable")
	cfg.SQLitePath = getEnv("SQLITE_PATH", "alchemorsel.db")
	cfg.MigrationsOn = getEnvBool("AUTO_MIGRATE", false)

	cfg.RedisHost = getEnv("REDIS_HOST", "localhost")
	cfg.RedisPort = getEnv("REDIS_PORT", "6379")
	cfg.RedisDB = getEnvInt("REDIS_DB", 0)
	cfg.RedisURL = os.Getenv("REDIS_URL")

	cfg.LLM = LLMConfig{
		Provider:        strings.ToLower(getEnv("LLM_PROVIDER", "deepseek")),
		Model:           getEnv("LLM_MODEL", "deepseek-chat"),
		ModelFamily:     getEnv("LLM_MODEL_FAMILY", "deepseek-chat"),
		BaseURL:         os.Getenv("LLM_BASE_URL"),
		Timeout:         getEnvDuration("LLM_TIMEOUT", 60*time.Second),
		MaxTokens:       getEnvInt("LLM_MAX_TOKENS", 1024),
		Temperature:     float32(getEnvFloat("LLM_TEMPERATURE", 0.3)),
		BreakerFailures: uint32(getEnvInt("LLM_BREAKER_FAILURES", 5)),
	}
	cfg.Embedding = EmbeddingConfig{
		Provider:   strings.ToLower(getEnv("EMBEDDING_PROVIDER", "openai")),
		Model:      getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		BaseURL:    os.Getenv("EMBEDDING_BASE_URL"),
		Dimensions: getEnvInt("EMBEDDING_DIMENSIONS", 768),
	}
	cfg.Search = SearchConfig{
		DefaultLimit:      getEnvInt("SEARCH_DEFAULT_LIMIT", 20),
		Overfetch:         getEnvInt("SEARCH_OVERFETCH", 30),
		DetailConcurrency: getEnvInt("SEARCH_DETAIL_CONCURRENCY", 8),
		EmbeddingCacheTTL: getEnvDuration("SEARCH_EMBEDDING_CACHE_TTL", 24*time.Hour),
	}

	partitions, err := ParsePartitions(os.Getenv("BATCH_PARTITIONS"))
	if err != nil {
		partitions = nil
	}
	cfg.Batch = BatchConfig{
		ChunkSize:   getEnvInt("BATCH_CHUNK_SIZE", 10),
		Partitions:  partitions,
		OnlyMissing: getEnvBool("BATCH_ONLY_MISSING", true),
	}

	cfg.ReportBucket = os.Getenv("REPORT_BUCKET")
	cfg.AWSRegion = getEnv("AWS_REGION", "us-east-1")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "json")
	cfg.PromptsFile = os.Getenv("PROMPTS_FILE")
}

// loadCISecrets loads secrets for CI using ONLY environment variables
func loadCISecrets(cfg *Config) error {
	cfg.DBPassword = os.Getenv("TEST_DB_PASSWORD")
	if cfg.DBPassword == "" {
		return fmt.Errorf("TEST_DB_PASSWORD environment variable is required in CI environment")
	}
	cfg.JWTSecret = os.Getenv("TEST_JWT_SECRET")
	cfg.RedisPassword = os.Getenv("TEST_REDIS_PASSWORD")
	cfg.LLM.APIKey = os.Getenv("LLM_API_KEY")
	cfg.Embedding.APIKey = os.Getenv("EMBEDDING_API_KEY")
	return nil
}

// loadDevSecrets prefers environment variables and falls back to Docker secrets
func loadDevSecrets(cfg *Config) {
	cfg.DBPassword = envOrSecret("DB_PASSWORD", "db_password")
	cfg.JWTSecret = envOrSecret("JWT_SECRET", "jwt_secret")
	cfg.RedisPassword = envOrSecret("REDIS_PASSWORD", "redis_password")
	cfg.LLM.APIKey = envOrSecret("LLM_API_KEY", "llm_api_key")
	cfg.Embedding.APIKey = envOrSecret("EMBEDDING_API_KEY", "embedding_api_key")
}

// loadProdSecrets loads secrets for production using ONLY Docker secrets
func loadProdSecrets(cfg *Config) {
	cfg.DBPassword = readSecret("db_password")
	cfg.JWTSecret = readSecret("jwt_secret")
	cfg.RedisPassword = readSecret("redis_password")
	cfg.LLM.APIKey = readSecret("llm_api_key")
	cfg.Embedding.APIKey = readSecret("embedding_api_key")
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func envOrSecret(envVar, secret string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return readSecret(secret)
}

// ParsePartitions parses a comma-separated list of partition digits 0-9.
// An empty string means all partitions.
func ParsePartitions(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 9 {
			return nil, fmt.Errorf("invalid partition %q: must be 0-9", part)
		}
		out = append(out, n)
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
