package config

import (
	"fmt"
	"os"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	chatProviders      = map[string]bool{"openai": true, "deepseek": true, "togetherai": true, "anthropic": true}
	embeddingProviders = map[string]bool{"openai": true, "togetherai": true, "gemini": true}
)

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	var errs []ValidationError
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}

	switch cfg.DBDriver {
	case "postgres":
		if cfg.DBPassword == "" && cfg.Environment != Development && cfg.Environment != Test {
			add("db_password", "secret is required")
		}
	case "sqlite":
		if cfg.SQLitePath == "" {
			add("SQLITE_PATH", "is required for the sqlite driver")
		}
	default:
		add("DB_DRIVER", fmt.Sprintf("unsupported driver %q", cfg.DBDriver))
	}

	if cfg.Environment == Production && cfg.JWTSecret == "" {
		add("jwt_secret", "secret is required")
	}

	if !chatProviders[cfg.LLM.Provider] {
		add("LLM_PROVIDER", fmt.Sprintf("unsupported provider %q", cfg.LLM.Provider))
	}
	if cfg.LLM.ModelFamily == "" {
		add("LLM_MODEL_FAMILY", "is required for pricing")
	}
	if cfg.LLM.Timeout <= 0 {
		add("LLM_TIMEOUT", "must be positive")
	}
	if !embeddingProviders[cfg.Embedding.Provider] {
		add("EMBEDDING_PROVIDER", fmt.Sprintf("unsupported provider %q", cfg.Embedding.Provider))
	}
	if cfg.Embedding.Dimensions != 768 {
		add("EMBEDDING_DIMENSIONS", "must be 768 to match the recipes.embedding column")
	}

	if cfg.Search.DefaultLimit <= 0 {
		add("SEARCH_DEFAULT_LIMIT", "must be positive")
	}
	if cfg.Search.Overfetch < 0 {
		add("SEARCH_OVERFETCH", "must not be negative")
	}
	if cfg.Search.DetailConcurrency <= 0 {
		add("SEARCH_DETAIL_CONCURRENCY", "must be positive")
	}
	if cfg.Batch.ChunkSize <= 0 {
		add("BATCH_CHUNK_SIZE", "must be positive")
	}
	if _, err := ParsePartitions(os.Getenv("BATCH_PARTITIONS")); err != nil {
		add("BATCH_PARTITIONS", err.Error())
	}

	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("configuration validation failed:\n%s", strings.Join(msgs, "\n"))
}
