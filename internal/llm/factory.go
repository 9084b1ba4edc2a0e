package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/pageza/alchemorsel-search/config"
)

var defaultBaseURLs = map[string]string{
	"deepseek":   "https://api.deepseek.com/v1",
	"togetherai": "https://api.together.xyz/v1",
}

func baseURLFor(provider, configured string) string {
	if configured != "" {
		return configured
	}
	return defaultBaseURLs[provider]
}

// NewChatModel builds the chat client for the configured provider.
func NewChatModel(cfg config.LLMConfig) (ChatModel, error) {
	provider := strings.ToLower(cfg.Provider)
	switch provider {
	case "openai", "deepseek", "togetherai":
		return NewOpenAIClient(cfg.APIKey, cfg.Model, "", baseURLFor(provider, cfg.BaseURL), 0), nil
	case "anthropic":
		return NewClaudeClient(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}

// NewEmbedder builds the embedding client for the configured provider. The
// Gemini embedder holds a connection and implements io.Closer.
func NewEmbedder(ctx context.Context, cfg config.EmbeddingConfig) (Embedder, error) {
	provider := strings.ToLower(cfg.Provider)
	switch provider {
	case "openai", "togetherai":
		return NewOpenAIClient(cfg.APIKey, "", cfg.Model, baseURLFor(provider, cfg.BaseURL), cfg.Dimensions), nil
	case "gemini":
		return NewGeminiEmbedder(ctx, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
}
