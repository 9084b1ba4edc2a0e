package llm

import (
	"context"
	"errors"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/pageza/alchemorsel-search/internal/apperrors"
)

// GeminiEmbedder embeds text with a Gemini embedding model.
// text-embedding-004 returns 768 dimensions.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

func NewGeminiEmbedder(ctx context.Context, apiKey, model string) (*GeminiEmbedder, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = "text-embedding-004"
	}
	return &GeminiEmbedder{client: client, model: model}, nil
}

func (g *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	em := g.client.EmbeddingModel(g.model)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, apperrors.NewProviderError("embed", err)
	}
	if res == nil || res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, apperrors.NewProviderError("embed", errors.New("no embedding values"))
	}
	return res.Embedding.Values, nil
}

// Close releases the underlying gRPC connection.
func (g *GeminiEmbedder) Close() error {
	return g.client.Close()
}
