package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pageza/alchemorsel-search/config"
	"github.com/pageza/alchemorsel-search/internal/apperrors"
)

// RecipeClient performs the enrichment stages and query embedding. Every
// call runs under its own timeout; a timeout is a provider error and is not
// retried.
type RecipeClient struct {
	chat        ChatModel
	embedder    Embedder
	prompts     *config.Prompts
	timeout     time.Duration
	maxTokens   int
	temperature float32
}

// RecipeClientOptions tune completions.
type RecipeClientOptions struct {
	Timeout     time.Duration
	MaxTokens   int
	Temperature float32
}

func NewRecipeClient(chat ChatModel, embedder Embedder, prompts *config.Prompts, opts RecipeClientOptions) *RecipeClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &RecipeClient{
		chat:        chat,
		embedder:    embedder,
		prompts:     prompts,
		timeout:     opts.Timeout,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
	}
}

// Rewrite rewrites raw instructions into clean prose.
func (c *RecipeClient) Rewrite(ctx context.Context, instructions string) (string, error) {
	return c.complete(ctx, "rewrite", c.prompts.Rewrite, instructions)
}

// FormatTitle normalizes a recipe title.
func (c *RecipeClient) FormatTitle(ctx context.Context, title string) (string, error) {
	return c.complete(ctx, "title", c.prompts.Title, title)
}

// Summarize writes a short summary of rewritten instructions.
func (c *RecipeClient) Summarize(ctx context.Context, instructions string) (string, error) {
	return c.complete(ctx, "summary", c.prompts.Summary, instructions)
}

// Embed returns the embedding of text.
func (c *RecipeClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.embedder == nil {
		return nil, apperrors.NewProviderError("embed", errors.New("no embedding provider configured"))
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	vec, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return nil, asProviderError("embed", err)
	}
	return vec, nil
}

func (c *RecipeClient) complete(ctx context.Context, op string, prompt config.Prompt, input string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.chat.Complete(ctx, ChatRequest{
		System:      prompt.System,
		User:        prompt.Render(input),
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", asProviderError(op, err)
	}
	return strings.TrimSpace(resp.Content), nil
}

func asProviderError(op string, err error) error {
	var perr *apperrors.ProviderError
	if errors.As(err, &perr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewProviderError(op, fmt.Errorf("timed out: %w", err))
	}
	return apperrors.NewProviderError(op, err)
}
