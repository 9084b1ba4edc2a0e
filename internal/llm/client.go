// Package llm wraps the chat and embedding providers used for recipe
// enrichment and query embedding.
package llm

import (
	"context"
)

// ChatRequest is a single-turn completion request.
type ChatRequest struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float32
}

// Usage is the token accounting reported by a provider.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	ReasoningTokens  int
}

// ChatResponse is the first choice of a completion.
type ChatResponse struct {
	Content string
	Model   string
	Usage   Usage
}

// ChatModel completes prompts.
type ChatModel interface {
	Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
