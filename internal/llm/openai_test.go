package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/alchemorsel-search/internal/apperrors"
)

func newFakeProvider(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv.URL + "/v1"
}

func TestOpenAIClientComplete(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	baseURL := newFakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "cmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "deepseek-reasoner",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Spicy Tofu Stir Fry"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 42, "completion_tokens": 7, "total_tokens": 49, "completion_tokens_details": {"reasoning_tokens": 120}}
		}`))
	})

	client := NewOpenAIClient("test-key", "deepseek-reasoner", "", baseURL, 0)
	resp, err := client.Complete(context.Background(), ChatRequest{System: "be terse", User: "spicy tofu"})
	require.NoError(t, err)

	assert.Equal(t, "Spicy Tofu Stir Fry", resp.Content)
	assert.Equal(t, "deepseek-reasoner", resp.Model)
	assert.Equal(t, Usage{PromptTokens: 42, CompletionTokens: 7, ReasoningTokens: 120}, resp.Usage)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "be terse", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
}

func TestOpenAIClientProviderErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusServiceUnavailable, `{"error": {"message": "overloaded", "type": "server_error"}}`},
		{"no choices", http.StatusOK, `{"id": "x", "object": "chat.completion", "model": "m", "choices": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			baseURL := newFakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			client := NewOpenAIClient("k", "m", "", baseURL, 0)

			_, err := client.Complete(context.Background(), ChatRequest{User: "hi"})
			require.Error(t, err)
			assert.Equal(t, apperrors.KindProvider, apperrors.KindOf(err))
		})
	}
}

func TestOpenAIClientEmbed(t *testing.T) {
	var got struct {
		Model      string   `json:"model"`
		Input      []string `json:"input"`
		Dimensions int      `json:"dimensions"`
	}
	baseURL := newFakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list",
			"model": "text-embedding-3-small",
			"data": [{"object": "embedding", "index": 0, "embedding": [0.5, -0.25, 1]}],
			"usage": {"prompt_tokens": 3, "total_tokens": 3}
		}`))
	})

	client := NewOpenAIClient("k", "", "text-embedding-3-small", baseURL, 768)
	vec, err := client.Embed(context.Background(), "spicy tofu")
	require.NoError(t, err)

	assert.Equal(t, []float32{0.5, -0.25, 1}, vec)
	assert.Equal(t, "text-embedding-3-small", got.Model)
	assert.Equal(t, []string{"spicy tofu"}, got.Input)
	assert.Equal(t, 768, got.Dimensions)
}

func TestFactoryRejectsUnknownProviders(t *testing.T) {
	_, err := NewChatModel(configLLM("carrier-pigeon"))
	assert.Error(t, err)

	chat, err := NewChatModel(configLLM("deepseek"))
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, chat)

	chat, err = NewChatModel(configLLM("anthropic"))
	require.NoError(t, err)
	assert.IsType(t, &ClaudeClient{}, chat)
}
