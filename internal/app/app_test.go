package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/alchemorsel-search/config"
	"github.com/pageza/alchemorsel-search/internal/database"
	"github.com/pageza/alchemorsel-search/internal/enrichment"
	"github.com/pageza/alchemorsel-search/internal/middleware"
	"github.com/pageza/alchemorsel-search/internal/model"
	"github.com/pageza/alchemorsel-search/internal/store"
)

const (
	fakeRewrite = "Press the tofu for ten minutes and cut it into cubes. Heat oil in a wok over high heat. Fry the tofu until golden. Add the chili paste and toss to coat."
	fakeTitle   = "Spicy Tofu Stir Fry"
	fakeSummary = "Crispy cubes of tofu are fried in a hot wok and tossed with chili paste for a quick, fiery weeknight dinner."
)

// fakeOpenAI answers chat completions by prompt stage and returns 768-dim
// embeddings.
func fakeOpenAI(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/chat/completions":
			var req struct {
				Messages []struct {
					Content string `json:"content"`
				} `json:"messages"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			user := req.Messages[len(req.Messages)-1].Content
			content := fakeSummary
			switch {
			case strings.HasPrefix(user, "Rewrite"):
				content = fakeRewrite
			case strings.HasPrefix(user, "Format"):
				content = fakeTitle
			}
			body, _ := json.Marshal(content)
			fmt.Fprintf(w, `{"id":"c","object":"chat.completion","model":"gpt-4o-mini",
				"choices":[{"index":0,"message":{"role":"assistant","content":%s},"finish_reason":"stop"}],
				"usage":{"prompt_tokens":1000,"completion_tokens":200,"total_tokens":1200}}`, body)
		case "/v1/embeddings":
			vec := make([]float32, 768)
			vec[0] = 1
			data, _ := json.Marshal(vec)
			fmt.Fprintf(w, `{"object":"list","model":"text-embedding-3-small",
				"data":[{"object":"embedding","index":0,"embedding":%s}],
				"usage":{"prompt_tokens":3,"total_tokens":3}}`, data)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/v1"
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	return &config.Config{
		Environment:  config.Test,
		DBDriver:     "sqlite",
		SQLitePath:   filepath.Join(t.TempDir(), "app.db") + "?_busy_timeout=5000",
		MigrationsOn: true,
		JWTSecret:    "test-secret",
		LLM: config.LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			ModelFamily: "gpt-4o-mini",
			BaseURL:     baseURL,
			Timeout:     5 * time.Second,
		},
		Embedding: config.EmbeddingConfig{
			Provider:   "openai",
			Model:      "text-embedding-3-small",
			BaseURL:    baseURL,
			Dimensions: 768,
		},
	}
}

func TestEnrichmentRunEndToEnd(t *testing.T) {
	ctx := context.Background()
	a, err := Build(ctx, testConfig(t, fakeOpenAI(t)), Options{WithoutRedis: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	require.NoError(t, database.SeedPrices(a.DB, database.DefaultPrices))

	id, err := a.Importer.Import(ctx, store.ImportedRecipe{
		Title:        "spicy tofu",
		Instructions: "press tofu. fry. add chili",
		Ingredients:  []store.ImportedIngredient{{Name: "tofu", Quantity: "400", Unit: "g"}},
	})
	require.NoError(t, err)

	pipeline, err := a.NewPipeline(nil)
	require.NoError(t, err)
	report, err := a.NewRunner(pipeline).Run(ctx, enrichment.RunOptions{OnlyMissing: true})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Committed)
	assert.Equal(t, 0, report.Failed)

	var recipe model.Recipe
	require.NoError(t, a.DB.First(&recipe, id).Error)
	assert.Equal(t, fakeTitle, recipe.Title)
	assert.Equal(t, fakeSummary, recipe.Summary)
	require.NotNil(t, recipe.EnrichedAt)

	var logs []model.QueryLog
	require.NoError(t, a.DB.Find(&logs).Error)
	require.Len(t, logs, 3)
	for _, l := range logs {
		assert.True(t, l.Priced)
		assert.Greater(t, l.TotalCost, 0.0)
	}

	again, err := a.NewRunner(pipeline).Run(ctx, enrichment.RunOptions{OnlyMissing: true})
	require.NoError(t, err)
	assert.Equal(t, 0, again.Processed)
}

func TestRouterAdminEnrichment(t *testing.T) {
	ctx := context.Background()
	a, err := Build(ctx, testConfig(t, fakeOpenAI(t)), Options{WithoutRedis: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	id, err := a.Importer.Import(ctx, store.ImportedRecipe{Title: "soup", Instructions: "boil. season. serve"})
	require.NoError(t, err)

	router, err := a.Router()
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		Role:             middleware.AdminRole,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/admin/enrichment/%d", id), nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"committed"`)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/enrichment/runs/unknown-run/failures", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"run_id":"unknown-run","failures":[],"count":0}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/enrichment/runs/unknown-run/report", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBuildWithoutLLM(t *testing.T) {
	a, err := Build(context.Background(), testConfig(t, ""), Options{WithoutLLM: true, WithoutRedis: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	_, err = a.NewPipeline(nil)
	assert.Error(t, err)
}
