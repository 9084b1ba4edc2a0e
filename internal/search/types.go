// Package search implements similarity search over recipes: query
// embedding, candidate retrieval by vector distance and deterministic
// multi-signal re-ranking.
package search

import (
	"context"
	"strings"

	"github.com/pageza/alchemorsel-search/internal/apperrors"
)

// SimilarityCandidate is a retrieval hit ordered by descending similarity.
type SimilarityCandidate struct {
	ID             int64   `json:"id"`
	Title          string  `json:"title"`
	Summary        string  `json:"summary"`
	RawSimilarity  float64 `json:"raw_similarity"`
	CosineDistance float64 `json:"cosine_distance"`
}

// RankedCandidate is a candidate with its ranking signals attached.
// CuisineMatchRank is reserved and always zero.
type RankedCandidate struct {
	SimilarityCandidate
	PercentSimilarity        float64 `json:"percent_similarity"`
	TitleSimilarityRank      int     `json:"title_similarity_rank"`
	SimilarityRank           int     `json:"similarity_rank"`
	CuisineMatchRank         int     `json:"cuisine_match_rank"`
	IncludesIngredientsCount int     `json:"includes_ingredients_count"`
	ExactTitleMatch          bool    `json:"exact_title_match"`
	PrefixTitleMatch         bool    `json:"prefix_title_match"`
}

// RecipeDetail is the ingredient and cuisine detail fetched per candidate.
type RecipeDetail struct {
	ID          int64
	Cuisine     string
	Ingredients []string
}

// SimilarityQuery is either prompt-based (Prompt set) or structured.
type SimilarityQuery struct {
	Prompt             string `json:"prompt"`
	Title              string `json:"title"`
	Cuisine            string `json:"cuisine"`
	IncludeIngredients string `json:"include_ingredients"`
	ExcludeIngredients string `json:"exclude_ingredients"`
	MealType           string `json:"meal_type"`
	DetailLevel        string `json:"detail_level"`
	Limit              int    `json:"limit"`
	// TitleContains narrows retrieval to titles containing the substring.
	TitleContains string `json:"title_contains"`
}

// PromptBased reports whether the query carries free text.
func (q SimilarityQuery) PromptBased() bool {
	return strings.TrimSpace(q.Prompt) != ""
}

func (q SimilarityQuery) structuredFields() []string {
	return []string{q.Title, q.Cuisine, q.IncludeIngredients, q.MealType, q.DetailLevel}
}

// MaxLimit is the largest number of results a query may ask for.
const MaxLimit = 100

// Validate rejects empty queries, non-positive structured limits and limits
// above MaxLimit.
func (q SimilarityQuery) Validate() error {
	if q.Limit > MaxLimit {
		return apperrors.InvalidArgument("limit must be at most %d, got %d", MaxLimit, q.Limit)
	}
	if q.PromptBased() {
		if q.Limit < 0 {
			return apperrors.InvalidArgument("limit must be positive, got %d", q.Limit)
		}
		return nil
	}
	// An exclusion list alone gives nothing to embed.
	if q.SearchText() == "" {
		return apperrors.InvalidArgument("query is empty")
	}
	if q.Limit <= 0 {
		return apperrors.InvalidArgument("limit must be positive, got %d", q.Limit)
	}
	return nil
}

// SearchText is the text embedded and matched for word overlap: the prompt,
// or the non-empty structured fields joined by spaces.
func (q SimilarityQuery) SearchText() string {
	if q.PromptBased() {
		return strings.TrimSpace(q.Prompt)
	}
	parts := make([]string, 0, 5)
	for _, f := range q.structuredFields() {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " ")
}

// ExcludeSet returns the lower-cased, trimmed exclusion list.
func (q SimilarityQuery) ExcludeSet() map[string]struct{} {
	return parseList(q.ExcludeIngredients)
}

// IncludeSet returns the lower-cased, trimmed inclusion list. It is parsed
// for callers but is not a ranking signal.
func (q SimilarityQuery) IncludeSet() map[string]struct{} {
	return parseList(q.IncludeIngredients)
}

func parseList(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, item := range strings.Split(s, ",") {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			set[item] = struct{}{}
		}
	}
	return set
}

// QueryEmbedder turns query text into an embedding.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CandidateRetriever returns up to limit candidates ordered by descending
// similarity, optionally restricted to titles containing titleContains.
type CandidateRetriever interface {
	FindBySimilarity(ctx context.Context, embedding []float32, limit int, titleContains string) ([]SimilarityCandidate, error)
}

// DetailFetcher loads ingredient and cuisine detail for one recipe.
type DetailFetcher interface {
	FetchDetails(ctx context.Context, id int64) (*RecipeDetail, error)
}
