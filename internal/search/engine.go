package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pageza/alchemorsel-search/internal/logging"
	"github.com/pageza/alchemorsel-search/internal/metrics"
)

// Config tunes retrieval and the detail fan-out.
type Config struct {
	// DefaultLimit applies to prompt-based queries without an explicit limit.
	DefaultLimit int
	// Overfetch is how many extra candidates are retrieved to survive
	// deduplication and exclusion.
	Overfetch int
	// DetailConcurrency bounds concurrent detail fetches per request.
	DetailConcurrency int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{DefaultLimit: 20, Overfetch: 30, DetailConcurrency: 8}
}

// Engine runs similarity searches. It keeps no per-request state and is
// safe for concurrent use when its collaborators are.
type Engine struct {
	embedder  QueryEmbedder
	retriever CandidateRetriever
	details   DetailFetcher
	cfg       Config
	logger    zerolog.Logger
}

// NewEngine creates a new Engine. Zero config values fall back to defaults.
func NewEngine(embedder QueryEmbedder, retriever CandidateRetriever, details DetailFetcher, cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = def.DefaultLimit
	}
	if cfg.Overfetch < 0 {
		cfg.Overfetch = def.Overfetch
	}
	if cfg.DetailConcurrency <= 0 {
		cfg.DetailConcurrency = def.DetailConcurrency
	}
	return &Engine{
		embedder:  embedder,
		retriever: retriever,
		details:   details,
		cfg:       cfg,
		logger:    logging.WithComponent("search"),
	}
}

// Search validates the query, retrieves candidates and ranks them. An empty
// result is not an error.
func (e *Engine) Search(ctx context.Context, q SimilarityQuery) ([]RankedCandidate, error) {
	if err := q.Validate(); err != nil {
		metrics.SearchRequests.WithLabelValues("invalid").Inc()
		return nil, err
	}
	start := time.Now()
	defer func() { metrics.SearchDuration.Observe(time.Since(start).Seconds()) }()

	limit := e.limitFor(q)
	vec, err := e.embedder.Embed(ctx, q.SearchText())
	if err != nil {
		metrics.SearchRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("embed query: %w", err)
	}
	candidates, err := e.retriever.FindBySimilarity(ctx, vec, limit+e.cfg.Overfetch, q.TitleContains)
	if err != nil {
		metrics.SearchRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("retrieve candidates: %w", err)
	}

	ranked := e.Rank(ctx, q, candidates, limit)
	if len(ranked) == 0 {
		metrics.SearchRequests.WithLabelValues("empty").Inc()
	} else {
		metrics.SearchRequests.WithLabelValues("ok").Inc()
	}
	logging.Ctx(ctx).Debug().
		Int("candidates", len(candidates)).
		Int("ranked", len(ranked)).
		Bool("prompt_based", q.PromptBased()).
		Msg("similarity search complete")
	return ranked, nil
}

func (e *Engine) limitFor(q SimilarityQuery) int {
	if q.PromptBased() && q.Limit <= 0 {
		return e.cfg.DefaultLimit
	}
	return q.Limit
}

// Rank converts, deduplicates, enriches, filters, scores, sorts and
// truncates retrieved candidates, in that order.
func (e *Engine) Rank(ctx context.Context, q SimilarityQuery, candidates []SimilarityCandidate, limit int) []RankedCandidate {
	ranked := dedupeByTitle(toRanked(candidates))
	details := e.fetchDetails(ctx, ranked)

	excluded := q.ExcludeSet()
	queryWords := words(strings.TrimSpace(q.Title + " " + q.SearchText()))
	queryTitle := strings.ToLower(strings.TrimSpace(q.Title))

	filtered := make([]RankedCandidate, 0, len(ranked))
	for _, c := range ranked {
		detail, ok := details[c.ID]
		if !ok {
			continue
		}
		if len(excluded) > 0 && intersects(detail.Ingredients, excluded) {
			continue
		}
		title := strings.ToLower(strings.TrimSpace(c.Title))
		c.TitleSimilarityRank = titleScore(c.Title, q.Title)
		c.SimilarityRank = wordScore(queryWords, words(c.Title+" "+c.Summary))
		c.IncludesIngredientsCount = len(detail.Ingredients)
		c.ExactTitleMatch = queryTitle != "" && title == queryTitle
		c.PrefixTitleMatch = queryTitle != "" && strings.HasPrefix(title, queryTitle)
		filtered = append(filtered, c)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		a, b := filtered[i], filtered[j]
		if a.TitleSimilarityRank != b.TitleSimilarityRank {
			return a.TitleSimilarityRank > b.TitleSimilarityRank
		}
		if a.SimilarityRank != b.SimilarityRank {
			return a.SimilarityRank > b.SimilarityRank
		}
		return a.IncludesIngredientsCount > b.IncludesIngredientsCount
	})

	if limit >= 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered
}

func toRanked(candidates []SimilarityCandidate) []RankedCandidate {
	out := make([]RankedCandidate, len(candidates))
	for i, c := range candidates {
		out[i] = RankedCandidate{
			SimilarityCandidate: c,
			PercentSimilarity:   PercentSimilarity(c.RawSimilarity),
		}
	}
	return out
}

// dedupeByTitle keeps the first occurrence of each case-insensitive title.
func dedupeByTitle(candidates []RankedCandidate) []RankedCandidate {
	seen := make(map[string]struct{}, len(candidates))
	out := candidates[:0]
	for _, c := range candidates {
		key := strings.ToLower(strings.TrimSpace(c.Title))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

// fetchDetails loads detail for every candidate concurrently. Failed or
// absent lookups are logged and left out of the returned map.
func (e *Engine) fetchDetails(ctx context.Context, candidates []RankedCandidate) map[int64]*RecipeDetail {
	results := make([]*RecipeDetail, len(candidates))

	var g errgroup.Group
	g.SetLimit(e.cfg.DetailConcurrency)
	for i, c := range candidates {
		g.Go(func() error {
			detail, err := e.details.FetchDetails(ctx, c.ID)
			if err != nil {
				metrics.DetailFetchFailures.Inc()
				e.logger.Warn().Err(err).Int64("recipe_id", c.ID).Msg("detail fetch failed, dropping candidate")
				return nil
			}
			results[i] = detail
			return nil
		})
	}
	_ = g.Wait()

	joined := make(map[int64]*RecipeDetail, len(candidates))
	for i, d := range results {
		if d != nil {
			joined[candidates[i].ID] = d
		}
	}
	return joined
}
