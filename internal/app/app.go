// Package app wires configuration into the services shared by the API
// server and the enrichment CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pageza/alchemorsel-search/config"
	"github.com/pageza/alchemorsel-search/internal/api"
	"github.com/pageza/alchemorsel-search/internal/cache"
	"github.com/pageza/alchemorsel-search/internal/database"
	"github.com/pageza/alchemorsel-search/internal/enrichment"
	"github.com/pageza/alchemorsel-search/internal/llm"
	"github.com/pageza/alchemorsel-search/internal/logging"
	"github.com/pageza/alchemorsel-search/internal/pricing"
	"github.com/pageza/alchemorsel-search/internal/report"
	"github.com/pageza/alchemorsel-search/internal/router"
	"github.com/pageza/alchemorsel-search/internal/search"
	"github.com/pageza/alchemorsel-search/internal/store"
)

// App holds the long-lived services.
type App struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client

	Ingredients *cache.NameCache
	Units       *cache.NameCache
	Recipes     *store.RecipeStore
	Failures    *store.FailureStore
	QueryLogs   *store.QueryLogStore
	Importer    *store.Importer

	Pricing *pricing.Calculator
	AI      *llm.RecipeClient
	Search  *search.Engine

	archiver *report.S3Archiver
	closers  []io.Closer
}

// Options select which external services Build connects to.
type Options struct {
	// WithoutLLM skips the chat and embedding providers, for tools that
	// only touch the database.
	WithoutLLM bool
	// WithoutRedis disables the query embedding cache.
	WithoutRedis bool
}

// Build connects to the database, redis and the model providers.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.MigrationsOn {
		if err := database.RunMigrations(db); err != nil {
			return nil, err
		}
	}

	a := &App{Config: cfg, DB: db}
	a.Ingredients = cache.NewNameCache("ingredient", store.IngredientNames(db))
	a.Units = cache.NewNameCache("unit", store.UnitNames(db))
	a.Recipes = store.NewRecipeStore(db, a.Ingredients)
	a.Failures = store.NewFailureStore(db)
	a.QueryLogs = store.NewQueryLogStore(db)
	a.Importer = store.NewImporter(db, a.Ingredients, a.Units)
	a.Pricing = pricing.NewCalculator(a.QueryLogs, store.NewPriceTable(db))

	if !opts.WithoutRedis {
		client, err := database.NewRedisClient(cfg)
		if err != nil {
			logging.Warn().Err(err).Msg("redis unavailable, query embeddings will not be cached")
		} else {
			a.Redis = client
			a.closers = append(a.closers, client)
		}
	}

	if cfg.ReportBucket != "" {
		s3cfg, err := config.NewS3Config(ctx, cfg.ReportBucket, cfg.AWSRegion)
		if err != nil {
			logging.Warn().Err(err).Msg("run reports will not be archived")
		} else {
			a.archiver = report.NewS3Archiver(s3cfg, report.DefaultPrefix)
		}
	}

	if opts.WithoutLLM {
		return a, nil
	}
	if err := a.buildAI(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) buildAI(ctx context.Context) error {
	cfg := a.Config
	prompts, err := config.LoadPrompts(cfg.PromptsFile)
	if err != nil {
		return err
	}

	chat, err := llm.NewChatModel(cfg.LLM)
	if err != nil {
		return err
	}
	embedder, err := llm.NewEmbedder(ctx, cfg.Embedding)
	if err != nil {
		return fmt.Errorf("create embedder: %w", err)
	}
	if c, ok := embedder.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	breakers := llm.BreakerSettings{ConsecutiveFailures: cfg.LLM.BreakerFailures}
	chatBreaker := breakers
	chatBreaker.Name = "llm-chat-" + cfg.LLM.Provider
	embedBreaker := breakers
	embedBreaker.Name = "llm-embed-" + cfg.Embedding.Provider

	recorded := llm.NewRecordingChat(llm.NewBreakerChat(chat, chatBreaker), a.QueryLogs, a.Pricing, cfg.LLM.ModelFamily)
	a.AI = llm.NewRecipeClient(recorded, llm.NewBreakerEmbedder(embedder, embedBreaker), prompts, llm.RecipeClientOptions{
		Timeout:     cfg.LLM.Timeout,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})

	var queryEmbedder search.QueryEmbedder = a.AI
	if a.Redis != nil {
		queryEmbedder = search.NewCachedEmbedder(a.AI, a.Redis, cfg.Search.EmbeddingCacheTTL)
	}
	a.Search = search.NewEngine(queryEmbedder, store.NewCandidateStore(a.DB), a.Recipes, search.Config{
		DefaultLimit:      cfg.Search.DefaultLimit,
		Overfetch:         cfg.Search.Overfetch,
		DetailConcurrency: cfg.Search.DetailConcurrency,
	})
	return nil
}

// NewPipeline creates an enrichment pipeline with a fresh run id.
func (a *App) NewPipeline(partitions []int) (*enrichment.Pipeline, error) {
	if a.AI == nil {
		return nil, errors.New("enrichment requires the model providers")
	}
	return enrichment.NewPipeline(a.AI, a.Recipes, a.Failures, enrichment.NewPartitionSet(partitions), uuid.NewString()), nil
}

// NewRunner creates a runner over all stored recipes, archiving its report
// when a bucket is configured.
func (a *App) NewRunner(pipeline *enrichment.Pipeline) *enrichment.Runner {
	if a.archiver == nil {
		return enrichment.NewRunner(pipeline, a.Recipes, nil)
	}
	return enrichment.NewRunner(pipeline, a.Recipes, a.archiver)
}

// Router builds the HTTP routes. Admin enrichment uses a pipeline whose run
// id is shared by every on-demand item.
func (a *App) Router() (*gin.Engine, error) {
	pipeline, err := a.NewPipeline(nil)
	if err != nil {
		return nil, err
	}
	checks := map[string]api.HealthFunc{
		"database": func(ctx context.Context) error { return database.HealthCheck(ctx, a.DB) },
	}
	if a.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return a.Redis.Ping(ctx).Err() }
	}
	admin := api.NewAdminHandler(pipeline, a.Pricing).WithFailures(a.Failures)
	if a.archiver != nil {
		admin.WithReports(a.archiver)
	}
	return router.SetupRouter(router.Handlers{
		Search: api.NewSearchHandler(a.Search),
		Admin:  admin,
		Health: api.NewHealthHandler(checks),
	}, router.Options{
		JWTSecret:   a.Config.JWTSecret,
		CORSOrigins: a.Config.CORSOrigins,
	}), nil
}

// Close releases connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
