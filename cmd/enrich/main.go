// Command enrich rewrites, titles, summarizes and embeds stored recipes.
//
//	enrich -partitions 0,1,2 -chunk 10 -max 500 -only-missing
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/pageza/alchemorsel-search/config"
	"github.com/pageza/alchemorsel-search/internal/app"
	"github.com/pageza/alchemorsel-search/internal/enrichment"
	"github.com/pageza/alchemorsel-search/internal/logging"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	partitionsFlag := flag.String("partitions", "", "comma-separated id%10 partitions to process (default: all)")
	chunk := flag.Int("chunk", cfg.Batch.ChunkSize, "ids fetched per chunk")
	maxItems := flag.Int("max", 0, "stop after this many enriched or failed items; partition skips are not counted (0: no limit)")
	after := flag.Int64("after", 0, "start after this recipe id")
	onlyMissing := flag.Bool("only-missing", cfg.Batch.OnlyMissing, "skip recipes that are already enriched")
	flag.Parse()

	partitions := cfg.Batch.Partitions
	if *partitionsFlag != "" {
		partitions, err = config.ParsePartitions(*partitionsFlag)
		if err != nil {
			logging.Fatal().Err(err).Msg("invalid -partitions")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, app.Options{WithoutRedis: true})
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize services")
	}
	defer a.Close()

	pipeline, err := a.NewPipeline(partitions)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create pipeline")
	}
	logging.Info().
		Str("run_id", pipeline.RunID()).
		Ints("partitions", partitions).
		Int("chunk", *chunk).
		Int("max", *maxItems).
		Int64("after", *after).
		Bool("only_missing", *onlyMissing).
		Msg("starting enrichment run")

	report, err := a.NewRunner(pipeline).Run(ctx, enrichment.RunOptions{
		ChunkSize:   *chunk,
		MaxItems:    *maxItems,
		AfterID:     *after,
		OnlyMissing: *onlyMissing,
	})
	if err != nil {
		logging.Error().Err(err).Int64("last_id", report.LastID).Msg("enrichment run stopped early; resume with -after")
		a.Close()
		os.Exit(1)
	}

	// Catch up logs whose inline pricing failed.
	if priced, err := a.Pricing.PriceUnpriced(ctx, 1000); err != nil {
		logging.Warn().Err(err).Msg("pricing catch-up failed")
	} else if priced > 0 {
		logging.Info().Int("priced", priced).Msg("priced outstanding query logs")
	}
}
