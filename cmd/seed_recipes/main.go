// Command seed_recipes imports raw recipes from a JSON array file. Imported
// recipes are left unenriched for the enrich command.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/pageza/alchemorsel-search/config"
	"github.com/pageza/alchemorsel-search/internal/app"
	"github.com/pageza/alchemorsel-search/internal/logging"
	"github.com/pageza/alchemorsel-search/internal/store"
)

func main() {
	file := flag.String("file", "recipes.json", "JSON array of recipes to import")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	data, err := os.ReadFile(*file)
	if err != nil {
		logging.Fatal().Err(err).Str("file", *file).Msg("failed to read recipes")
	}
	var recipes []store.ImportedRecipe
	if err := json.Unmarshal(data, &recipes); err != nil {
		logging.Fatal().Err(err).Str("file", *file).Msg("failed to parse recipes")
	}

	ctx := context.Background()
	a, err := app.Build(ctx, cfg, app.Options{WithoutLLM: true, WithoutRedis: true})
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize services")
	}
	defer a.Close()

	imported, failed := 0, 0
	for i, r := range recipes {
		id, err := a.Importer.Import(ctx, r)
		if err != nil {
			failed++
			logging.Warn().Err(err).Int("index", i).Str("title", r.Title).Msg("skipping recipe")
			continue
		}
		imported++
		logging.Debug().Int64("recipe_id", id).Str("title", r.Title).Msg("imported recipe")
	}
	logging.Info().
		Int("imported", imported).
		Int("failed", failed).
		Int("ingredients", a.Ingredients.Len()).
		Int("units", a.Units.Len()).
		Msg("seeding completed")
}
