package main

import (
	"flag"

	"github.com/pageza/alchemorsel-search/config"
	"github.com/pageza/alchemorsel-search/internal/database"
	"github.com/pageza/alchemorsel-search/internal/logging"
)

func main() {
	seedPrices := flag.Bool("seed-prices", true, "insert default model prices that are not already present")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	db, err := database.Open(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := database.RunMigrations(db); err != nil {
		logging.Fatal().Err(err).Msg("failed to apply migrations")
	}
	logging.Info().Msg("all migrations applied successfully")

	if *seedPrices {
		if err := database.SeedPrices(db, database.DefaultPrices); err != nil {
			logging.Fatal().Err(err).Msg("failed to seed model prices")
		}
		logging.Info().Int("models", len(database.DefaultPrices)).Msg("model prices seeded")
	}
}
