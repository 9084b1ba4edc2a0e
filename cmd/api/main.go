package main

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/pageza/alchemorsel-search/config"
	"github.com/pageza/alchemorsel-search/internal/app"
	"github.com/pageza/alchemorsel-search/internal/logging"
	"github.com/pageza/alchemorsel-search/internal/server"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	a, err := app.Build(ctx, cfg, app.Options{})
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize services")
	}
	defer a.Close()

	router, err := a.Router()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to build routes")
	}

	// Create and start server
	srv := server.New(cfg, router)
	if err := srv.Start(ctx); err != nil {
		logging.Error().Err(err).Msg("server error")
		return
	}
	logging.Info().Msg("server stopped")
}
