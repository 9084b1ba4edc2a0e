package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/alchemorsel-search/internal/logging"
	"github.com/pageza/alchemorsel-search/internal/model"
)

// DefaultPrices seeds the price table. Prices are USD per million tokens.
var DefaultPrices = []model.ModelPrice{
	{ModelFamily: "deepseek-chat", InputPerMtokUSD: 0.27, OutputPerMtokUSD: 1.10},
	{ModelFamily: "deepseek-reasoner", InputPerMtokUSD: 0.55, OutputPerMtokUSD: 2.19},
	{ModelFamily: "gpt-4o-mini", InputPerMtokUSD: 0.15, OutputPerMtokUSD: 0.60},
	{ModelFamily: "gpt-4o", InputPerMtokUSD: 2.50, OutputPerMtokUSD: 10.00},
	{ModelFamily: "claude-3-5-haiku", InputPerMtokUSD: 0.80, OutputPerMtokUSD: 4.00},
	{ModelFamily: "llama-3.1-8b-instruct-turbo", InputPerMtokUSD: 0.18, OutputPerMtokUSD: 0.18},
}

// RunMigrations creates the schema. On postgres it enables pgvector and
// builds the cosine HNSW index used by similarity search.
func RunMigrations(db *gorm.DB) error {
	log := logging.WithComponent("migrate")
	postgres := db.Dialector.Name() == "postgres"

	if postgres {
		if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
			return fmt.Errorf("failed to enable pgvector: %w", err)
		}
	} else {
		log.Info().Str("dialect", db.Dialector.Name()).Msg("using GORM auto-migration without vector index")
	}

	if err := db.AutoMigrate(
		&model.Recipe{},
		&model.Ingredient{},
		&model.Unit{},
		&model.RecipeIngredient{},
		&model.EnrichmentFailure{},
		&model.QueryLog{},
		&model.ModelPrice{},
	); err != nil {
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}

	if postgres {
		if err := db.Exec(`CREATE INDEX IF NOT EXISTS recipes_embedding_hnsw_idx
			ON recipes USING hnsw (embedding vector_cosine_ops)`).Error; err != nil {
			return fmt.Errorf("failed to create embedding index: %w", err)
		}
	}

	log.Info().Msg("migrations applied")
	return nil
}

// SeedPrices inserts prices that are not present yet. Existing rows are left
// untouched so manual price edits survive re-runs.
func SeedPrices(db *gorm.DB, prices []model.ModelPrice) error {
	now := time.Now().UTC()
	rows := make([]model.ModelPrice, len(prices))
	for i, p := range prices {
		if p.EffectiveFrom.IsZero() {
			p.EffectiveFrom = now
		}
		rows[i] = p
	}
	if len(rows) == 0 {
		return nil
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to seed prices: %w", err)
	}
	return nil
}
