package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/alchemorsel-search/internal/apperrors"
	"github.com/pageza/alchemorsel-search/internal/enrichment"
	"github.com/pageza/alchemorsel-search/internal/model"
)

// FailureStore persists enrichment failures.
type FailureStore struct {
	db *gorm.DB
}

func NewFailureStore(db *gorm.DB) *FailureStore {
	return &FailureStore{db: db}
}

// Record implements enrichment.FailureStore.
func (s *FailureStore) Record(ctx context.Context, rec enrichment.FailureRecord) error {
	row := model.EnrichmentFailure{
		RecipeID:  rec.RecipeID,
		RunID:     rec.RunID,
		Stage:     string(rec.Stage),
		Kind:      string(rec.Kind),
		Reason:    rec.Reason,
		CreatedAt: rec.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("record failure for recipe %d: %w", rec.RecipeID, err)
	}
	return nil
}

// ListByRun returns the failures of one run in insertion order.
func (s *FailureStore) ListByRun(ctx context.Context, runID string) ([]model.EnrichmentFailure, error) {
	var rows []model.EnrichmentFailure
	err := s.db.WithContext(ctx).Where("run_id = ?", runID).Order("id").Find(&rows).Error
	return rows, err
}

// QueryLogStore persists LLM query logs.
type QueryLogStore struct {
	db *gorm.DB
}

func NewQueryLogStore(db *gorm.DB) *QueryLogStore {
	return &QueryLogStore{db: db}
}

// Create implements llm.QueryLogWriter.
func (s *QueryLogStore) Create(ctx context.Context, log *model.QueryLog) error {
	if err := s.db.WithContext(ctx).Create(log).Error; err != nil {
		return fmt.Errorf("create query log: %w", err)
	}
	return nil
}

// Get implements pricing.QueryLogStore.
func (s *QueryLogStore) Get(ctx context.Context, id uuid.UUID) (*model.QueryLog, error) {
	var log model.QueryLog
	err := s.db.WithContext(ctx).First(&log, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("query log %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load query log %s: %w", id, err)
	}
	return &log, nil
}

// SavePricing writes only the cost columns; the rest of the log is
// write-once.
func (s *QueryLogStore) SavePricing(ctx context.Context, log *model.QueryLog) error {
	err := s.db.WithContext(ctx).Model(&model.QueryLog{}).Where("id = ?", log.ID).Updates(map[string]interface{}{
		"input_cost":  log.InputCost,
		"output_cost": log.OutputCost,
		"total_cost":  log.TotalCost,
		"priced":      log.Priced,
	}).Error
	if err != nil {
		return fmt.Errorf("save pricing for %s: %w", log.ID, err)
	}
	return nil
}

// ListUnpriced returns the oldest unpriced log ids whose model family has a
// price. Logs without a price are left out so they cannot fill every page.
func (s *QueryLogStore) ListUnpriced(ctx context.Context, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Model(&model.QueryLog{}).
		Joins("JOIN model_prices ON model_prices.model_family = query_logs.model_family").
		Where("query_logs.priced = ?", false).
		Order("query_logs.created_at, query_logs.id").
		Limit(limit).
		Pluck("query_logs.id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list unpriced query logs: %w", err)
	}
	return ids, nil
}

// PriceTable reads model prices.
type PriceTable struct {
	db *gorm.DB
}

func NewPriceTable(db *gorm.DB) *PriceTable {
	return &PriceTable{db: db}
}

// Lookup implements pricing.PriceTable.
func (p *PriceTable) Lookup(ctx context.Context, modelFamily string) (*model.ModelPrice, error) {
	var price model.ModelPrice
	err := p.db.WithContext(ctx).First(&price, "model_family = ?", modelFamily).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("price for %s", modelFamily)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup price for %s: %w", modelFamily, err)
	}
	return &price, nil
}
