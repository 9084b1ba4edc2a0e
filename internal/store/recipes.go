// Package store implements the persistence interfaces of search,
// enrichment and pricing on gorm.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/pageza/alchemorsel-search/internal/apperrors"
	"github.com/pageza/alchemorsel-search/internal/cache"
	"github.com/pageza/alchemorsel-search/internal/enrichment"
	"github.com/pageza/alchemorsel-search/internal/model"
	"github.com/pageza/alchemorsel-search/internal/search"
)

// RecipeStore reads and writes recipes. Ingredient names are resolved
// through the ingredient name cache.
type RecipeStore struct {
	db          *gorm.DB
	ingredients *cache.NameCache
}

func NewRecipeStore(db *gorm.DB, ingredients *cache.NameCache) *RecipeStore {
	return &RecipeStore{db: db, ingredients: ingredients}
}

// LoadDraft implements enrichment.RecipeStore.
func (s *RecipeStore) LoadDraft(ctx context.Context, id int64) (*enrichment.RecipeDraft, error) {
	var recipe model.Recipe
	err := s.db.WithContext(ctx).Select("id", "title", "instructions").First(&recipe, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("recipe %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load recipe %d: %w", id, err)
	}

	names, err := s.ingredientNames(ctx, id)
	if err != nil {
		return nil, err
	}
	return &enrichment.RecipeDraft{
		ID:           recipe.ID,
		Title:        recipe.Title,
		Instructions: recipe.Instructions,
		Ingredients:  names,
	}, nil
}

// Commit implements enrichment.RecipeStore. The four enriched fields and
// enriched_at are written in one UPDATE.
func (s *RecipeStore) Commit(ctx context.Context, draft *enrichment.RecipeDraft) error {
	vec := pgvector.NewVector(draft.Embedding)
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&model.Recipe{ID: draft.ID}).Updates(map[string]interface{}{
		"title":        draft.Title,
		"instructions": draft.Instructions,
		"summary":      draft.Summary,
		"embedding":    &vec,
		"enriched_at":  &now,
	})
	if res.Error != nil {
		return fmt.Errorf("update recipe %d: %w", draft.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("recipe %d", draft.ID)
	}
	return nil
}

// FetchDetails implements search.DetailFetcher.
func (s *RecipeStore) FetchDetails(ctx context.Context, id int64) (*search.RecipeDetail, error) {
	var recipe model.Recipe
	err := s.db.WithContext(ctx).Select("id", "cuisine").First(&recipe, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("recipe %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load recipe %d: %w", id, err)
	}
	names, err := s.ingredientNames(ctx, id)
	if err != nil {
		return nil, err
	}
	return &search.RecipeDetail{ID: id, Cuisine: recipe.Cuisine, Ingredients: names}, nil
}

// ListIDs implements enrichment.IDSource with keyset paging.
func (s *RecipeStore) ListIDs(ctx context.Context, afterID int64, limit int, onlyMissing bool) ([]int64, error) {
	q := s.db.WithContext(ctx).Model(&model.Recipe{}).Where("id > ?", afterID)
	if onlyMissing {
		q = q.Where("enriched_at IS NULL")
	}
	var ids []int64
	if err := q.Order("id").Limit(limit).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list recipe ids: %w", err)
	}
	return ids, nil
}

func (s *RecipeStore) ingredientNames(ctx context.Context, recipeID int64) ([]string, error) {
	var ingredientIDs []int64
	err := s.db.WithContext(ctx).Model(&model.RecipeIngredient{}).
		Where("recipe_id = ?", recipeID).
		Order("id").
		Pluck("ingredient_id", &ingredientIDs).Error
	if err != nil {
		return nil, fmt.Errorf("load ingredients of recipe %d: %w", recipeID, err)
	}

	names := make([]string, 0, len(ingredientIDs))
	for _, iid := range ingredientIDs {
		name, ok, err := s.ingredients.NameOf(ctx, iid)
		if err != nil {
			return nil, err
		}
		if ok {
			names = append(names, name)
		}
	}
	return names, nil
}
