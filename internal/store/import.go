package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/pageza/alchemorsel-search/internal/cache"
	"github.com/pageza/alchemorsel-search/internal/model"
)

// ImportedIngredient is one ingredient line of an imported recipe.
type ImportedIngredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
}

// ImportedRecipe is the JSON shape accepted by the recipe importer.
type ImportedRecipe struct {
	Title        string               `json:"title"`
	Instructions string               `json:"instructions"`
	Cuisine      string               `json:"cuisine"`
	MealType     string               `json:"meal_type"`
	Ingredients  []ImportedIngredient `json:"ingredients"`
}

// Importer writes raw recipes, normalizing ingredient and unit names.
// Imported recipes are unenriched until the enrichment job commits them.
type Importer struct {
	db          *gorm.DB
	ingredients *cache.NameCache
	units       *cache.NameCache
}

func NewImporter(db *gorm.DB, ingredients, units *cache.NameCache) *Importer {
	return &Importer{db: db, ingredients: ingredients, units: units}
}

// Import stores one recipe and returns its id.
func (im *Importer) Import(ctx context.Context, r ImportedRecipe) (int64, error) {
	if strings.TrimSpace(r.Title) == "" || strings.TrimSpace(r.Instructions) == "" {
		return 0, fmt.Errorf("recipe needs a title and instructions")
	}

	// Resolve names before opening the transaction; the caches write
	// through their own connection.
	links := make([]model.RecipeIngredient, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		if cache.Normalize(ing.Name) == "" {
			continue
		}
		iid, err := im.ingredients.GetOrInsert(ctx, ing.Name)
		if err != nil {
			return 0, err
		}
		link := model.RecipeIngredient{IngredientID: iid, Quantity: strings.TrimSpace(ing.Quantity)}
		if cache.Normalize(ing.Unit) != "" {
			uid, err := im.units.GetOrInsert(ctx, ing.Unit)
			if err != nil {
				return 0, err
			}
			link.UnitID = &uid
		}
		links = append(links, link)
	}

	recipe := model.Recipe{
		Title:        strings.TrimSpace(r.Title),
		Instructions: strings.TrimSpace(r.Instructions),
		Cuisine:      strings.TrimSpace(r.Cuisine),
		MealType:     strings.TrimSpace(r.MealType),
	}
	err := im.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Ingredients").Create(&recipe).Error; err != nil {
			return err
		}
		for i := range links {
			links[i].RecipeID = recipe.ID
		}
		if len(links) > 0 {
			return tx.Create(&links).Error
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("import recipe %q: %w", r.Title, err)
	}
	return recipe.ID, nil
}
