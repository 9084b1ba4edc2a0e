package model

import (
	"time"

	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// Recipe is a stored recipe. Summary, Embedding and EnrichedAt are filled in
// by the enrichment job in a single update.
type Recipe struct {
	ID           int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	DeletedAt    gorm.DeletedAt   `gorm:"index" json:"-"`
	Title        string           `gorm:"size:255;not null;index" json:"title"`
	Instructions string           `gorm:"type:text;not null" json:"instructions"`
	Summary      string           `gorm:"type:text" json:"summary"`
	Cuisine      string           `gorm:"size:50" json:"cuisine"`
	MealType     string           `gorm:"size:50" json:"meal_type"`
	Embedding    *pgvector.Vector `gorm:"type:vector(768)" json:"-"`
	EnrichedAt   *time.Time       `json:"enriched_at,omitempty"`

	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID" json:"ingredients,omitempty"`
}

// Ingredient is a normalized ingredient name.
type Ingredient struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"size:100;not null;uniqueIndex" json:"name"`
}

// Unit is a normalized measurement unit.
type Unit struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"size:50;not null;uniqueIndex" json:"name"`
}

// RecipeIngredient links a recipe to an ingredient with an optional quantity and unit.
type RecipeIngredient struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	RecipeID     int64  `gorm:"not null;index" json:"recipe_id"`
	IngredientID int64  `gorm:"not null;index" json:"ingredient_id"`
	UnitID       *int64 `json:"unit_id,omitempty"`
	Quantity     string `gorm:"size:50" json:"quantity"`
}

func (RecipeIngredient) TableName() string {
	return "recipe_ingredients"
}
