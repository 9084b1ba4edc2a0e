package model

import "time"

// EnrichmentFailure records why a recipe could not be enriched during a run.
type EnrichmentFailure struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RecipeID  int64     `gorm:"not null;index" json:"recipe_id"`
	RunID     string    `gorm:"size:36;index" json:"run_id"`
	Stage     string    `gorm:"size:20;not null" json:"stage"`
	Kind      string    `gorm:"size:30;not null" json:"kind"`
	Reason    string    `gorm:"type:text;not null" json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

func (EnrichmentFailure) TableName() string {
	return "enrichment_failures"
}
