package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QueryLog is a write-once record of a single LLM completion. Token counts
// are stored on insert; the cost columns are filled by the pricing step,
// which also sets Priced.
type QueryLog struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	Model           string    `gorm:"size:100;not null" json:"model"`
	ModelFamily     string    `gorm:"size:100;not null;index" json:"model_family"`
	SystemPrompt    string    `gorm:"type:text" json:"system_prompt"`
	UserPrompt      string    `gorm:"type:text" json:"user_prompt"`
	Response        string    `gorm:"type:text" json:"response"`
	PromptTokens    int       `json:"prompt_tokens"`
	ResponseTokens  int       `json:"response_tokens"`
	ReasoningTokens int       `json:"reasoning_tokens"`
	InputCost       float64   `json:"input_cost"`
	OutputCost      float64   `json:"output_cost"`
	TotalCost       float64   `json:"total_cost"`
	Priced          bool      `gorm:"not null;default:false;index" json:"priced"`
}

func (QueryLog) TableName() string {
	return "query_logs"
}

// ModelPrice is the per-million-token price of a model family.
type ModelPrice struct {
	ModelFamily      string    `gorm:"size:100;primaryKey" json:"model_family"`
	InputPerMtokUSD  float64   `gorm:"not null" json:"input_per_mtok_usd"`
	OutputPerMtokUSD float64   `gorm:"not null" json:"output_per_mtok_usd"`
	EffectiveFrom    time.Time `json:"effective_from"`
}

func (ModelPrice) TableName() string {
	return "model_prices"
}

// BeforeCreate assigns an id to new logs.
func (q *QueryLog) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}
