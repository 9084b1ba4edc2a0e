// Package enrichment rewrites, titles, summarizes and embeds stored recipes
// through an LLM, one recipe at a time. Each stage output passes a quality
// gate before the next stage runs; an item either commits all four fields
// or leaves exactly one failure record behind.
package enrichment

import (
	"context"
	"fmt"
	"time"

	"github.com/pageza/alchemorsel-search/internal/apperrors"
)

// Stage names a step of the per-item state machine.
type Stage string

const (
	StageFetch   Stage = "fetch"
	StageRewrite Stage = "rewrite"
	StageTitle   Stage = "title"
	StageSummary Stage = "summary"
	StageEmbed   Stage = "embed"
	StageCommit  Stage = "commit"
)

// Status is the terminal state of one processed item.
type Status string

const (
	StatusSkipped   Status = "skipped"
	StatusCommitted Status = "committed"
	StatusFailed    Status = "failed"
)

// RecipeDraft is the working copy of a recipe while it is being enriched.
type RecipeDraft struct {
	ID           int64
	Title        string
	Instructions string
	Ingredients  []string
	Summary      string
	Embedding    []float32
}

// FailureRecord explains why one item did not commit.
type FailureRecord struct {
	RecipeID  int64
	RunID     string
	Stage     Stage
	Kind      apperrors.Kind
	Reason    string
	CreatedAt time.Time
}

// Outcome is the result of ProcessItem. Err is set only for StatusFailed.
type Outcome struct {
	RecipeID int64
	Status   Status
	Stage    Stage
	Err      error
}

// StageError ties a failure to the stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// RecipeAI performs the LLM stages.
type RecipeAI interface {
	Rewrite(ctx context.Context, instructions string) (string, error)
	FormatTitle(ctx context.Context, title string) (string, error)
	Summarize(ctx context.Context, instructions string) (string, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}

// RecipeStore loads drafts and commits enriched recipes. LoadDraft returns
// an error wrapping apperrors.ErrNotFound for a missing recipe. Commit writes
// title, instructions, summary and embedding in one update.
type RecipeStore interface {
	LoadDraft(ctx context.Context, id int64) (*RecipeDraft, error)
	Commit(ctx context.Context, draft *RecipeDraft) error
}

// FailureStore persists failure records.
type FailureStore interface {
	Record(ctx context.Context, rec FailureRecord) error
}

// IDSource pages recipe ids in ascending order after afterID.
type IDSource interface {
	ListIDs(ctx context.Context, afterID int64, limit int, onlyMissing bool) ([]int64, error)
}

// ReportArchiver stores a finished run report and returns where it went.
type ReportArchiver interface {
	Archive(ctx context.Context, report *RunReport) (string, error)
}

// PartitionSet selects items by id mod 10. The zero value allows every id.
type PartitionSet struct {
	allowed [10]bool
	any     bool
}

// NewPartitionSet builds a set from digits 0-9. Out-of-range values are
// ignored; an empty list allows every id.
func NewPartitionSet(partitions []int) PartitionSet {
	var p PartitionSet
	for _, n := range partitions {
		if n >= 0 && n <= 9 {
			p.allowed[n] = true
			p.any = true
		}
	}
	return p
}

// Allows reports whether id falls in the set.
func (p PartitionSet) Allows(id int64) bool {
	if !p.any {
		return true
	}
	return p.allowed[((id%10)+10)%10]
}
