package enrichment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pageza/alchemorsel-search/internal/apperrors"
	"github.com/pageza/alchemorsel-search/internal/logging"
	"github.com/pageza/alchemorsel-search/internal/metrics"
	"github.com/pageza/alchemorsel-search/internal/validation"
)

// Pipeline enriches single recipes for one run.
type Pipeline struct {
	ai         RecipeAI
	store      RecipeStore
	failures   FailureStore
	partitions PartitionSet
	runID      string
	logger     zerolog.Logger
	now        func() time.Time
}

// NewPipeline creates a pipeline for one run.
func NewPipeline(ai RecipeAI, store RecipeStore, failures FailureStore, partitions PartitionSet, runID string) *Pipeline {
	return &Pipeline{
		ai:         ai,
		store:      store,
		failures:   failures,
		partitions: partitions,
		runID:      runID,
		logger:     logging.WithComponent("enrichment").With().Str("run_id", runID).Logger(),
		now:        time.Now,
	}
}

// RunID identifies the run in failure records.
func (p *Pipeline) RunID() string {
	return p.runID
}

// ProcessItem runs one recipe through fetch, rewrite, title, summary,
// embed and commit. Failures never escape: they are recorded and reported
// in the Outcome.
func (p *Pipeline) ProcessItem(ctx context.Context, id int64) Outcome {
	if !p.partitions.Allows(id) {
		metrics.EnrichmentItems.WithLabelValues(string(StatusSkipped), "").Inc()
		return Outcome{RecipeID: id, Status: StatusSkipped}
	}

	log := p.logger.With().Int64("recipe_id", id).Logger()
	err := p.enrich(ctx, id)
	if err == nil {
		metrics.EnrichmentItems.WithLabelValues(string(StatusCommitted), "").Inc()
		log.Info().Msg("recipe enriched")
		return Outcome{RecipeID: id, Status: StatusCommitted, Stage: StageCommit}
	}

	stage := StageFetch
	var se *StageError
	if errors.As(err, &se) {
		stage = se.Stage
	}

	kind := apperrors.KindOf(err)
	log.Warn().Err(err).Str("stage", string(stage)).Str("kind", string(kind)).Msg("recipe enrichment failed")
	metrics.EnrichmentItems.WithLabelValues(string(StatusFailed), string(stage)).Inc()

	rec := FailureRecord{
		RecipeID:  id,
		RunID:     p.runID,
		Stage:     stage,
		Kind:      kind,
		Reason:    err.Error(),
		CreatedAt: p.now().UTC(),
	}
	if rerr := p.failures.Record(ctx, rec); rerr != nil {
		log.Error().Err(rerr).Msg("failed to record enrichment failure")
	}
	return Outcome{RecipeID: id, Status: StatusFailed, Stage: stage, Err: err}
}

// enrich returns a *StageError on failure.
func (p *Pipeline) enrich(ctx context.Context, id int64) error {
	draft, err := p.store.LoadDraft(ctx, id)
	if err != nil {
		return &StageError{Stage: StageFetch, Err: err}
	}
	if draft == nil {
		return &StageError{Stage: StageFetch, Err: apperrors.NotFound("recipe %d", id)}
	}

	rewritten, err := p.ai.Rewrite(ctx, draft.Instructions)
	if err == nil {
		err = validation.RewrittenInstructions(rewritten)
	}
	if err != nil {
		return &StageError{Stage: StageRewrite, Err: err}
	}

	title, err := p.ai.FormatTitle(ctx, draft.Title)
	if err == nil {
		title = strings.TrimSpace(title)
		err = validation.Title(title)
	}
	if err != nil {
		return &StageError{Stage: StageTitle, Err: err}
	}

	summary, err := p.ai.Summarize(ctx, rewritten)
	if err == nil {
		summary = strings.TrimSpace(summary)
		err = validation.Summary(summary)
	}
	if err != nil {
		return &StageError{Stage: StageSummary, Err: err}
	}

	draft.Instructions = rewritten
	draft.Title = title
	draft.Summary = summary

	embedding, err := p.ai.Embed(ctx, EmbeddingText(draft))
	if err == nil {
		err = validation.Embedding(embedding)
	}
	if err != nil {
		return &StageError{Stage: StageEmbed, Err: err}
	}
	draft.Embedding = embedding

	if err := p.store.Commit(ctx, draft); err != nil {
		return &StageError{Stage: StageCommit, Err: fmt.Errorf("commit recipe %d: %w", id, err)}
	}
	return nil
}

// EmbeddingText is the document embedded for a recipe: its title,
// ingredient names and summary.
func EmbeddingText(d *RecipeDraft) string {
	ingredients := "No ingredients"
	if len(d.Ingredients) > 0 {
		ingredients = strings.Join(d.Ingredients, ", ")
	}
	return fmt.Sprintf("Title: %s\n Ingredients: %s\n Instructions: %s", d.Title, ingredients, d.Summary)
}
