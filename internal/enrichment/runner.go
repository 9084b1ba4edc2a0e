package enrichment

import (
	"context"
	"fmt"
	"time"

	"github.com/pageza/alchemorsel-search/internal/apperrors"
	"github.com/pageza/alchemorsel-search/internal/logging"
)

// RunOptions bound a run. Zero values mean defaults: chunks of 10, no item
// cap, start from the first id.
type RunOptions struct {
	ChunkSize   int
	AfterID     int64
	OnlyMissing bool

	// MaxItems caps committed plus failed items. Ids skipped by the
	// partition filter are not counted.
	MaxItems int
}

// RunReport tallies a run.
type RunReport struct {
	RunID           string         `json:"run_id"`
	StartedAt       time.Time      `json:"started_at"`
	FinishedAt      time.Time      `json:"finished_at"`
	Processed       int            `json:"processed"`
	Committed       int            `json:"committed"`
	Skipped         int            `json:"skipped"`
	Failed          int            `json:"failed"`
	FailuresByStage map[Stage]int  `json:"failures_by_stage"`
	FailuresByKind  map[string]int `json:"failures_by_kind"`
	LastID          int64          `json:"last_id"`
	Interrupted     bool           `json:"interrupted"`
	ArchiveKey      string         `json:"archive_key,omitempty"`
}

// attempted counts items that reached the store, committed or not.
func (r *RunReport) attempted() int {
	return r.Committed + r.Failed
}

func (r *RunReport) add(o Outcome) {
	r.Processed++
	r.LastID = o.RecipeID
	switch o.Status {
	case StatusCommitted:
		r.Committed++
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
		r.FailuresByStage[o.Stage]++
		r.FailuresByKind[string(apperrors.KindOf(o.Err))]++
	}
}

// Runner drives a pipeline over recipe ids in ascending chunks, one item in
// flight at a time.
type Runner struct {
	pipeline *Pipeline
	ids      IDSource
	archiver ReportArchiver
}

// NewRunner creates a runner. archiver may be nil.
func NewRunner(pipeline *Pipeline, ids IDSource, archiver ReportArchiver) *Runner {
	return &Runner{pipeline: pipeline, ids: ids, archiver: archiver}
}

// Run processes ids until the source is exhausted, MaxItems is reached or
// ctx is cancelled. Cancellation is checked between items and returns the
// partial report with ctx.Err(). Only a failure to list ids aborts the run.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*RunReport, error) {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 10
	}
	log := logging.WithComponent("enrichment_runner").With().Str("run_id", r.pipeline.RunID()).Logger()

	report := &RunReport{
		RunID:           r.pipeline.RunID(),
		StartedAt:       time.Now().UTC(),
		FailuresByStage: make(map[Stage]int),
		FailuresByKind:  make(map[string]int),
		LastID:          opts.AfterID,
	}
	finish := func(err error) (*RunReport, error) {
		report.FinishedAt = time.Now().UTC()
		report.Interrupted = err != nil
		r.archive(ctx, report)
		log.Info().
			Int("processed", report.Processed).
			Int("committed", report.Committed).
			Int("skipped", report.Skipped).
			Int("failed", report.Failed).
			Int64("last_id", report.LastID).
			Msg("enrichment run finished")
		return report, err
	}

	capped := func() bool {
		return opts.MaxItems > 0 && report.attempted() >= opts.MaxItems
	}

	after := opts.AfterID
	for {
		if capped() {
			return finish(nil)
		}
		ids, err := r.ids.ListIDs(ctx, after, opts.ChunkSize, opts.OnlyMissing)
		if err != nil {
			return finish(fmt.Errorf("list recipe ids after %d: %w", after, err))
		}
		if len(ids) == 0 {
			return finish(nil)
		}
		log.Debug().Int("chunk", len(ids)).Int64("after", after).Msg("processing chunk")

		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return finish(err)
			}
			if capped() {
				return finish(nil)
			}
			report.add(r.pipeline.ProcessItem(ctx, id))
			after = id
		}
	}
}

func (r *Runner) archive(ctx context.Context, report *RunReport) {
	if r.archiver == nil {
		return
	}
	// The run context may already be cancelled; archive the partial report anyway.
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	key, err := r.archiver.Archive(actx, report)
	if err != nil {
		logging.Warn().Err(err).Str("run_id", report.RunID).Msg("failed to archive run report")
		return
	}
	report.ArchiveKey = key
}
