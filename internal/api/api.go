// Package api exposes similarity search and the enrichment/pricing admin
// operations over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/alchemorsel-search/internal/apperrors"
	"github.com/pageza/alchemorsel-search/internal/enrichment"
	"github.com/pageza/alchemorsel-search/internal/logging"
	"github.com/pageza/alchemorsel-search/internal/model"
	"github.com/pageza/alchemorsel-search/internal/search"
)

// Searcher runs similarity searches.
type Searcher interface {
	Search(ctx context.Context, q search.SimilarityQuery) ([]search.RankedCandidate, error)
}

// ItemProcessor enriches a single recipe.
type ItemProcessor interface {
	ProcessItem(ctx context.Context, id int64) enrichment.Outcome
}

// Pricer prices query logs.
type Pricer interface {
	CalculatePrice(ctx context.Context, id uuid.UUID) (*model.QueryLog, error)
	PriceUnpriced(ctx context.Context, limit int) (int, error)
}

// RunFailureLister lists the failures recorded by one enrichment run.
type RunFailureLister interface {
	ListByRun(ctx context.Context, runID string) ([]model.EnrichmentFailure, error)
}

// ReportLinker returns a download link for an archived run report.
type ReportLinker interface {
	Link(ctx context.Context, runID string, ttl time.Duration) (string, error)
}

// HealthFunc reports whether a dependency is reachable.
type HealthFunc func(ctx context.Context) error

// respondError maps err to a status and writes a JSON error body. Provider
// and internal error details are logged, not returned.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := http.StatusInternalServerError
	message := "internal server error"
	switch apperrors.KindOf(err) {
	case apperrors.KindInvalidArgument:
		status, message = http.StatusBadRequest, err.Error()
	case apperrors.KindNotFound:
		status, message = http.StatusNotFound, err.Error()
	case apperrors.KindProvider:
		status, message = http.StatusBadGateway, "upstream model provider failed"
	}
	if status >= http.StatusInternalServerError {
		logging.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": message})
}
