package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/alchemorsel-search/internal/apperrors"
	"github.com/pageza/alchemorsel-search/internal/enrichment"
	"github.com/pageza/alchemorsel-search/internal/model"
)

const (
	defaultRepriceBatch = 100
	reportLinkTTL       = 15 * time.Minute
)

// AdminHandler runs enrichment and pricing on demand and inspects past
// enrichment runs.
type AdminHandler struct {
	processor ItemProcessor
	pricer    Pricer
	failures  RunFailureLister
	reports   ReportLinker
}

func NewAdminHandler(processor ItemProcessor, pricer Pricer) *AdminHandler {
	return &AdminHandler{processor: processor, pricer: pricer}
}

// WithFailures enables the run failure listing.
func (h *AdminHandler) WithFailures(failures RunFailureLister) *AdminHandler {
	h.failures = failures
	return h
}

// WithReports enables run report links. Without it the report route
// answers 404.
func (h *AdminHandler) WithReports(reports ReportLinker) *AdminHandler {
	h.reports = reports
	return h
}

// RegisterRoutes mounts the admin routes on router. Callers attach auth.
func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/enrichment/:id", h.EnrichRecipe)
	router.POST("/query-logs/:id/price", h.PriceQueryLog)
	router.POST("/query-logs/reprice", h.PriceUnpriced)
	router.GET("/enrichment/runs/:id/failures", h.ListRunFailures)
	router.GET("/enrichment/runs/:id/report", h.RunReportLink)
}

// EnrichRecipe processes one recipe synchronously and reports its outcome.
func (h *AdminHandler) EnrichRecipe(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, apperrors.InvalidArgument("invalid recipe id %q", c.Param("id")))
		return
	}

	outcome := h.processor.ProcessItem(c.Request.Context(), id)
	body := gin.H{
		"recipe_id": outcome.RecipeID,
		"status":    outcome.Status,
	}
	if outcome.Status == enrichment.StatusFailed {
		body["stage"] = outcome.Stage
		body["kind"] = apperrors.KindOf(outcome.Err)
		if outcome.Err != nil {
			body["reason"] = outcome.Err.Error()
		}
		if apperrors.KindOf(outcome.Err) == apperrors.KindNotFound {
			c.JSON(http.StatusNotFound, body)
			return
		}
		c.JSON(http.StatusUnprocessableEntity, body)
		return
	}
	c.JSON(http.StatusOK, body)
}

// PriceQueryLog prices one query log.
func (h *AdminHandler) PriceQueryLog(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperrors.InvalidArgument("invalid query log id %q", c.Param("id")))
		return
	}
	log, err := h.pricer.CalculatePrice(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if log == nil {
		respondError(c, apperrors.NotFound("query log %s or its model price", id))
		return
	}
	c.JSON(http.StatusOK, log)
}

// PriceUnpriced prices a batch of unpriced logs. ?limit= bounds the batch.
func (h *AdminHandler) PriceUnpriced(c *gin.Context) {
	limit := defaultRepriceBatch
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(c, apperrors.InvalidArgument("limit must be a positive integer"))
			return
		}
		limit = n
	}
	priced, err := h.pricer.PriceUnpriced(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"priced": priced})
}

// ListRunFailures returns the failures recorded by one run.
func (h *AdminHandler) ListRunFailures(c *gin.Context) {
	runID := c.Param("id")
	if h.failures == nil {
		respondError(c, apperrors.NotFound("failures of run %s", runID))
		return
	}
	rows, err := h.failures.ListByRun(c.Request.Context(), runID)
	if err != nil {
		respondError(c, err)
		return
	}
	if rows == nil {
		rows = []model.EnrichmentFailure{}
	}
	c.JSON(http.StatusOK, gin.H{"run_id": runID, "failures": rows, "count": len(rows)})
}

// RunReportLink returns a short-lived download URL for an archived report.
func (h *AdminHandler) RunReportLink(c *gin.Context) {
	runID := c.Param("id")
	if h.reports == nil {
		respondError(c, apperrors.NotFound("run reports are not archived"))
		return
	}
	url, err := h.reports.Link(c.Request.Context(), runID, reportLinkTTL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"run_id":     runID,
		"url":        url,
		"expires_in": int(reportLinkTTL.Seconds()),
	})
}
