package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/alchemorsel-search/internal/apperrors"
	"github.com/pageza/alchemorsel-search/internal/search"
)

// SearchHandler serves similarity search.
type SearchHandler struct {
	searcher Searcher
}

func NewSearchHandler(searcher Searcher) *SearchHandler {
	return &SearchHandler{searcher: searcher}
}

func (h *SearchHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.POST("/similar", h.SearchJSON)
		recipes.GET("/similar", h.SearchQuery)
	}
}

// SearchJSON accepts a SimilarityQuery body.
func (h *SearchHandler) SearchJSON(c *gin.Context) {
	var q search.SimilarityQuery
	if err := c.ShouldBindJSON(&q); err != nil {
		respondError(c, apperrors.InvalidArgument("malformed query: %v", err))
		return
	}
	h.run(c, q)
}

// SearchQuery is the prompt-only form: ?q=...&limit=...&exclude=...&title_contains=...
func (h *SearchHandler) SearchQuery(c *gin.Context) {
	q := search.SimilarityQuery{
		Prompt:             c.Query("q"),
		ExcludeIngredients: c.Query("exclude"),
		TitleContains:      c.Query("title_contains"),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, apperrors.InvalidArgument("limit must be an integer"))
			return
		}
		q.Limit = limit
	}
	h.run(c, q)
}

func (h *SearchHandler) run(c *gin.Context, q search.SimilarityQuery) {
	results, err := h.searcher.Search(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	if results == nil {
		results = []search.RankedCandidate{}
	}
	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"count":   len(results),
	})
}
