package handlers

import (
	"errors"
	"net/http"

	"guidesearch-backend/models"
	"guidesearch-backend/service"

	"github.com/gin-gonic/gin"
)

// SearchHandler handles HTTP requests for guideline search
type SearchHandler struct {
	searchService *service.SearchService
	history       *models.SearchHistory
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searchService *service.SearchService, history *models.SearchHistory) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
		history:       history,
	}
}

// SearchRequest represents the request body for a search
type SearchRequest struct {
	Query            string   `json:"query" binding:"required"`
	SummaryThreshold *float64 `json:"summary_threshold"`
	ChunkThreshold   *float64 `json:"chunk_threshold"`
}

// Search handles POST /api/search
func (h *SearchHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	opts := service.DefaultSearchOptions()
	if req.SummaryThreshold != nil {
		if *req.SummaryThreshold < 0 || *req.SummaryThreshold > 1 {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_THRESHOLD",
					"message": "summary_threshold must be between 0 and 1",
				},
			})
			return
		}
		opts.SummaryThreshold = *req.SummaryThreshold
	}
	if req.ChunkThreshold != nil {
		if *req.ChunkThreshold < 0 || *req.ChunkThreshold > 1 {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_THRESHOLD",
					"message": "chunk_threshold must be between 0 and 1",
				},
			})
			return
		}
		opts.ChunkThreshold = *req.ChunkThreshold
	}

	result, err := h.searchService.Search(c.Request.Context(), req.Query, opts)
	if err != nil {
		code := "SEARCH_FAILED"
		switch {
		case errors.Is(err, service.ErrSummarySearchFailed):
			code = "STORE_UNAVAILABLE"
		case errors.Is(err, service.ErrEmbeddingFailed):
			code = "EMBEDDING_FAILED"
		case errors.Is(err, service.ErrGenerationFailed):
			code = "GENERATION_FAILED"
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	h.history.Add(req.Query)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// History handles GET /api/search/history
func (h *SearchHandler) History(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"queries": h.history.Recent(),
		},
	})
}
