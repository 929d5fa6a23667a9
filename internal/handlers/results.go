package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kosarica/dialect-service/internal/database"
)

// ListResultsRequest represents query parameters for listing cached results
type ListResultsRequest struct {
	Limit  int `form:"limit" binding:"min=0,max=500"`
	Offset int `form:"offset" binding:"min=0"`
}

// ListResultsResponse represents the response for cached results
type ListResultsResponse struct {
	Results []database.SniffResult `json:"results"`
	Limit   int                    `json:"limit"`
	Offset  int                    `json:"offset"`
}

func requireStore(c *gin.Context) bool {
	if deps.Store == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "result cache not configured"})
		return false
	}
	return true
}

// ListResults returns cached sniff results, newest first
// GET /v1/results?limit=50&offset=0
func ListResults(c *gin.Context) {
	if !requireStore(c) {
		return
	}
	var req ListResultsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if req.Limit == 0 {
		req.Limit = 50
	}

	results, err := deps.Store.ListSniffResults(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, ListResultsResponse{Results: results, Limit: req.Limit, Offset: req.Offset})
}

// GetResult returns the cached result for a sample checksum
// GET /v1/results/:checksum
func GetResult(c *gin.Context) {
	if !requireStore(c) {
		return
	}
	result, err := deps.Store.GetSniffResult(c.Request.Context(), c.Param("checksum"))
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// DeleteResult evicts the cached result for a sample checksum
// DELETE /v1/results/:checksum
func DeleteResult(c *gin.Context) {
	if !requireStore(c) {
		return
	}
	if err := deps.Store.DeleteSniffResult(c.Request.Context(), c.Param("checksum")); err != nil {
		writeStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func writeStoreError(c *gin.Context, err error) {
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
}
