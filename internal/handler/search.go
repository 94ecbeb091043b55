package handler

import (
	"net/http"

	"shindi/internal/model"
	"shindi/internal/repository"

	"github.com/gin-gonic/gin"
)

// SearchHandler handles preference-shaped catalog queries
type SearchHandler struct {
	store repository.Store
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(store repository.Store) *SearchHandler {
	return &SearchHandler{store: store}
}

// Search handles POST /api/v1/search. The full matching set is returned;
// pagination and ranking are the caller's concern.
func (h *SearchHandler) Search(c *gin.Context) {
	var req model.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	apartments, err := h.store.SearchApartments(c.Request.Context(), req.Preferences)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}

	c.JSON(http.StatusOK, model.SearchResponse{
		Apartments: apartments,
		Total:      len(apartments),
	})
}
