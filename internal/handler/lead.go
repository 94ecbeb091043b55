package handler

import (
	"errors"
	"net/http"
	"strconv"

	"shindi/internal/model"
	"shindi/internal/repository"
	"shindi/internal/service"

	"github.com/gin-gonic/gin"
)

// LeadHandler handles lead board HTTP requests
type LeadHandler struct {
	leadService  *service.LeadService
	defaultLimit int
	maxLimit     int
}

// NewLeadHandler creates a new lead handler
func NewLeadHandler(leadService *service.LeadService, defaultLimit, maxLimit int) *LeadHandler {
	return &LeadHandler{
		leadService:  leadService,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// List handles GET /api/v1/leads
func (h *LeadHandler) List(c *gin.Context) {
	limit := h.defaultLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}

	leads, err := h.leadService.List(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list leads"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"leads": leads, "total": len(leads)})
}

// Create handles POST /api/v1/leads (manual creation from the sales form)
func (h *LeadHandler) Create(c *gin.Context) {
	var req model.LeadCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	lead, err := h.leadService.CreateManual(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPhone):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid phone"})
		case errors.Is(err, repository.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		case errors.Is(err, repository.ErrLeadExists):
			c.JSON(http.StatusConflict, gin.H{"error": "Lead already exists for session"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create lead"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "lead": lead})
}

// UpdateStatus handles POST /api/v1/leads/:id/status
func (h *LeadHandler) UpdateStatus(c *gin.Context) {
	leadID := c.Param("id")

	var req model.LeadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	err := h.leadService.UpdateStatus(c.Request.Context(), leadID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		case errors.Is(err, repository.ErrLeadNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Lead not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "status": req.Status})
}

// Stats handles GET /api/v1/leads/stats
func (h *LeadHandler) Stats(c *gin.Context) {
	stats, err := h.leadService.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate leads"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
