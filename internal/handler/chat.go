package handler

import (
	"errors"
	"net/http"

	"shindi/internal/model"
	"shindi/internal/service"

	"github.com/gin-gonic/gin"
)

// ChatHandler handles conversation turn requests
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Chat handles POST /api/v1/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	resp, err := h.chatService.HandleTurn(c.Request.Context(), req.Message, req.SessionID)
	if err != nil {
		// The session was not modified; the caller may retry the same
		// message safely.
		if errors.Is(err, service.ErrUpstreamModel) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Assistant is temporarily unavailable, please retry"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Chat turn failed"})
		return
	}

	c.JSON(http.StatusOK, resp)
}
