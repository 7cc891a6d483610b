package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"vtask/internal/services"
)

type UserHandler struct {
	users services.UserService
}

func NewUserHandler(users services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// GET /users/me
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), ownerID(c))
	if err != nil || user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// PUT /users/me/telegram — link the chat the daily digest goes to
func (h *UserHandler) LinkTelegram(c *gin.Context) {
	var req struct {
		ChatID int64 `json:"chat_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.users.LinkTelegram(c.Request.Context(), ownerID(c), req.ChatID); err != nil {
		log.Printf("[user][telegram][err] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to link telegram"})
		return
	}
	c.Status(http.StatusNoContent)
}
