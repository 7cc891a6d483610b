package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"vtask/internal/services"
)

type ContactHandler struct {
	email services.EmailService
}

func NewContactHandler(email services.EmailService) *ContactHandler {
	return &ContactHandler{email: email}
}

// POST /contact — public contact form, forwarded to the configured inbox
func (h *ContactHandler) Send(c *gin.Context) {
	var req struct {
		Name    string `json:"name" binding:"required"`
		Email   string `json:"email" binding:"required"`
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input"})
		return
	}
	if strings.TrimSpace(req.Name) == "" ||
		strings.TrimSpace(req.Email) == "" ||
		strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input"})
		return
	}

	if err := h.email.SendContactMessage(req.Name, req.Email, req.Message); err != nil {
		log.Printf("[contact][send][err] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
