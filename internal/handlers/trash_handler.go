package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"vtask/internal/models"
	"vtask/internal/services"
)

type TrashHandler struct {
	tasks     services.TaskService
	retention services.RetentionService
	boards    *services.BoardManager
}

func NewTrashHandler(tasks services.TaskService, retention services.RetentionService, boards *services.BoardManager) *TrashHandler {
	return &TrashHandler{tasks: tasks, retention: retention, boards: boards}
}

// GET /trash — list trashed tasks. Opening the trash view is one of the
// opportunistic moments the retention sweep runs.
func (h *TrashHandler) List(c *gin.Context) {
	owner := ownerID(c)
	if _, err := h.retention.PurgeOldIfAutoOn(c.Request.Context(), owner); err != nil {
		log.Printf("[trash][sweep][warn] owner=%s: %v", owner, err)
	}

	tasks, err := h.tasks.ListColumn(c.Request.Context(), owner, models.StatusTrash)
	if err != nil {
		log.Printf("[trash][list][err] owner=%s: %v", owner, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list trash"})
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	c.JSON(http.StatusOK, tasks)
}

// POST /trash/purge — permanently empty the trash (busy-guarded)
func (h *TrashHandler) PurgeAll(c *gin.Context) {
	board, err := h.boards.Board(c.Request.Context(), ownerID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open board"})
		return
	}
	count, err := board.PurgeAll(c.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrBusy) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[trash][purge][err] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to purge trash"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// GET /trash/auto-purge
func (h *TrashHandler) GetAutoPurge(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"enabled": h.retention.AutoPurgeEnabled(ownerID(c))})
}

// PUT /trash/auto-purge — toggling on runs the sweep immediately
func (h *TrashHandler) SetAutoPurge(c *gin.Context) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	purged, err := h.retention.SetAutoPurge(c.Request.Context(), ownerID(c), req.Enabled)
	if err != nil {
		log.Printf("[trash][flag][err] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update auto-purge flag"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": req.Enabled, "purged": purged})
}
