package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"vtask/internal/models"
	"vtask/internal/services"
)

type SubtaskHandler struct {
	subtasks services.SubtaskService
	tasks    services.TaskService
}

func NewSubtaskHandler(subtasks services.SubtaskService, tasks services.TaskService) *SubtaskHandler {
	return &SubtaskHandler{subtasks: subtasks, tasks: tasks}
}

// parentOwned checks the parent task belongs to the caller.
func (h *SubtaskHandler) parentOwned(c *gin.Context, parentID string) bool {
	task, err := h.tasks.GetByID(c.Request.Context(), parentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load task"})
		return false
	}
	if task == nil || task.OwnerID != ownerID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return false
	}
	return true
}

// POST /tasks/:id/subtasks
func (h *SubtaskHandler) Create(c *gin.Context) {
	parentID := c.Param("id")
	if !h.parentOwned(c, parentID) {
		return
	}

	var req struct {
		Title string `json:"title" binding:"required"`
		Note  string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := h.subtasks.Create(c.Request.Context(), parentID, req.Title, req.Note)
	if err != nil {
		if isValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[subtask][create][err] parent=%s: %v", parentID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create subtask"})
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// GET /tasks/:id/subtasks
func (h *SubtaskHandler) ListByParent(c *gin.Context) {
	parentID := c.Param("id")
	if !h.parentOwned(c, parentID) {
		return
	}
	subs, err := h.subtasks.ListByParent(c.Request.Context(), parentID)
	if err != nil {
		log.Printf("[subtask][list][err] parent=%s: %v", parentID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list subtasks"})
		return
	}
	if subs == nil {
		subs = []models.Subtask{}
	}
	c.JSON(http.StatusOK, subs)
}

// owned loads a subtask on the direct /subtasks/:id routes and verifies its
// parent task belongs to the caller. A foreign subtask answers 404 exactly
// like a missing one, so ids cannot be probed across owners. The (nil, true)
// return means "gone, but that is the caller's answer to give".
func (h *SubtaskHandler) owned(c *gin.Context, id string) (*models.Subtask, bool) {
	sub, err := h.subtasks.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load subtask"})
		return nil, false
	}
	if sub == nil {
		return nil, true
	}
	task, err := h.tasks.GetByID(c.Request.Context(), sub.ParentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load task"})
		return nil, false
	}
	if task == nil || task.OwnerID != ownerID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "subtask not found"})
		return nil, false
	}
	return sub, true
}

// POST /subtasks/:id/toggle
func (h *SubtaskHandler) SetDone(c *gin.Context) {
	var req struct {
		Done bool `json:"done"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sub, ok := h.owned(c, c.Param("id"))
	if !ok {
		return
	}
	// Missing subtask is a silent no-op by design: a toggle racing a
	// hard-delete should not surface an error.
	if sub == nil {
		c.Status(http.StatusNoContent)
		return
	}
	if err := h.subtasks.SetDone(c.Request.Context(), sub.ID, req.Done); err != nil {
		log.Printf("[subtask][toggle][err] id=%s: %v", sub.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to toggle subtask"})
		return
	}
	c.Status(http.StatusNoContent)
}

// PUT /subtasks/:id
func (h *SubtaskHandler) Update(c *gin.Context) {
	var patch models.SubtaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, ok := h.owned(c, c.Param("id"))
	if !ok {
		return
	}
	if sub == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "subtask not found"})
		return
	}

	updated, err := h.subtasks.Update(c.Request.Context(), sub.ID, patch)
	if err != nil {
		if isValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[subtask][update][err] id=%s: %v", sub.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update subtask"})
		return
	}
	if updated == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "subtask not found"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DELETE /subtasks/:id — soft delete, terminal
func (h *SubtaskHandler) Delete(c *gin.Context) {
	sub, ok := h.owned(c, c.Param("id"))
	if !ok {
		return
	}
	if sub == nil {
		c.Status(http.StatusNoContent)
		return
	}
	if err := h.subtasks.Delete(c.Request.Context(), sub.ID); err != nil {
		log.Printf("[subtask][delete][err] id=%s: %v", sub.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete subtask"})
		return
	}
	c.Status(http.StatusNoContent)
}

// PUT /tasks/:id/subtasks/order
func (h *SubtaskHandler) Reorder(c *gin.Context) {
	parentID := c.Param("id")
	if !h.parentOwned(c, parentID) {
		return
	}

	var req struct {
		IDs []string `json:"ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.subtasks.Reorder(c.Request.Context(), parentID, req.IDs); err != nil {
		log.Printf("[subtask][reorder][err] parent=%s: %v", parentID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reorder subtasks"})
		return
	}
	c.Status(http.StatusNoContent)
}
