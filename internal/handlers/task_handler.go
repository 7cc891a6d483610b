package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"vtask/internal/models"
	"vtask/internal/services"
)

type TaskHandler struct {
	service services.TaskService
}

func NewTaskHandler(service services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// loadOwned fetches a task and hides other owners' tasks behind a 404.
func (h *TaskHandler) loadOwned(c *gin.Context) *models.Task {
	task, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		log.Printf("[task][load][err] id=%s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load task"})
		return nil
	}
	if task == nil || task.OwnerID != ownerID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return nil
	}
	return task
}

// POST /tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var req struct {
		Title    string          `json:"title" binding:"required"`
		Priority models.Priority `json:"priority"` // high|medium|low
		Note     string          `json:"note"`
		Status   models.Status   `json:"status"` // planned|today, default today
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.service.Create(c.Request.Context(), ownerID(c), services.CreateTaskInput{
		Title:    req.Title,
		Priority: req.Priority,
		Note:     req.Note,
		Status:   req.Status,
	})
	if err != nil {
		if isValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[task][create][err] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create task"})
		return
	}
	c.JSON(http.StatusCreated, task)
}

// GET /tasks/:id
func (h *TaskHandler) GetByID(c *gin.Context) {
	task := h.loadOwned(c)
	if task == nil {
		return
	}
	c.JSON(http.StatusOK, task)
}

// PUT /tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	task := h.loadOwned(c)
	if task == nil {
		return
	}

	var patch models.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.service.Update(c.Request.Context(), task.ID, patch)
	if err != nil {
		if isValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[task][update][err] id=%s: %v", task.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update task"})
		return
	}
	if updated == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// POST /tasks/:id/toggle
func (h *TaskHandler) ToggleDone(c *gin.Context) {
	task := h.loadOwned(c)
	if task == nil {
		return
	}
	if err := h.service.ToggleDone(c.Request.Context(), task); err != nil {
		log.Printf("[task][toggle][err] id=%s: %v", task.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to toggle task"})
		return
	}
	c.Status(http.StatusNoContent)
}

// DELETE /tasks/:id — soft delete into the trash
func (h *TaskHandler) SoftDelete(c *gin.Context) {
	task := h.loadOwned(c)
	if task == nil {
		return
	}
	if err := h.service.SoftDelete(c.Request.Context(), task); err != nil {
		log.Printf("[task][trash][err] id=%s: %v", task.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete task"})
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /tasks/:id/restore
func (h *TaskHandler) Restore(c *gin.Context) {
	task := h.loadOwned(c)
	if task == nil {
		return
	}
	if err := h.service.Restore(c.Request.Context(), task); err != nil {
		log.Printf("[task][restore][err] id=%s: %v", task.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to restore task"})
		return
	}
	c.Status(http.StatusNoContent)
}

// DELETE /tasks/:id/hard — permanent removal with subtask cascade
func (h *TaskHandler) HardDelete(c *gin.Context) {
	task := h.loadOwned(c)
	if task == nil {
		return
	}
	if err := h.service.HardDelete(c.Request.Context(), task.ID); err != nil {
		log.Printf("[task][hardDelete][err] id=%s: %v", task.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete task"})
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /tasks/done/trash — move the done column (or selected done tasks) to trash
func (h *TaskHandler) TrashDone(c *gin.Context) {
	var req struct {
		IDs []string `json:"ids"` // empty: all done tasks
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	var (
		count int
		err   error
	)
	if len(req.IDs) == 0 {
		count, err = h.service.TrashAllDone(c.Request.Context(), ownerID(c))
	} else {
		count, err = h.service.TrashDoneByIDs(c.Request.Context(), ownerID(c), req.IDs)
	}
	if err != nil {
		log.Printf("[task][trashDone][err] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to trash tasks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func isValidationError(err error) bool {
	return errors.Is(err, services.ErrEmptyTitle) ||
		errors.Is(err, services.ErrInvalidStatus) ||
		errors.Is(err, services.ErrInvalidPriority) ||
		errors.Is(err, services.ErrInvalidTransition)
}
