package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vtask/internal/models"
	"vtask/internal/pdf"
	"vtask/internal/services"
)

type ReportHandler struct {
	tasks services.TaskService
	users services.UserService
	gen   pdf.Generator
}

func NewReportHandler(tasks services.TaskService, users services.UserService, gen pdf.Generator) *ReportHandler {
	return &ReportHandler{tasks: tasks, users: users, gen: gen}
}

// GET /reports/board — PDF snapshot of the whole board
func (h *ReportHandler) BoardPDF(c *gin.Context) {
	owner := ownerID(c)

	columns := make(map[models.Status][]models.Task, len(models.VisibleStatuses))
	for _, status := range models.VisibleStatuses {
		tasks, err := h.tasks.ListColumn(c.Request.Context(), owner, status)
		if err != nil {
			log.Printf("[report][board][err] list %s: %v", status, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build report"})
			return
		}
		columns[status] = tasks
	}
	trash, err := h.tasks.ListColumn(c.Request.Context(), owner, models.StatusTrash)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build report"})
		return
	}

	email := owner
	if user, err := h.users.GetByID(c.Request.Context(), owner); err == nil && user != nil {
		email = user.Email
	}

	path, err := h.gen.GenerateBoardReport(pdf.BoardReportData{
		OwnerEmail: email,
		Columns:    columns,
		TrashCount: len(trash),
		CreatedAt:  time.Now(),
	})
	if err != nil {
		log.Printf("[report][board][err] generate: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build report"})
		return
	}
	c.FileAttachment(path, "board.pdf")
}
