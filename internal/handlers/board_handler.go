package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"

	"vtask/internal/models"
	"vtask/internal/realtime"
	"vtask/internal/services"
)

type BoardHandler struct {
	boards *services.BoardManager
	tasks  services.TaskService
	hub    *realtime.BoardHub
}

func NewBoardHandler(boards *services.BoardManager, tasks services.TaskService, hub *realtime.BoardHub) *BoardHandler {
	return &BoardHandler{boards: boards, tasks: tasks, hub: hub}
}

// GET /board — current three-column projection
func (h *BoardHandler) Snapshot(c *gin.Context) {
	board, err := h.boards.Board(c.Request.Context(), ownerID(c))
	if err != nil {
		log.Printf("[board][open][err] owner=%s: %v", ownerID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open board"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"columns": board.Snapshot(), "busy": board.Busy()})
}

// POST /board/drag — one finished drag-and-drop, within or across columns
func (h *BoardHandler) DragEnd(c *gin.Context) {
	var req struct {
		TaskID    string        `json:"task_id" binding:"required"`
		Src       models.Status `json:"src" binding:"required"`
		Dest      models.Status `json:"dest" binding:"required"`
		DestIndex int           `json:"dest_index"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	board, err := h.boards.Board(c.Request.Context(), ownerID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open board"})
		return
	}
	if err := board.DragEnd(c.Request.Context(), req.TaskID, req.Src, req.Dest, req.DestIndex); err != nil {
		if isValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[board][drag][err] task=%s %s->%s: %v", req.TaskID, req.Src, req.Dest, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to move task"})
		return
	}
	c.Status(http.StatusNoContent)
}

// PUT /board/columns/:status/order — persist one column's permutation
func (h *BoardHandler) ReorderColumn(c *gin.Context) {
	status := models.Status(c.Param("status"))
	if !status.Visible() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}
	var req struct {
		IDs []string `json:"ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.tasks.ReorderColumn(c.Request.Context(), ownerID(c), status, req.IDs); err != nil {
		log.Printf("[board][reorder][err] status=%s: %v", status, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reorder column"})
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /board/move — cross-column move with explicit orderings
func (h *BoardHandler) Move(c *gin.Context) {
	var req struct {
		TaskID  string        `json:"task_id" binding:"required"`
		Dest    models.Status `json:"dest" binding:"required"`
		DestIDs []string      `json:"dest_ids" binding:"required"`
		SrcIDs  []string      `json:"src_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.tasks.MoveAndReorder(c.Request.Context(), ownerID(c), req.TaskID, req.Dest, req.DestIDs, req.SrcIDs)
	if err != nil {
		if isValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[board][move][err] task=%s dest=%s: %v", req.TaskID, req.Dest, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to move task"})
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /board/done/trash — bulk move of the done column into the trash.
// Guarded: a second call while one runs is rejected, not queued.
func (h *BoardHandler) TrashAllDone(c *gin.Context) {
	board, err := h.boards.Board(c.Request.Context(), ownerID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open board"})
		return
	}
	count, err := board.TrashAllDone(c.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrBusy) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[board][trashDone][err] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to trash done tasks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// GET /board/stream?status=today — live snapshots of one partition.
// The subscription is released when the client goes away.
func (h *BoardHandler) Stream(c *gin.Context) {
	status := models.Status(c.Query("status"))
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("[board][stream][err] accept: %v", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	ctx := c.Request.Context()
	sub, err := h.hub.Subscribe(ctx, ownerID(c), status)
	if err != nil {
		log.Printf("[board][stream][err] subscribe owner=%s status=%s: %v", ownerID(c), status, err)
		return
	}
	defer sub.Close()

	type frame struct {
		Status models.Status `json:"status"`
		Tasks  []models.Task `json:"tasks"`
	}
	for {
		select {
		case snapshot := <-sub.C:
			if snapshot == nil {
				snapshot = []models.Task{}
			}
			if err := wsjson.Write(ctx, conn, frame{Status: status, Tasks: snapshot}); err != nil {
				return
			}
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		}
	}
}
