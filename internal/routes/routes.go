package routes

import (
	"github.com/gin-gonic/gin"

	"vtask/internal/handlers"
	"vtask/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	taskHandler *handlers.TaskHandler,
	subtaskHandler *handlers.SubtaskHandler,
	boardHandler *handlers.BoardHandler,
	trashHandler *handlers.TrashHandler,
	contactHandler *handlers.ContactHandler,
	reportHandler *handlers.ReportHandler, // nil when no files root is configured
) *gin.Engine {

	// ---- public
	r.POST("/login", authHandler.Login)
	r.POST("/refresh", authHandler.RefreshToken)
	r.POST("/register", authHandler.Register)
	r.POST("/contact", contactHandler.Send)

	// ---- protected
	r.Use(middleware.AuthMiddleware())

	users := r.Group("/users")
	{
		users.GET("/me", userHandler.Me)
		users.PUT("/me/telegram", userHandler.LinkTelegram)
	}

	tasks := r.Group("/tasks")
	{
		tasks.POST("/", taskHandler.Create)
		tasks.POST("/done/trash", taskHandler.TrashDone)
		tasks.GET("/:id", taskHandler.GetByID)
		tasks.PUT("/:id", taskHandler.Update)
		tasks.POST("/:id/toggle", taskHandler.ToggleDone)
		tasks.DELETE("/:id", taskHandler.SoftDelete)
		tasks.POST("/:id/restore", taskHandler.Restore)
		tasks.DELETE("/:id/hard", taskHandler.HardDelete)

		tasks.POST("/:id/subtasks", subtaskHandler.Create)
		tasks.GET("/:id/subtasks", subtaskHandler.ListByParent)
		tasks.PUT("/:id/subtasks/order", subtaskHandler.Reorder)
	}

	subtasks := r.Group("/subtasks")
	{
		subtasks.PUT("/:id", subtaskHandler.Update)
		subtasks.POST("/:id/toggle", subtaskHandler.SetDone)
		subtasks.DELETE("/:id", subtaskHandler.Delete)
	}

	board := r.Group("/board")
	{
		board.GET("", boardHandler.Snapshot)
		board.GET("/stream", boardHandler.Stream)
		board.POST("/drag", boardHandler.DragEnd)
		board.POST("/move", boardHandler.Move)
		board.PUT("/columns/:status/order", boardHandler.ReorderColumn)
		board.POST("/done/trash", boardHandler.TrashAllDone)
	}

	trash := r.Group("/trash")
	{
		trash.GET("", trashHandler.List)
		trash.POST("/purge", trashHandler.PurgeAll)
		trash.GET("/auto-purge", trashHandler.GetAutoPurge)
		trash.PUT("/auto-purge", trashHandler.SetAutoPurge)
	}

	if reportHandler != nil {
		r.GET("/reports/board", reportHandler.BoardPDF)
	}

	return r
}
