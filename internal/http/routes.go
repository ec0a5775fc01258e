package http

import (
	"github.com/labstack/echo/v4"
)

func Register(e *echo.Echo, h *Handler) {
	api := e.Group("/api")

	api.POST("/tasks", h.CreateTask)
	api.GET("/tasks", h.ListTasks)

	// Archived routes before /tasks/:id so "archived" never binds as an id.
	api.GET("/tasks/archived", h.SearchArchived)
	api.GET("/tasks/archived/stats", h.ArchiveStatistics)

	api.GET("/tasks/:id", h.GetTask)
	api.POST("/tasks/:id/complete", h.CompleteTask)
	api.POST("/tasks/:id/unarchive", h.UnarchiveTask)
}
