package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"task-archive-system.com/task-archive-system/internal/archive"
	apperrors "task-archive-system.com/task-archive-system/internal/errors"
	"task-archive-system.com/task-archive-system/internal/http/validators"
	"task-archive-system.com/task-archive-system/internal/services"
)

type Handler struct {
	taskService *services.TaskService
}

func NewHandler(taskService *services.TaskService) *Handler {
	return &Handler{
		taskService: taskService,
	}
}

func (h *Handler) CreateTask(c echo.Context) error {
	var req CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if err := validators.ValidateCreateTask(req.Title); err != nil {
		return err
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Project:     req.Project,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Reminder:    req.Reminder,
		Recurring:   req.Recurring,
		Tags:        req.Tags,
		Attachments: req.Attachments,
		Notes:       req.Notes,
		CreatedBy:   req.CreatedBy,
	})
	if err != nil {
		return echo.NewHTTPError(apperrors.StatusCode(err), err.Error())
	}

	return c.JSON(http.StatusCreated, task)
}

func (h *Handler) GetTask(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "task id is required")
	}

	task, err := h.taskService.GetTask(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperrors.StatusCode(err), err.Error())
	}

	return c.JSON(http.StatusOK, task)
}

func (h *Handler) ListTasks(c echo.Context) error {
	tasks, err := h.taskService.ListTasks(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list tasks")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"count": len(tasks),
		"tasks": tasks,
	})
}

// CompleteTask completes an active task and archives it in one call.
func (h *Handler) CompleteTask(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "task id is required")
	}

	var req CompleteTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	result, err := h.taskService.CompleteTask(c.Request().Context(), id, req.CompletedBy)
	if err != nil {
		return echo.NewHTTPError(apperrors.StatusCode(err), err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":        true,
		"task":           result.Task,
		"backup_written": result.BackupWritten,
	})
}

func (h *Handler) SearchArchived(c echo.Context) error {
	opts := archive.SearchOptions{
		Search:    c.QueryParam("search"),
		Project:   c.QueryParam("project"),
		Category:  c.QueryParam("category"),
		Priority:  c.QueryParam("priority"),
		StartDate: c.QueryParam("startDate"),
		EndDate:   c.QueryParam("endDate"),
		OrderBy:   c.QueryParam("orderBy"),
		Order:     c.QueryParam("order"),
	}

	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrInvalidLimit.Message)
		}
		opts.Limit = limit
	}
	if raw := c.QueryParam("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "offset must not be negative")
		}
		opts.Offset = offset
	}

	tasks, err := h.taskService.SearchArchived(c.Request().Context(), opts)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to search archived tasks")
	}
	if tasks == nil {
		tasks = []archive.ArchivedTask{}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"count": len(tasks),
		"tasks": tasks,
	})
}

func (h *Handler) ArchiveStatistics(c echo.Context) error {
	stats, err := h.taskService.ArchiveStatistics(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load archive statistics")
	}

	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) UnarchiveTask(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "task id is required")
	}

	task, err := h.taskService.UnarchiveTask(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperrors.StatusCode(err), err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"task":    task,
	})
}
