package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"task-archive-system.com/task-archive-system/internal/archive"
	"task-archive-system.com/task-archive-system/internal/constants"
	apperrors "task-archive-system.com/task-archive-system/internal/errors"
	model "task-archive-system.com/task-archive-system/internal/models"
	repository "task-archive-system.com/task-archive-system/internal/repositories"
)

// TaskService owns the task lifecycle across both tiers: active tasks live
// in the hot store, completed tasks are handed to the archive, and
// unarchiving moves them back.
type TaskService struct {
	repo    *repository.TaskRepository
	archive *archive.Store
}

func NewTaskService(repo *repository.TaskRepository, archiveStore *archive.Store) *TaskService {
	return &TaskService{
		repo:    repo,
		archive: archiveStore,
	}
}

// CreateTaskInput carries the caller-supplied fields of a new task.
type CreateTaskInput struct {
	Title       string
	Description string
	Category    string
	Project     string
	Priority    string
	DueDate     string
	Reminder    string
	Recurring   string
	Tags        []string
	Attachments []json.RawMessage
	Notes       []archive.Note
	CreatedBy   string
}

func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*model.Task, error) {
	task := &model.Task{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Project:     input.Project,
		Priority:    input.Priority,
		Status:      constants.StatusPending,
		DueDate:     input.DueDate,
		Reminder:    input.Reminder,
		Recurring:   input.Recurring,
		Tags:        input.Tags,
		Attachments: input.Attachments,
		Notes:       input.Notes,
		CreatedBy:   input.CreatedBy,
		Version:     1,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

func (s *TaskService) GetTask(ctx context.Context, id string) (*model.Task, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *TaskService) ListTasks(ctx context.Context) ([]model.Task, error) {
	return s.repo.List(ctx)
}

// CompleteTask marks an active task completed, archives it into the cold
// store and removes it from the hot store. The archive insert is the point
// of no return: once it succeeds, the hot copy is deleted; if it fails, the
// task stays in the hot store.
func (s *TaskService) CompleteTask(ctx context.Context, id, completedBy string) (*archive.ArchiveResult, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.Status == constants.StatusCompleted {
		return nil, apperrors.ErrTaskAlreadyCompleted
	}

	completedAt := time.Now().UTC()
	task.Status = constants.StatusCompleted
	task.CompletedAt = &completedAt
	task.CompletedBy = completedBy

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}

	result, err := s.archive.ArchiveTask(ctx, toArchiveTask(task))
	if err != nil {
		if errors.Is(err, archive.ErrDuplicateID) {
			return nil, apperrors.ErrTaskAlreadyArchived
		}
		return nil, err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *TaskService) SearchArchived(ctx context.Context, opts archive.SearchOptions) ([]archive.ArchivedTask, error) {
	return s.archive.SearchArchived(ctx, opts)
}

func (s *TaskService) ArchiveStatistics(ctx context.Context) (*archive.Statistics, error) {
	return s.archive.GetStatistics(ctx)
}

// UnarchiveTask pulls a task out of the cold store and reinserts it into
// the hot store as an actionable task.
func (s *TaskService) UnarchiveTask(ctx context.Context, id string) (*model.Task, error) {
	restored, err := s.archive.UnarchiveTask(ctx, id)
	if err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			return nil, apperrors.ErrArchivedTaskNotFound
		}
		return nil, err
	}

	task := fromArchivedTask(restored)
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

func toArchiveTask(t *model.Task) archive.Task {
	createdAt := t.CreatedAt
	updatedAt := t.UpdatedAt
	return archive.Task{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Category:    t.Category,
		Project:     t.Project,
		Priority:    t.Priority,
		Status:      string(t.Status),
		DueDate:     t.DueDate,
		Reminder:    t.Reminder,
		Recurring:   t.Recurring,
		Tags:        t.Tags,
		Attachments: t.Attachments,
		Notes:       t.Notes,
		CreatedAt:   &createdAt,
		UpdatedAt:   &updatedAt,
		CompletedAt: t.CompletedAt,
		CreatedBy:   t.CreatedBy,
		CompletedBy: t.CompletedBy,
	}
}

func fromArchivedTask(a *archive.ArchivedTask) *model.Task {
	task := &model.Task{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Category:    a.Category,
		Project:     a.Project,
		Priority:    a.Priority,
		Status:      constants.TaskStatus(a.Status),
		DueDate:     a.DueDate,
		Reminder:    a.Reminder,
		Recurring:   a.Recurring,
		Tags:        a.Tags,
		Attachments: a.Attachments,
		Notes:       a.Notes,
		CreatedBy:   a.CreatedBy,
		CompletedBy: a.CompletedBy,
		Version:     1,
		CompletedAt: a.CompletedAt,
	}
	if a.CreatedAt != nil {
		task.CreatedAt = *a.CreatedAt
	}
	if a.UpdatedAt != nil {
		task.UpdatedAt = *a.UpdatedAt
	}
	return task
}
