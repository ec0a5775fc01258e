package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "task-archive-system.com/task-archive-system/internal/errors"
	model "task-archive-system.com/task-archive-system/internal/models"
)

// TaskRepository persists active tasks. Completed tasks are removed here
// once the archive has accepted them.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) List(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).Order("created_at desc").Find(&tasks).Error
	return tasks, err
}

// Update writes all mutable fields guarded by the version column; a stale
// version fails with ErrOptimisticLock instead of overwriting newer state.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND version = ?", task.ID, task.Version).
		Updates(map[string]interface{}{
			"title":        task.Title,
			"description":  task.Description,
			"category":     task.Category,
			"project":      task.Project,
			"priority":     task.Priority,
			"status":       task.Status,
			"due_date":     task.DueDate,
			"reminder":     task.Reminder,
			"recurring":    task.Recurring,
			"completed_by": task.CompletedBy,
			"completed_at": task.CompletedAt,
			"version":      gorm.Expr("version + 1"),
		})

	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return apperrors.ErrOptimisticLock
	}

	task.Version++
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&model.Task{}, "id = ?", id).Error
}
