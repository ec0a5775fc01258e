package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// UnarchiveTask reverses an archival: the relational row and its full-text
// shadow are deleted in one transaction and the reconstructed task is
// returned for the caller to reinsert into the active store. There is no
// soft delete; the archive copy is gone. A task archived as completed
// comes back pending with its completion timestamp cleared.
func (s *Store) UnarchiveTask(ctx context.Context, taskID string) (*ArchivedTask, error) {
	db, err := s.ensure()
	if err != nil {
		return nil, err
	}

	if taskID == "" {
		return nil, errors.New("task id is required")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin unarchive transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := "SELECT " + strings.Join(taskColumns, ", ") + " FROM archived_tasks WHERE id = ?"
	task, err := scanArchivedTask(tx.QueryRowContext(ctx, query, taskID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("unarchive task %s: %w", taskID, ErrNotFound)
		}
		return nil, fmt.Errorf("load archived task %s: %w", taskID, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM archived_tasks WHERE id = ?", taskID); err != nil {
		return nil, fmt.Errorf("delete archived task %s: %w", taskID, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM archived_tasks_fts WHERE id = ?", taskID); err != nil {
		return nil, fmt.Errorf("delete full-text row for task %s: %w", taskID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit unarchive of task %s: %w", taskID, err)
	}

	if task.Status == statusCompleted {
		task.Status = statusPending
		task.CompletedAt = nil
	}

	return &task, nil
}
