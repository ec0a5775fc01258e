package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

var taskColumns = []string{
	"id", "title", "description", "category", "project", "priority", "status",
	"due_date", "reminder", "recurring", "tags", "attachments", "notes",
	"created_at", "updated_at", "completed_at", "archived_at",
	"created_by", "completed_by", "search_text", "metadata",
}

// orderableColumns is the whitelist for SearchOptions.OrderBy. Anything
// else falls back to archived_at instead of being interpolated into SQL.
var orderableColumns = map[string]struct{}{
	"id": {}, "title": {}, "category": {}, "project": {}, "priority": {},
	"status": {}, "due_date": {}, "created_at": {}, "updated_at": {},
	"completed_at": {}, "archived_at": {}, "created_by": {}, "completed_by": {},
}

// SearchArchived serves filtered, sorted, paginated reads over the cold
// store. A free-text Search term routes through the full-text index; all
// other filters apply conjunctively on top.
func (s *Store) SearchArchived(ctx context.Context, opts SearchOptions) ([]ArchivedTask, error) {
	db, err := s.ensure()
	if err != nil {
		return nil, err
	}

	var (
		sb     strings.Builder
		params []any
		prefix string
	)

	if opts.Search != "" {
		prefix = "a."
		cols := make([]string, len(taskColumns))
		for i, c := range taskColumns {
			cols[i] = "a." + c
		}
		sb.WriteString("SELECT " + strings.Join(cols, ", ") + " FROM archived_tasks a")
		sb.WriteString(" JOIN archived_tasks_fts ON a.id = archived_tasks_fts.id")
		sb.WriteString(" WHERE archived_tasks_fts MATCH ?")
		params = append(params, opts.Search)
	} else {
		sb.WriteString("SELECT " + strings.Join(taskColumns, ", ") + " FROM archived_tasks WHERE 1=1")
	}

	if opts.Project != "" {
		sb.WriteString(" AND " + prefix + "project = ?")
		params = append(params, opts.Project)
	}
	if opts.Category != "" {
		sb.WriteString(" AND " + prefix + "category = ?")
		params = append(params, opts.Category)
	}
	if opts.Priority != "" {
		sb.WriteString(" AND " + prefix + "priority = ?")
		params = append(params, opts.Priority)
	}
	if opts.StartDate != "" {
		sb.WriteString(" AND " + prefix + "completed_at >= ?")
		params = append(params, opts.StartDate)
	}
	if opts.EndDate != "" {
		sb.WriteString(" AND " + prefix + "completed_at <= ?")
		params = append(params, opts.EndDate)
	}

	orderBy := opts.OrderBy
	if _, ok := orderableColumns[orderBy]; !ok {
		orderBy = "archived_at"
	}
	order := strings.ToUpper(opts.Order)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	sb.WriteString(" ORDER BY " + prefix + orderBy + " " + order)

	if opts.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		params = append(params, opts.Limit)
		if opts.Offset > 0 {
			sb.WriteString(" OFFSET ?")
			params = append(params, opts.Offset)
		}
	}

	rows, err := db.QueryContext(ctx, sb.String(), params...)
	if err != nil {
		return nil, fmt.Errorf("search archived tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []ArchivedTask
	for rows.Next() {
		task, err := scanArchivedTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archived tasks: %w", err)
	}
	return tasks, nil
}

// GetStatistics aggregates the full cold store. Read-only; no filtering
// options are consulted yet.
func (s *Store) GetStatistics(ctx context.Context) (*Statistics, error) {
	db, err := s.ensure()
	if err != nil {
		return nil, err
	}

	stats := &Statistics{
		ByCategory: []CategoryCount{},
		ByProject:  []ProjectCount{},
		ByPriority: []PriorityCount{},
		ByMonth:    []MonthCount{},
		ByUser:     []UserCount{},
	}

	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM archived_tasks").Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("count archived tasks: %w", err)
	}

	if err := groupCount(ctx, db,
		"SELECT category, COUNT(*) FROM archived_tasks GROUP BY category",
		func(key string, count int) {
			stats.ByCategory = append(stats.ByCategory, CategoryCount{Category: key, Count: count})
		},
	); err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}

	if err := groupCount(ctx, db,
		"SELECT project, COUNT(*) AS count FROM archived_tasks GROUP BY project ORDER BY count DESC",
		func(key string, count int) {
			stats.ByProject = append(stats.ByProject, ProjectCount{Project: key, Count: count})
		},
	); err != nil {
		return nil, fmt.Errorf("count by project: %w", err)
	}

	if err := groupCount(ctx, db,
		"SELECT priority, COUNT(*) FROM archived_tasks GROUP BY priority",
		func(key string, count int) {
			stats.ByPriority = append(stats.ByPriority, PriorityCount{Priority: key, Count: count})
		},
	); err != nil {
		return nil, fmt.Errorf("count by priority: %w", err)
	}

	if err := groupCount(ctx, db, `
		SELECT strftime('%Y-%m', completed_at) AS month, COUNT(*)
		FROM archived_tasks
		WHERE completed_at IS NOT NULL
		GROUP BY month
		ORDER BY month DESC
		LIMIT 12`,
		func(key string, count int) {
			stats.ByMonth = append(stats.ByMonth, MonthCount{Month: key, Count: count})
		},
	); err != nil {
		return nil, fmt.Errorf("count by month: %w", err)
	}

	if err := groupCount(ctx, db,
		"SELECT created_by, COUNT(*) AS count FROM archived_tasks GROUP BY created_by ORDER BY count DESC",
		func(key string, count int) {
			stats.ByUser = append(stats.ByUser, UserCount{CreatedBy: key, Count: count})
		},
	); err != nil {
		return nil, fmt.Errorf("count by user: %w", err)
	}

	return stats, nil
}

func groupCount(ctx context.Context, db *sql.DB, query string, emit func(key string, count int)) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var key sql.NullString
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		emit(key.String, count)
	}
	return rows.Err()
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanArchivedTask reads one row in taskColumns order and decodes the
// JSON-encoded columns, defaulting to empty containers when absent.
func scanArchivedTask(row rowScanner) (ArchivedTask, error) {
	var (
		task ArchivedTask

		description, category, project, priority, status sql.NullString
		dueDate, reminder, recurring                     sql.NullString
		tagsJSON, attachmentsJSON, notesJSON             sql.NullString
		createdAt, updatedAt, completedAt                sql.NullString
		archivedAt                                       string
		createdBy, completedBy                           sql.NullString
		searchTextCol, metadataJSON                      sql.NullString
	)

	err := row.Scan(
		&task.ID, &task.Title, &description, &category, &project, &priority, &status,
		&dueDate, &reminder, &recurring, &tagsJSON, &attachmentsJSON, &notesJSON,
		&createdAt, &updatedAt, &completedAt, &archivedAt,
		&createdBy, &completedBy, &searchTextCol, &metadataJSON,
	)
	if err != nil {
		return ArchivedTask{}, err
	}

	task.Description = description.String
	task.Category = category.String
	task.Project = project.String
	task.Priority = priority.String
	task.Status = status.String
	task.DueDate = dueDate.String
	task.Reminder = reminder.String
	task.Recurring = recurring.String
	task.CreatedBy = createdBy.String
	task.CompletedBy = completedBy.String
	task.SearchText = searchTextCol.String

	task.Tags = []string{}
	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &task.Tags); err != nil {
			return ArchivedTask{}, fmt.Errorf("decode tags for task %s: %w", task.ID, err)
		}
	}
	task.Attachments = []json.RawMessage{}
	if attachmentsJSON.Valid && attachmentsJSON.String != "" {
		if err := json.Unmarshal([]byte(attachmentsJSON.String), &task.Attachments); err != nil {
			return ArchivedTask{}, fmt.Errorf("decode attachments for task %s: %w", task.ID, err)
		}
	}
	task.Notes = []Note{}
	if notesJSON.Valid && notesJSON.String != "" {
		if err := json.Unmarshal([]byte(notesJSON.String), &task.Notes); err != nil {
			return ArchivedTask{}, fmt.Errorf("decode notes for task %s: %w", task.ID, err)
		}
	}
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &task.Metadata); err != nil {
			return ArchivedTask{}, fmt.Errorf("decode metadata for task %s: %w", task.ID, err)
		}
	}

	task.CreatedAt = parseTime(createdAt)
	task.UpdatedAt = parseTime(updatedAt)
	task.CompletedAt = parseTime(completedAt)
	if ts, err := time.Parse(time.RFC3339, archivedAt); err == nil {
		task.ArchivedAt = ts
	}

	return task, nil
}

func parseTime(v sql.NullString) *time.Time {
	if !v.Valid || v.String == "" {
		return nil
	}
	ts, err := time.Parse(time.RFC3339, v.String)
	if err != nil {
		return nil
	}
	return &ts
}
