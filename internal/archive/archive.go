package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const insertSQL = `
INSERT INTO archived_tasks (
	id, title, description, category, project, priority, status,
	due_date, reminder, recurring, tags, attachments, notes,
	created_at, updated_at, completed_at, archived_at,
	created_by, completed_by, search_text, metadata
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// ArchiveTask moves one completed task into the cold store. The relational
// insert (and, via trigger, the full-text shadow row) must succeed; the
// monthly JSON backup is mirrored best-effort afterwards and a failure
// there is logged and reported through BackupWritten only.
func (s *Store) ArchiveTask(ctx context.Context, task Task) (*ArchiveResult, error) {
	db, err := s.ensure()
	if err != nil {
		return nil, err
	}

	if task.ID == "" {
		return nil, errors.New("task id is required")
	}
	if task.Title == "" {
		return nil, errors.New("task title is required")
	}

	archived := ArchivedTask{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Category:    task.Category,
		Project:     task.Project,
		Priority:    task.Priority,
		Status:      task.Status,
		DueDate:     task.DueDate,
		Reminder:    task.Reminder,
		Recurring:   task.Recurring,
		Tags:        task.Tags,
		Attachments: task.Attachments,
		Notes:       task.Notes,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
		CompletedAt: task.CompletedAt,
		ArchivedAt:  time.Now().UTC(),
		CreatedBy:   task.CreatedBy,
		CompletedBy: task.CompletedBy,
		SearchText:  searchText(task),
		Metadata: Metadata{
			OriginalStatus: task.Status,
			ArchiveReason:  archiveReason,
			ArchiveVersion: archiveVersion,
		},
	}
	if archived.Tags == nil {
		archived.Tags = []string{}
	}
	if archived.Attachments == nil {
		archived.Attachments = []json.RawMessage{}
	}
	if archived.Notes == nil {
		archived.Notes = []Note{}
	}

	tagsJSON, err := json.Marshal(archived.Tags)
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}
	attachmentsJSON, err := json.Marshal(archived.Attachments)
	if err != nil {
		return nil, fmt.Errorf("marshal attachments: %w", err)
	}
	notesJSON, err := json.Marshal(archived.Notes)
	if err != nil {
		return nil, fmt.Errorf("marshal notes: %w", err)
	}
	metadataJSON, err := json.Marshal(archived.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = db.ExecContext(ctx, insertSQL,
		archived.ID,
		archived.Title,
		nullString(archived.Description),
		nullString(archived.Category),
		nullString(archived.Project),
		nullString(archived.Priority),
		nullString(archived.Status),
		nullString(archived.DueDate),
		nullString(archived.Reminder),
		nullString(archived.Recurring),
		string(tagsJSON),
		string(attachmentsJSON),
		string(notesJSON),
		nullTime(archived.CreatedAt),
		nullTime(archived.UpdatedAt),
		nullTime(archived.CompletedAt),
		archived.ArchivedAt.Format(time.RFC3339),
		nullString(archived.CreatedBy),
		nullString(archived.CompletedBy),
		archived.SearchText,
		string(metadataJSON),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("archive task %s: %w", task.ID, ErrDuplicateID)
		}
		return nil, fmt.Errorf("insert archived task %s: %w", task.ID, err)
	}

	backupWritten := true
	if err := s.writeMonthlyBackup(archived); err != nil {
		log.Printf("monthly backup for task %s failed: %v", archived.ID, err)
		backupWritten = false
	}

	return &ArchiveResult{Task: archived, BackupWritten: backupWritten}, nil
}

// writeMonthlyBackup appends the archived record to the backup file of the
// archival month (YYYY-MM.json). A missing or unparsable file starts a
// fresh array; an unparsable file therefore abandons the month's prior
// entries.
func (s *Store) writeMonthlyBackup(task ArchivedTask) error {
	name := task.ArchivedAt.Format("2006-01") + ".json"
	path := filepath.Join(s.backupDir, name)

	var entries []ArchivedTask
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &entries); err != nil {
			log.Printf("backup file %s is corrupt, starting over: %v", name, err)
			entries = nil
		}
	}

	entries = append(entries, task)
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal backup: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write backup %s: %w", name, err)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
