package archive

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	statusCompleted = "completed"
	statusPending   = "pending"

	archiveReason  = "completed"
	archiveVersion = "1.0"
)

// Note is a single task note. Callers historically sent notes either as a
// bare string or as an object with a "content" field; both shapes decode
// into the same type here so the rest of the package never re-checks.
type Note struct {
	Content string `json:"content"`
}

func (n *Note) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		n.Content = s
		return nil
	}
	var obj struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	n.Content = obj.Content
	return nil
}

// Task is the input to ArchiveTask: a completed task as handed over by the
// active store. Only ID and Title are required.
type Task struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Category    string            `json:"category,omitempty"`
	Project     string            `json:"project,omitempty"`
	Priority    string            `json:"priority,omitempty"`
	Status      string            `json:"status,omitempty"`
	DueDate     string            `json:"due_date,omitempty"`
	Reminder    string            `json:"reminder,omitempty"`
	Recurring   string            `json:"recurring,omitempty"`
	Tags        []string          `json:"tags"`
	Attachments []json.RawMessage `json:"attachments"`
	Notes       []Note            `json:"notes"`
	CreatedAt   *time.Time        `json:"created_at,omitempty"`
	UpdatedAt   *time.Time        `json:"updated_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	CreatedBy   string            `json:"created_by,omitempty"`
	CompletedBy string            `json:"completed_by,omitempty"`
}

// Metadata records the provenance of an archived row.
type Metadata struct {
	OriginalStatus string `json:"original_status"`
	ArchiveReason  string `json:"archive_reason"`
	ArchiveVersion string `json:"archive_version"`
}

// ArchivedTask is the row as persisted in the cold store, including the
// fields derived at archival time.
type ArchivedTask struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Category    string            `json:"category,omitempty"`
	Project     string            `json:"project,omitempty"`
	Priority    string            `json:"priority,omitempty"`
	Status      string            `json:"status,omitempty"`
	DueDate     string            `json:"due_date,omitempty"`
	Reminder    string            `json:"reminder,omitempty"`
	Recurring   string            `json:"recurring,omitempty"`
	Tags        []string          `json:"tags"`
	Attachments []json.RawMessage `json:"attachments"`
	Notes       []Note            `json:"notes"`
	CreatedAt   *time.Time        `json:"created_at,omitempty"`
	UpdatedAt   *time.Time        `json:"updated_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	ArchivedAt  time.Time         `json:"archived_at"`
	CreatedBy   string            `json:"created_by,omitempty"`
	CompletedBy string            `json:"completed_by,omitempty"`
	SearchText  string            `json:"search_text,omitempty"`
	Metadata    Metadata          `json:"metadata"`
}

// ArchiveResult is returned by ArchiveTask. The relational insert is the
// required phase; the monthly backup mirror is best-effort and its outcome
// is reported separately instead of failing the operation.
type ArchiveResult struct {
	Task          ArchivedTask `json:"task"`
	BackupWritten bool         `json:"backup_written"`
}

// SearchOptions filters, sorts and paginates reads over the cold store.
// All filters compose with logical AND. When Search is set the query joins
// through the full-text index instead of scanning the table.
type SearchOptions struct {
	Search    string
	Project   string
	Category  string
	Priority  string
	StartDate string
	EndDate   string
	OrderBy   string
	Order     string
	Limit     int
	Offset    int
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type ProjectCount struct {
	Project string `json:"project"`
	Count   int    `json:"count"`
}

type PriorityCount struct {
	Priority string `json:"priority"`
	Count    int    `json:"count"`
}

type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

type UserCount struct {
	CreatedBy string `json:"created_by"`
	Count     int    `json:"count"`
}

// Statistics aggregates the full cold store.
type Statistics struct {
	Total      int             `json:"total"`
	ByCategory []CategoryCount `json:"byCategory"`
	ByProject  []ProjectCount  `json:"byProject"`
	ByPriority []PriorityCount `json:"byPriority"`
	ByMonth    []MonthCount    `json:"byMonth"`
	ByUser     []UserCount     `json:"byUser"`
}

// searchText builds the lower-cased projection the full-text index matches
// against: title, description, category, project, priority, tags and the
// content of each note, skipping empty entries.
func searchText(t Task) string {
	parts := make([]string, 0, 6+len(t.Tags)+len(t.Notes))
	for _, p := range []string{t.Title, t.Description, t.Category, t.Project, t.Priority} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	for _, tag := range t.Tags {
		if tag != "" {
			parts = append(parts, tag)
		}
	}
	for _, note := range t.Notes {
		if note.Content != "" {
			parts = append(parts, note.Content)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}
