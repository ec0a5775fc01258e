package http

import (
	"encoding/json"

	"task-archive-system.com/task-archive-system/internal/archive"
)

type CreateTaskRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Project     string            `json:"project"`
	Priority    string            `json:"priority"`
	DueDate     string            `json:"due_date"`
	Reminder    string            `json:"reminder"`
	Recurring   string            `json:"recurring"`
	Tags        []string          `json:"tags"`
	Attachments []json.RawMessage `json:"attachments"`
	Notes       []archive.Note    `json:"notes"`
	CreatedBy   string            `json:"created_by"`
}

type CompleteTaskRequest struct {
	CompletedBy string `json:"completed_by"`
}
