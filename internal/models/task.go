package model

import (
	"encoding/json"
	"time"

	"task-archive-system.com/task-archive-system/internal/archive"
	"task-archive-system.com/task-archive-system/internal/constants"
)

// Task is an active (hot-store) task. Completed tasks leave this table and
// move into the archive.
type Task struct {
	ID          string               `gorm:"primaryKey;size:36" json:"id"`
	Title       string               `gorm:"not null" json:"title"`
	Description string               `json:"description,omitempty"`
	Category    string               `gorm:"index" json:"category,omitempty"`
	Project     string               `gorm:"index" json:"project,omitempty"`
	Priority    string               `json:"priority,omitempty"`
	Status      constants.TaskStatus `gorm:"type:varchar(20);not null" json:"status"`
	DueDate     string               `json:"due_date,omitempty"`
	Reminder    string               `json:"reminder,omitempty"`
	Recurring   string               `json:"recurring,omitempty"`
	Tags        []string             `gorm:"serializer:json" json:"tags"`
	Attachments []json.RawMessage    `gorm:"serializer:json" json:"attachments"`
	Notes       []archive.Note       `gorm:"serializer:json" json:"notes"`
	CreatedBy   string               `json:"created_by,omitempty"`
	CompletedBy string               `json:"completed_by,omitempty"`
	Version     uint                 `gorm:"not null;default:1" json:"version"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	CompletedAt *time.Time           `json:"completed_at,omitempty"`
}
