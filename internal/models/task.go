package models

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
)

// Valid reports whether s is one of the known task statuses.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusDone
}

type Task struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	Title            string     `json:"title" db:"title"`
	ShortDescription string     `json:"short_description,omitempty" db:"short_description"`
	Description      string     `json:"description,omitempty" db:"description"`
	Text             string     `json:"text,omitempty" db:"text"`
	DueDate          *time.Time `json:"due_date,omitempty" db:"due_date"`
	Status           Status     `json:"status" db:"status"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty" db:"updated_at"`
	Version          int        `json:"version" db:"version"`
}

// Overdue reports whether the task should be auto-completed at the given
// moment. Tasks without a due date are never overdue.
func (t *Task) Overdue(now time.Time) bool {
	return t.Status == StatusPending && t.DueDate != nil && !t.DueDate.After(now)
}
