package service

import (
	"time"

	"taskmanager/internal/models"
)

// TaskOption mutates a task during a partial update. Only options built
// from fields the client actually supplied are applied.
type TaskOption func(*models.Task)

func WithTitle(title string) TaskOption {
	return func(t *models.Task) {
		t.Title = title
	}
}

func WithDescription(description string) TaskOption {
	return func(t *models.Task) {
		t.Description = description
	}
}

func WithText(text string) TaskOption {
	return func(t *models.Task) {
		t.Text = text
	}
}

func WithShortDescription(shortDescription string) TaskOption {
	return func(t *models.Task) {
		t.ShortDescription = shortDescription
	}
}

func WithStatus(status models.Status) TaskOption {
	return func(t *models.Task) {
		t.Status = status
	}
}

func WithDueDate(dueDate *time.Time) TaskOption {
	return func(t *models.Task) {
		t.DueDate = dueDate
	}
}
