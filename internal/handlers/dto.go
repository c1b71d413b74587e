package handlers

import (
	"time"

	"github.com/google/uuid"

	"taskmanager/internal/models"
)

type CreateTaskRequest struct {
	Title       string         `json:"title" validate:"required,min=1,max=255"`
	Description string         `json:"description"`
	Text        string         `json:"text"`
	DueDate     *time.Time     `json:"due_date"`
	Status      *models.Status `json:"status" validate:"omitempty,oneof=pending done"`
}

// UpdateTaskRequest uses pointers so that an absent field can be told
// apart from an explicit zero value.
type UpdateTaskRequest struct {
	Title            *string        `json:"title" validate:"omitempty,min=1,max=255"`
	Description      *string        `json:"description"`
	Text             *string        `json:"text"`
	ShortDescription *string        `json:"short_description"`
	DueDate          *time.Time     `json:"due_date"`
	Status           *models.Status `json:"status" validate:"omitempty,oneof=pending done"`
}

type TaskResponse struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	ShortDescription string     `json:"short_description,omitempty"`
	Description      string     `json:"description,omitempty"`
	Text             string     `json:"text,omitempty"`
	DueDate          *time.Time `json:"due_date,omitempty"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
	IsOverdue        bool       `json:"is_overdue"`
}

func FromTask(t *models.Task) TaskResponse {
	return TaskResponse{
		ID:               t.ID,
		Title:            t.Title,
		ShortDescription: t.ShortDescription,
		Description:      t.Description,
		Text:             t.Text,
		DueDate:          t.DueDate,
		Status:           string(t.Status),
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
		IsOverdue:        t.Overdue(time.Now()),
	}
}

func FromTaskList(tasks []*models.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}
