// Package repository defines the storage contract for tasks.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"taskmanager/internal/models"
)

type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	GetAll(ctx context.Context, offset, limit int) ([]*models.Task, error)
	GetByStatus(ctx context.Context, status models.Status, offset, limit int) ([]*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetDueBefore(ctx context.Context, deadline time.Time, limit int) ([]*models.Task, error)
	HealthCheck(ctx context.Context) error
}
