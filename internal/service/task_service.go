// Package service enforces task business rules on top of the repository.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"taskmanager/internal/cache"
	"taskmanager/internal/logger"
	"taskmanager/internal/models"
	"taskmanager/internal/repository"
)

const (
	maxTitleLength = 255

	// The original short description for tasks created without text.
	shortDescriptionPlaceholder = "Lorem ipsum dolor sit amet"
	shortDescriptionLimit       = 100
)

type TaskService struct {
	repo  repository.TaskRepository
	cache *cache.Cache // optional, nil disables caching
	group singleflight.Group
}

// NewTaskService builds a service over repo. A nil cache is allowed and
// turns every read into a repository read.
func NewTaskService(repo repository.TaskRepository, c *cache.Cache) *TaskService {
	return &TaskService{
		repo:  repo,
		cache: c,
	}
}

type CreateTaskInput struct {
	Title       string
	Description string
	Text        string
	DueDate     *time.Time
	Status      models.Status
}

func (s *TaskService) CreateTask(ctx context.Context, in CreateTaskInput) (*models.Task, error) {
	if err := validateTitle(in.Title); err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = models.StatusPending
	}
	if !status.Valid() {
		return nil, NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}

	t := &models.Task{
		ID:               uuid.New(),
		Title:            in.Title,
		ShortDescription: shortDescription(in.Text),
		Description:      in.Description,
		Text:             in.Text,
		DueDate:          in.DueDate,
		Status:           status,
		CreatedAt:        time.Now(),
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	logger.Info("Service: task created", zap.String("task_id", t.ID.String()))
	return t, nil
}

func (s *TaskService) GetTask(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	key := id.String()

	if s.cache != nil {
		cached := &models.Task{}
		hit, err := s.cache.Get(ctx, key, cached)
		if err != nil {
			logger.Warn("Service: cache read failed", zap.Error(err))
		}
		if hit {
			return cached, nil
		}
	}

	// Coalesce concurrent misses for the same task into one store read.
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.repo.GetByID(ctx, id)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Info("Service: task not found", zap.String("task_id", key))
			return nil, NewNotFound(key)
		}
		return nil, fmt.Errorf("fetching task: %w", err)
	}

	t := v.(*models.Task)
	s.cacheSet(ctx, key, t)
	return t, nil
}

func (s *TaskService) ListTasks(ctx context.Context, skip, limit int) ([]*models.Task, error) {
	tasks, err := s.repo.GetAll(ctx, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) ListTasksByStatus(ctx context.Context, status models.Status, skip, limit int) ([]*models.Task, error) {
	if !status.Valid() {
		return nil, NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}

	tasks, err := s.repo.GetByStatus(ctx, status, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching tasks by status: %w", err)
	}
	return tasks, nil
}

// UpdateTask applies a partial update: only the supplied options
// overwrite existing values, everything else is retained.
func (s *TaskService) UpdateTask(ctx context.Context, id uuid.UUID, options ...TaskOption) (*models.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Info("Service: task not found", zap.String("task_id", id.String()))
			return nil, NewNotFound(id.String())
		}
		return nil, fmt.Errorf("fetching task: %w", err)
	}

	prevText := t.Text
	prevShort := t.ShortDescription

	for _, opt := range options {
		if opt != nil {
			opt(t)
		}
	}

	if err := validateTitle(t.Title); err != nil {
		return nil, err
	}
	if !t.Status.Valid() {
		return nil, NewValidationError("status", fmt.Sprintf("unknown status %q", t.Status))
	}

	// Changing the text regenerates the derived summary unless the
	// client supplied one explicitly.
	if t.Text != prevText && t.ShortDescription == prevShort {
		t.ShortDescription = shortDescription(t.Text)
	}

	if err := s.repo.Update(ctx, t); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, NewNotFound(id.String())
		case errors.Is(err, repository.ErrVersionConflict):
			logger.Warn("Service: concurrent task update", zap.String("task_id", id.String()))
			return nil, NewVersionConflict(id.String())
		}
		return nil, fmt.Errorf("updating task: %w", err)
	}

	s.cacheInvalidate(ctx, id.String())
	logger.Info("Service: task updated", zap.String("task_id", id.String()))
	return t, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Info("Service: task not found", zap.String("task_id", id.String()))
			return NewNotFound(id.String())
		}
		return fmt.Errorf("deleting task: %w", err)
	}

	s.cacheInvalidate(ctx, id.String())
	logger.Info("Service: task deleted", zap.String("task_id", id.String()))
	return nil
}

func (s *TaskService) cacheSet(ctx context.Context, key string, t *models.Task) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, t); err != nil {
		logger.Warn("Service: cache write failed", zap.Error(err))
	}
}

func (s *TaskService) cacheInvalidate(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		logger.Warn("Service: cache invalidation failed", zap.Error(err))
	}
}

func validateTitle(title string) error {
	runes := []rune(title)
	if len(runes) == 0 {
		return NewValidationError("title", "must not be empty")
	}
	if len(runes) > maxTitleLength {
		return NewValidationError("title", fmt.Sprintf("must be at most %d characters", maxTitleLength))
	}
	return nil
}

func shortDescription(text string) string {
	if text == "" {
		return shortDescriptionPlaceholder
	}

	runes := []rune(text)
	if len(runes) > shortDescriptionLimit {
		runes = runes[:shortDescriptionLimit]
	}
	return string(runes) + "..."
}
