// Package inmemory provides a map-backed task store used in tests and
// local runs without a database.
package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskmanager/internal/models"
	"taskmanager/internal/repository"
)

type TaskStorage struct {
	mtx     sync.RWMutex
	storage map[uuid.UUID]*models.Task
	ids     []uuid.UUID // insertion order, keeps listing stable
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[uuid.UUID]*models.Task),
		ids:     []uuid.UUID{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	return nil
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *models.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if taskToCreate.CreatedAt.IsZero() {
		taskToCreate.CreatedAt = time.Now()
	}
	taskToCreate.Version = 1

	stored := *taskToCreate
	s.storage[taskToCreate.ID] = &stored
	s.ids = append(s.ids, taskToCreate.ID)
	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	stored, ok := s.storage[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	t := *stored
	return &t, nil
}

func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *models.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored, ok := s.storage[taskToUpdate.ID]
	if !ok {
		return repository.ErrNotFound
	}

	if stored.Version != taskToUpdate.Version {
		return repository.ErrVersionConflict
	}

	now := time.Now()
	taskToUpdate.UpdatedAt = &now
	taskToUpdate.Version++

	updated := *taskToUpdate
	s.storage[taskToUpdate.ID] = &updated
	return nil
}

func (s *TaskStorage) Delete(ctx context.Context, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[id]; !ok {
		return repository.ErrNotFound
	}

	delete(s.storage, id)
	for ind, val := range s.ids {
		if val == id {
			s.ids = append(s.ids[:ind], s.ids[ind+1:]...)
			break
		}
	}
	return nil
}

func (s *TaskStorage) GetAll(ctx context.Context, offset, limit int) ([]*models.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.collect(offset, limit, func(*models.Task) bool { return true }), nil
}

func (s *TaskStorage) GetByStatus(ctx context.Context, status models.Status, offset, limit int) ([]*models.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.collect(offset, limit, func(t *models.Task) bool { return t.Status == status }), nil
}

func (s *TaskStorage) GetDueBefore(ctx context.Context, deadline time.Time, limit int) ([]*models.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.collect(0, limit, func(t *models.Task) bool {
		return t.Status == models.StatusPending &&
			t.DueDate != nil &&
			!t.DueDate.After(deadline)
	}), nil
}

// collect walks ids in insertion order, skipping offset matches and
// returning up to limit copies that pass the filter.
func (s *TaskStorage) collect(offset, limit int, match func(*models.Task) bool) []*models.Task {
	res := []*models.Task{}
	skipped := 0

	for _, id := range s.ids {
		if len(res) >= limit {
			break
		}

		stored := s.storage[id]
		if !match(stored) {
			continue
		}

		if skipped < offset {
			skipped++
			continue
		}

		t := *stored
		res = append(res, &t)
	}

	return res
}
