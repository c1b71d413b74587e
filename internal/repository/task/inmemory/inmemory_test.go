package inmemory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmanager/internal/models"
	"taskmanager/internal/repository"
	"taskmanager/internal/repository/task/inmemory"
)

func newTask(title string, status models.Status, due *time.Time) *models.Task {
	return &models.Task{
		ID:      uuid.New(),
		Title:   title,
		Status:  status,
		DueDate: due,
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func TestTaskStorage_New(t *testing.T) {
	storage := inmemory.NewTaskStorage()
	assert.NotNil(t, storage)
	assert.NoError(t, storage.HealthCheck(context.Background()))
}

func TestTaskStorage_Create(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	taskToCreate := newTask("Test Task", models.StatusPending, timePtr(time.Now().Add(24*time.Hour)))
	taskToCreate.Description = "Test Description"

	err := storage.Create(ctx, taskToCreate)
	require.NoError(t, err)

	assert.False(t, taskToCreate.CreatedAt.IsZero())
	assert.Equal(t, 1, taskToCreate.Version)

	retrieved, err := storage.GetByID(ctx, taskToCreate.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Task", retrieved.Title)
	assert.Equal(t, "Test Description", retrieved.Description)
}

func TestTaskStorage_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	_, err := storage.GetByID(ctx, uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTaskStorage_Update(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	taskToCreate := newTask("Original Title", models.StatusPending, nil)
	require.NoError(t, storage.Create(ctx, taskToCreate))

	fetched, err := storage.GetByID(ctx, taskToCreate.ID)
	require.NoError(t, err)

	fetched.Title = "Updated Title"
	fetched.Status = models.StatusDone
	require.NoError(t, storage.Update(ctx, fetched))

	retrieved, err := storage.GetByID(ctx, taskToCreate.ID)
	require.NoError(t, err)
	assert.Equal(t, "Updated Title", retrieved.Title)
	assert.Equal(t, models.StatusDone, retrieved.Status)
	assert.NotNil(t, retrieved.UpdatedAt)
	assert.Equal(t, 2, retrieved.Version)
}

func TestTaskStorage_Update_NotFound(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	err := storage.Update(ctx, newTask("Ghost", models.StatusPending, nil))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTaskStorage_Update_VersionConflict(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	taskToCreate := newTask("Test Task", models.StatusPending, nil)
	require.NoError(t, storage.Create(ctx, taskToCreate))

	first, err := storage.GetByID(ctx, taskToCreate.ID)
	require.NoError(t, err)
	second, err := storage.GetByID(ctx, taskToCreate.ID)
	require.NoError(t, err)

	first.Title = "Updated by first"
	require.NoError(t, storage.Update(ctx, first))

	second.Title = "Updated by second"
	err = storage.Update(ctx, second)
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrVersionConflict)
}

func TestTaskStorage_Delete(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	taskToCreate := newTask("Task to delete", models.StatusPending, nil)
	require.NoError(t, storage.Create(ctx, taskToCreate))

	require.NoError(t, storage.Delete(ctx, taskToCreate.ID))

	_, err := storage.GetByID(ctx, taskToCreate.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// Deleting again reports not found.
	assert.ErrorIs(t, storage.Delete(ctx, taskToCreate.ID), repository.ErrNotFound)
}

func TestTaskStorage_GetAll_InsertionOrderAndPagination(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	for i := 1; i <= 5; i++ {
		require.NoError(t, storage.Create(ctx, newTask(fmt.Sprintf("Task %d", i), models.StatusPending, nil)))
	}

	all, err := storage.GetAll(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i, got := range all {
		assert.Equal(t, fmt.Sprintf("Task %d", i+1), got.Title)
	}

	page, err := storage.GetAll(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "Task 1", page[0].Title)

	page, err = storage.GetAll(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "Task 3", page[0].Title)

	page, err = storage.GetAll(ctx, 4, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Task 5", page[0].Title)

	empty, err := storage.GetAll(ctx, 100, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)

	empty, err = storage.GetAll(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestTaskStorage_GetByStatus(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	require.NoError(t, storage.Create(ctx, newTask("Pending 1", models.StatusPending, nil)))
	require.NoError(t, storage.Create(ctx, newTask("Done 1", models.StatusDone, nil)))
	require.NoError(t, storage.Create(ctx, newTask("Pending 2", models.StatusPending, nil)))

	pending, err := storage.GetByStatus(ctx, models.StatusPending, 0, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "Pending 1", pending[0].Title)
	assert.Equal(t, "Pending 2", pending[1].Title)

	done, err := storage.GetByStatus(ctx, models.StatusDone, 0, 10)
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, "Done 1", done[0].Title)
}

func TestTaskStorage_GetDueBefore(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	now := time.Now()

	overdue := newTask("Overdue Task", models.StatusPending, timePtr(now.Add(-24*time.Hour)))
	require.NoError(t, storage.Create(ctx, overdue))

	future := newTask("Future Task", models.StatusPending, timePtr(now.Add(24*time.Hour)))
	require.NoError(t, storage.Create(ctx, future))

	doneOverdue := newTask("Done Task", models.StatusDone, timePtr(now.Add(-48*time.Hour)))
	require.NoError(t, storage.Create(ctx, doneOverdue))

	noDue := newTask("No Due Date", models.StatusPending, nil)
	require.NoError(t, storage.Create(ctx, noDue))

	due, err := storage.GetDueBefore(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "Overdue Task", due[0].Title)
}

func TestTaskStorage_GetDueBefore_Inclusive(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	deadline := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)

	exact := newTask("Due exactly at deadline", models.StatusPending, timePtr(deadline))
	require.NoError(t, storage.Create(ctx, exact))

	due, err := storage.GetDueBefore(ctx, deadline, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
}

func TestTaskStorage_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	taskCount := 100
	goroutines := 10

	var wg sync.WaitGroup
	errs := make(chan error, taskCount)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for j := 0; j < taskCount/goroutines; j++ {
				task := newTask(fmt.Sprintf("Task %d-%d", workerID, j), models.StatusPending, nil)
				if err := storage.Create(ctx, task); err != nil {
					errs <- err
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	tasks, err := storage.GetAll(ctx, 0, taskCount*2)
	require.NoError(t, err)
	assert.Len(t, tasks, taskCount)
}

func TestTaskStorage_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	taskToCreate := newTask("Immutable", models.StatusPending, nil)
	require.NoError(t, storage.Create(ctx, taskToCreate))

	fetched, err := storage.GetByID(ctx, taskToCreate.ID)
	require.NoError(t, err)
	fetched.Title = "Mutated locally"

	retrieved, err := storage.GetByID(ctx, taskToCreate.ID)
	require.NoError(t, err)
	assert.Equal(t, "Immutable", retrieved.Title)
}
