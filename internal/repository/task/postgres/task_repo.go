package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"taskmanager/internal/logger"
	"taskmanager/internal/models"
	"taskmanager/internal/repository"
)

const taskColumns = `
				id,
				title,
				short_description,
				description,
				text,
				due_date,
				status,
				created_at,
				updated_at,
				version`

type Storage struct {
	pool *pgxpool.Pool
}

type PoolConfig struct {
	MaxConns    int32
	MinConns    int32
	IdleTimeout time.Duration
}

func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxConns:    10,
		MinConns:    2,
		IdleTimeout: 5 * time.Minute,
	}
}

func New(ctx context.Context, connString string, poolCfg PoolConfig) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: parsing connection string failed", err)
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	config.MaxConns = poolCfg.MaxConns
	config.MinConns = poolCfg.MinConns
	config.MaxConnIdleTime = poolCfg.IdleTimeout

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: creating pool failed", err)
		return nil, fmt.Errorf("creating pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("Repository: ping failed", err)
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.Info("Repository: connected to PostgreSQL")
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
		logger.Info("Repository: closed all PostgreSQL connections")
	}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: ping failed", err)
		return fmt.Errorf("pinging database: %w", err)
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *models.Task) error {
	start := time.Now()

	query := `INSERT INTO tasks
				(id, title, short_description, description, text, due_date, status, created_at, version)
				VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), 1)
				RETURNING created_at, version`

	err := s.pool.QueryRow(ctx, query,
		taskToCreate.ID,
		taskToCreate.Title,
		taskToCreate.ShortDescription,
		taskToCreate.Description,
		taskToCreate.Text,
		taskToCreate.DueDate,
		taskToCreate.Status,
	).Scan(&taskToCreate.CreatedAt, &taskToCreate.Version)

	if err != nil {
		logger.Error("Repository: inserting task failed", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("inserting task: %w", err)
	}

	if time.Since(start) > 50*time.Millisecond {
		logger.Warn("Repository: slow query", zap.String("op", "create"), zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	start := time.Now()

	query := `SELECT` + taskColumns + `
				FROM tasks
				WHERE id = $1`

	t := &models.Task{}
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.Title,
		&t.ShortDescription,
		&t.Description,
		&t.Text,
		&t.DueDate,
		&t.Status,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.Version,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		logger.Error("Repository: fetching task failed", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("fetching task: %w", err)
	}

	if time.Since(start) > 100*time.Millisecond {
		logger.Warn("Repository: slow query", zap.String("op", "get_by_id"), zap.Duration("ms", time.Since(start)))
	}
	return t, nil
}

// GetAll returns tasks in insertion order, which keeps pagination stable
// for a fixed store state.
func (s *Storage) GetAll(ctx context.Context, offset, limit int) ([]*models.Task, error) {
	query := `SELECT` + taskColumns + `
				FROM tasks
				ORDER BY created_at, id
				LIMIT $1 OFFSET $2`

	return s.queryTasks(ctx, "get_all", query, limit, offset)
}

func (s *Storage) GetByStatus(ctx context.Context, status models.Status, offset, limit int) ([]*models.Task, error) {
	query := `SELECT` + taskColumns + `
				FROM tasks
				WHERE status = $1
				ORDER BY created_at, id
				LIMIT $2 OFFSET $3`

	return s.queryTasks(ctx, "get_by_status", query, status, limit, offset)
}

// GetDueBefore returns pending tasks whose due date is at or before the
// deadline. Tasks without a due date are never returned.
func (s *Storage) GetDueBefore(ctx context.Context, deadline time.Time, limit int) ([]*models.Task, error) {
	query := `SELECT` + taskColumns + `
				FROM tasks
				WHERE status = $1
					AND due_date IS NOT NULL
					AND due_date <= $2
				ORDER BY due_date
				LIMIT $3`

	return s.queryTasks(ctx, "get_due_before", query, models.StatusPending, deadline, limit)
}

func (s *Storage) Update(ctx context.Context, taskToUpdate *models.Task) error {
	start := time.Now()

	query := `UPDATE tasks
			SET title = $1,
				short_description = $2,
				description = $3,
				text = $4,
				due_date = $5,
				status = $6,
				updated_at = NOW(),
				version = version + 1
			WHERE id = $7 AND version = $8
			RETURNING updated_at, version`

	err := s.pool.QueryRow(ctx, query,
		taskToUpdate.Title,
		taskToUpdate.ShortDescription,
		taskToUpdate.Description,
		taskToUpdate.Text,
		taskToUpdate.DueDate,
		taskToUpdate.Status,
		taskToUpdate.ID,
		taskToUpdate.Version,
	).Scan(&taskToUpdate.UpdatedAt, &taskToUpdate.Version)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.resolveMissingRow(ctx, taskToUpdate.ID, taskToUpdate.Version)
		}
		logger.Error("Repository: updating task failed", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("updating task: %w", err)
	}

	if time.Since(start) > 100*time.Millisecond {
		logger.Warn("Repository: slow query", zap.String("op", "update"), zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, id uuid.UUID) error {
	start := time.Now()

	query := `DELETE FROM tasks WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		logger.Error("Repository: deleting task failed", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("deleting task: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	if time.Since(start) > 100*time.Millisecond {
		logger.Warn("Repository: slow query", zap.String("op", "delete"), zap.Duration("ms", time.Since(start)))
	}
	return nil
}

// resolveMissingRow distinguishes a stale version from a deleted row after
// an optimistic update matched nothing.
func (s *Storage) resolveMissingRow(ctx context.Context, id uuid.UUID, expectedVersion int) error {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tasks WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("checking task existence: %w", err)
	}
	if !exists {
		return repository.ErrNotFound
	}

	logger.Warn("Repository: version conflict",
		zap.String("task_id", id.String()),
		zap.Int("expected_version", expectedVersion))
	return repository.ErrVersionConflict
}

func (s *Storage) queryTasks(ctx context.Context, op, query string, args ...any) ([]*models.Task, error) {
	start := time.Now()

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: fetching tasks failed", err, zap.String("op", op), zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("fetching tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		t := &models.Task{}
		err := rows.Scan(
			&t.ID,
			&t.Title,
			&t.ShortDescription,
			&t.Description,
			&t.Text,
			&t.DueDate,
			&t.Status,
			&t.CreatedAt,
			&t.UpdatedAt,
			&t.Version,
		)
		if err != nil {
			logger.Error("Repository: scanning task failed", err, zap.String("op", op))
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: iterating rows failed", err, zap.String("op", op))
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	if time.Since(start) > 100*time.Millisecond {
		logger.Warn("Repository: slow query", zap.String("op", op), zap.Duration("ms", time.Since(start)))
	}
	return tasks, nil
}
