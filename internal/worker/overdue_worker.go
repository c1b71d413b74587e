// Package worker runs the due-date scheduler: a recurring job that
// transitions overdue pending tasks to done.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"taskmanager/internal/cache"
	"taskmanager/internal/logger"
	"taskmanager/internal/models"
	"taskmanager/internal/repository"
)

const (
	defaultInterval  = time.Minute
	defaultBatchSize = 100
)

type OverdueWorker struct {
	repo      repository.TaskRepository
	clock     Clock
	cache     *cache.Cache // optional, keeps cached reads consistent
	interval  time.Duration
	batchSize int
}

func NewOverdueWorker(repo repository.TaskRepository, clock Clock, c *cache.Cache, interval time.Duration, batchSize int) *OverdueWorker {
	if clock == nil {
		clock = SystemClock()
	}
	if interval <= 0 {
		interval = defaultInterval
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	return &OverdueWorker{
		repo:      repo,
		clock:     clock,
		cache:     c,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Start runs one cycle immediately and then on every tick until ctx is
// cancelled. An in-progress cycle is abandoned safely on shutdown: a
// task left pending is picked up by the next running cycle.
func (w *OverdueWorker) Start(ctx context.Context) {
	logger.Info("Worker: due-date scheduler started",
		zap.Duration("interval", w.interval),
		zap.Int("batch_size", w.batchSize))

	w.Check(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Check(ctx)
		case <-ctx.Done():
			logger.Info("Worker: due-date scheduler stopping")
			return
		}
	}
}

// Check executes a single scheduler cycle and returns how many tasks
// were transitioned to done. Store failures abort the cycle; every
// untouched task stays pending and overdue, so the next cycle retries
// it naturally.
func (w *OverdueWorker) Check(ctx context.Context) int {
	start := time.Now()
	now := w.clock.Now()

	tasks, err := w.repo.GetDueBefore(ctx, now, w.batchSize)
	if err != nil {
		logger.Warn("Worker: fetching overdue tasks failed", zap.Error(err))
		return 0
	}

	marked := 0
	for _, t := range tasks {
		if !t.Overdue(now) {
			continue
		}

		t.Status = models.StatusDone
		if err := w.repo.Update(ctx, t); err != nil {
			// Version conflicts and transient failures alike: skip,
			// the task is re-evaluated on the next cycle.
			logger.Warn("Worker: marking task done failed",
				zap.String("task_id", t.ID.String()),
				zap.Error(err))
			continue
		}

		if w.cache != nil {
			if err := w.cache.Delete(ctx, t.ID.String()); err != nil {
				logger.Warn("Worker: cache invalidation failed",
					zap.String("task_id", t.ID.String()),
					zap.Error(err))
			}
		}
		marked++
	}

	logger.Info("Worker: cycle finished",
		zap.Int("checked", len(tasks)),
		zap.Int("marked_done", marked),
		zap.Duration("ms", time.Since(start)))
	return marked
}
