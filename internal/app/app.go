// Package app wires the repository, service, worker and HTTP server
// together and owns their lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"taskmanager/internal/cache"
	"taskmanager/internal/config"
	"taskmanager/internal/handlers"
	"taskmanager/internal/logger"
	"taskmanager/internal/middleware"
	"taskmanager/internal/repository"
	"taskmanager/internal/repository/task/inmemory"
	"taskmanager/internal/repository/task/postgres"
	"taskmanager/internal/service"
	"taskmanager/internal/worker"
)

const (
	Name    = "Task Manager API"
	Version = "1.0.0"
)

type App struct {
	config    *config.Config
	server    *http.Server
	router    *chi.Mux
	repo      repository.TaskRepository
	cache     *cache.Cache
	service   *service.TaskService
	worker    *worker.OverdueWorker
	shutdowns []func() // run in reverse order on shutdown
}

func New(cfg *config.Config) *App {
	return &App{
		config: cfg,
	}
}

func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("App: flushing logs")
		logger.Sync()
	})

	if err := a.initRepository(ctx); err != nil {
		return err
	}
	a.initCache(ctx)

	a.service = service.NewTaskService(a.repo, a.cache)
	a.worker = worker.NewOverdueWorker(
		a.repo,
		worker.SystemClock(),
		a.cache,
		a.config.Worker.Interval,
		a.config.Worker.BatchSize,
	)

	a.initRouter()

	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      a.router,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	return nil
}

// Run starts the worker and the HTTP server and blocks until ctx is
// cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	go a.worker.Start(workerCtx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("App: server started", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("App: shutdown signal received")
	case err := <-errCh:
		logger.Error("App: server failed", err)
		a.runShutdowns()
		return fmt.Errorf("serving http: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("App: graceful shutdown failed", err)
	}

	a.runShutdowns()
	return nil
}

func (a *App) initRepository(ctx context.Context) error {
	switch a.config.Repository.Type {
	case "postgres":
		if err := postgres.Migrate(a.config.Database.URL); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}

		storage, err := postgres.New(ctx, a.config.Database.URL, postgres.PoolConfig{
			MaxConns:    a.config.Database.MaxConnections,
			MinConns:    a.config.Database.MinConnections,
			IdleTimeout: a.config.Database.IdleTimeout,
		})
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}

		a.repo = storage
		a.shutdowns = append(a.shutdowns, storage.Close)
	case "inmemory":
		a.repo = inmemory.NewTaskStorage()
	default:
		return fmt.Errorf("unknown repository type %q", a.config.Repository.Type)
	}
	return nil
}

// initCache connects to Redis when configured. Cache failures never
// block startup: the service runs uncached instead.
func (a *App) initCache(ctx context.Context) {
	if a.config.Redis.URL == "" {
		return
	}

	opts, err := redis.ParseURL(a.config.Redis.URL)
	if err != nil {
		logger.Warn("App: invalid redis url, cache disabled", zap.Error(err))
		return
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("App: redis unreachable, cache disabled", zap.Error(err))
		client.Close()
		return
	}

	a.cache = cache.New(client, "task:", a.config.Redis.TTL)
	a.shutdowns = append(a.shutdowns, func() {
		if err := a.cache.Close(); err != nil {
			logger.Warn("App: closing redis client failed", zap.Error(err))
		}
	})
	logger.Info("App: task cache enabled")
}

func (a *App) initRouter() {
	taskHandler := handlers.NewTaskHandler(a.service)
	serverHandler := handlers.NewServerHandler(Name, Version, a.repo.HealthCheck)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
	}))
	r.Use(middleware.RateLimit(a.config.Server.RateLimit))

	r.Route("/task", taskHandler.Routes)
	r.Get("/", serverHandler.Root)
	r.Get("/health", serverHandler.Health)

	a.router = r
}

func (a *App) runShutdowns() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
}
