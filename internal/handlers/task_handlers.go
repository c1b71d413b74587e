package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskmanager/internal/logger"
	"taskmanager/internal/models"
	"taskmanager/internal/service"
)

const (
	defaultSkip  = 0
	defaultLimit = 100
)

type TaskService interface {
	CreateTask(ctx context.Context, in service.CreateTaskInput) (*models.Task, error)
	GetTask(ctx context.Context, id uuid.UUID) (*models.Task, error)
	ListTasks(ctx context.Context, skip, limit int) ([]*models.Task, error)
	ListTasksByStatus(ctx context.Context, status models.Status, skip, limit int) ([]*models.Task, error)
	UpdateTask(ctx context.Context, id uuid.UUID, options ...service.TaskOption) (*models.Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID) error
}

type TaskHandler struct {
	service TaskService
}

func NewTaskHandler(taskService TaskService) *TaskHandler {
	return &TaskHandler{
		service: taskService,
	}
}

// Routes mounts the task endpoints on r.
func (h *TaskHandler) Routes(r chi.Router) {
	r.Get("/", h.ListTasks)
	r.Post("/", h.CreateTask)
	r.Get("/status/{status}", h.ListTasksByStatus)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetTaskByID)
		r.Put("/", h.UpdateTaskByID)
		r.Delete("/", h.DeleteTaskByID)
	})
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	skip, ok := queryInt(w, r, "skip", defaultSkip)
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit", defaultLimit)
	if !ok {
		return
	}

	tasks, err := h.service.ListTasks(r.Context(), skip, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, FromTaskList(tasks))
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: unsupported content type",
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))
		respondError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	var request CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: malformed JSON body", zap.Error(err), zap.String("client_ip", r.RemoteAddr))
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := validate.Struct(request); err != nil {
		logger.Warn("HTTP: request validation failed", zap.Error(err), zap.String("client_ip", r.RemoteAddr))
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "VALIDATION_ERROR",
			"message": "request validation failed",
			"details": validationDetails(err),
		})
		return
	}

	in := service.CreateTaskInput{
		Title:       request.Title,
		Description: request.Description,
		Text:        request.Text,
		DueDate:     request.DueDate,
	}
	if request.Status != nil {
		in.Status = *request.Status
	}

	t, err := h.service.CreateTask(r.Context(), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	logger.Info("HTTP_OUT: task created",
		zap.String("task_id", t.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	respondJSON(w, http.StatusCreated, FromTask(t))
}

func (h *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	t, err := h.service.GetTask(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, FromTask(t))
}

func (h *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var request UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: malformed JSON body", zap.Error(err), zap.String("client_ip", r.RemoteAddr))
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := validate.Struct(request); err != nil {
		logger.Warn("HTTP: request validation failed", zap.Error(err), zap.String("client_ip", r.RemoteAddr))
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "VALIDATION_ERROR",
			"message": "request validation failed",
			"details": validationDetails(err),
		})
		return
	}

	var options []service.TaskOption
	if request.Title != nil {
		options = append(options, service.WithTitle(*request.Title))
	}
	if request.Description != nil {
		options = append(options, service.WithDescription(*request.Description))
	}
	if request.Text != nil {
		options = append(options, service.WithText(*request.Text))
	}
	if request.ShortDescription != nil {
		options = append(options, service.WithShortDescription(*request.ShortDescription))
	}
	if request.DueDate != nil {
		options = append(options, service.WithDueDate(request.DueDate))
	}
	if request.Status != nil {
		options = append(options, service.WithStatus(*request.Status))
	}

	t, err := h.service.UpdateTask(r.Context(), id, options...)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	logger.Info("HTTP_OUT: task updated",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	respondJSON(w, http.StatusOK, FromTask(t))
}

func (h *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteTask(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"message": "Task successfully deleted"})
}

func (h *TaskHandler) ListTasksByStatus(w http.ResponseWriter, r *http.Request) {
	status := models.Status(chi.URLParam(r, "status"))

	skip, ok := queryInt(w, r, "skip", defaultSkip)
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit", defaultLimit)
	if !ok {
		return
	}

	tasks, err := h.service.ListTasksByStatus(r.Context(), status, skip, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, FromTaskList(tasks))
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idParam := chi.URLParam(r, "id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		logger.Warn("HTTP: invalid task id",
			zap.String("id", idParam),
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		respondError(w, http.StatusBadRequest, "invalid task id: "+err.Error())
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		logger.Warn("HTTP: invalid query parameter",
			zap.String("param", name),
			zap.String("value", raw),
			zap.String("client_ip", r.RemoteAddr))
		respondError(w, http.StatusBadRequest, "invalid value for "+name)
		return 0, false
	}
	return value, true
}
