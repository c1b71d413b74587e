package handlers

import (
	"context"
	"net/http"
	"time"

	"taskmanager/internal/logger"
)

// ServerHandler serves the liveness endpoints that carry no task
// semantics.
type ServerHandler struct {
	name    string
	version string
	health  func(ctx context.Context) error
}

func NewServerHandler(name, version string, health func(ctx context.Context) error) *ServerHandler {
	return &ServerHandler{
		name:    name,
		version: version,
		health:  health,
	}
}

func (h *ServerHandler) Root(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "OK",
		"message": h.name + " is running",
		"version": h.version,
	})
}

func (h *ServerHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			logger.Error("HTTP: health check failed", err)
			respondJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status":    "unhealthy",
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
