package handlers

import (
	"context"
	"net/http"
	"time"
)

// HealthHandler reports service liveness and the state of its dependencies.
type HealthHandler struct {
	service string
	checks  map[string]func(context.Context) error
}

// NewHealthHandler builds the endpoint. Each named check is probed with a
// short deadline on every request.
func NewHealthHandler(service string, checks map[string]func(context.Context) error) *HealthHandler {
	return &HealthHandler{service: service, checks: checks}
}

// Handle answers GET /health.
func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := "ok"
	components := map[string]string{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			components[name] = "down: " + err.Error()
			status = "degraded"
		} else {
			components[name] = "ok"
		}
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":     status,
		"service":    h.service,
		"components": components,
	})
}
