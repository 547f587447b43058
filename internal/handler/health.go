package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Check probes one dependency
type Check func(ctx context.Context) error

// HealthHandler handles health check endpoints
type HealthHandler struct {
	database Check
	redis    Check
	logger   *slog.Logger
}

// NewHealthHandler creates a new health handler. A nil redis check means the
// service runs without Redis.
func NewHealthHandler(database, redis Check, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{database: database, redis: redis, logger: logger}
}

// HealthResponse represents the health status response
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health handles GET /healthz - liveness only
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready handles GET /readyz. Returns 200 only if every configured dependency answers.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	healthy := true
	probe := func(name string, check Check) {
		if check == nil {
			checks[name] = "not configured"
			return
		}
		if err := check(ctx); err != nil {
			checks[name] = "error: " + err.Error()
			healthy = false
			return
		}
		checks[name] = "ok"
	}
	probe("database", h.database)
	probe("redis", h.redis)

	status := "ready"
	statusCode := http.StatusOK
	if !healthy {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, statusCode, ReadinessResponse{Status: status, Checks: checks})

	h.logger.Debug("readiness check",
		slog.String("status", status),
		slog.String("database", checks["database"]),
		slog.String("redis", checks["redis"]),
	)
}
