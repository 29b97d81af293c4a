package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger checks a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports process and database health
type HealthHandler struct {
	db      Pinger
	timeout time.Duration
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db, timeout: 2 * time.Second}
}

type healthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Health handles GET /health. It answers 503 while the database is unreachable.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, healthStatus{Status: "degraded", Database: "unreachable"})
		return
	}
	WriteJSON(w, http.StatusOK, healthStatus{Status: "ok", Database: "ok"})
}
