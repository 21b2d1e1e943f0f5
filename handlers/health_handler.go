package handlers

import (
	"context"
	"net/http"
	"time"
)

type pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db pinger
}

func NewHealthHandler(db pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Healthz godoc
// @Summary Liveness and database check
// @Tags health
// @Produce plain
// @Success 200 {string} string "ok"
// @Failure 503 {string} string "database unavailable"
// @Router /healthz [get]
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, state := http.StatusOK, "ok"
	if err := h.db.PingContext(ctx); err != nil {
		status, state = http.StatusServiceUnavailable, "database unavailable"
	}
	if err := writeJSON(w, status, jsonResponse{"status": state}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
