package controllers

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"eventra/internal/delivery/http/helpers"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
	Stats() sql.DBStats
}

// HealthResponse is the data payload for GET /health.
type HealthResponse struct {
	Status          string `json:"status"`
	Database        string `json:"database"`
	OpenConnections int    `json:"open_connections"`
	InUse           int    `json:"in_use"`
	Idle            int    `json:"idle"`
}

type HealthController struct {
	Logger  *slog.Logger
	DB      Pinger
	Timeout time.Duration
}

func NewHealthController(logger *slog.Logger, db Pinger, timeout time.Duration) *HealthController {
	return &HealthController{Logger: logger, DB: db, Timeout: timeout}
}

// Health godoc
// @Summary Liveness and database health
// @Tags health
// @Produce json
// @Success 200 {object} helpers.APIResponse "data.status: ok"
// @Failure 503 {object} helpers.APIResponse "data.status: degraded"
// @Router /health [get]
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.Timeout)
	defer cancel()

	stats := c.DB.Stats()
	resp := HealthResponse{
		Status:          "ok",
		Database:        "up",
		OpenConnections: stats.OpenConnections,
		InUse:           stats.InUse,
		Idle:            stats.Idle,
	}
	if err := c.DB.PingContext(ctx); err != nil {
		c.Logger.WarnContext(ctx, "health check: database ping failed", "err", err)
		resp.Status = "degraded"
		resp.Database = "down"
		helpers.WriteJSONSuccess(w, http.StatusServiceUnavailable, resp)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, resp)
}
