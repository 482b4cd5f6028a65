package handlers

import (
	"context"
	"net/http"
	"time"

	applog "saponaria/internal/log"
)

const healthPingTimeout = 2 * time.Second

type healthResponse struct {
	Status     string            `json:"status"`
	Time       time.Time         `json:"time"`
	Components map[string]string `json:"components"`
}

// Health reports readiness for infrastructure probes. A configured database
// that cannot be reached makes the service unavailable; a missing calculator
// only disables calculations and is reported without failing the probe.
func Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := healthResponse{
		Status:     "ok",
		Time:       time.Now().UTC(),
		Components: map[string]string{"database": "disabled", "calculator": "disabled"},
	}
	status := http.StatusOK

	if database != nil {
		resp.Components["database"] = "ok"
		if err := pingDatabase(ctx); err != nil {
			applog.Warn(ctx, "health check database ping failed", "error", err)
			resp.Components["database"] = "unreachable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	if calculator != nil {
		resp.Components["calculator"] = "configured"
	}

	applog.Debug(ctx, "health check", "status", resp.Status)
	writeJSON(w, status, resp)
}

func pingDatabase(ctx context.Context) error {
	sqlDB, err := database.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}
