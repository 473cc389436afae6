package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/enumlive/internal/httpserver/deps"
)

type componentStatus struct {
	OK      bool   `json:"ok"`
	Workers *int   `json:"workers,omitempty"`
	Mode    string `json:"mode,omitempty"`
	Impact  string `json:"impact,omitempty"`
	Error   string `json:"error,omitempty"`
}

type infraResponse struct {
	ScanState  string                     `json:"scan_state"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workers := d.Workers
		components := map[string]componentStatus{
			"scanner": {
				OK:      true,
				Workers: &workers,
			},
			"redis": checkRedis(r.Context(), d),
			"metrics": {
				OK:   d.Gatherer != nil,
				Mode: enabledMode(d.Gatherer != nil),
			},
		}

		writeJSON(w, http.StatusOK, infraResponse{
			ScanState:  scanState(d),
			Components: components,
		})
	}
}

func scanState(d deps.Deps) string {
	switch {
	case d.Done != nil && d.Done():
		return "done"
	case d.Ready != nil && d.Ready():
		return "running"
	default:
		return "starting"
	}
}

func enabledMode(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     true,
			Mode:   "disabled",
			Impact: "results-csv-only",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "mirror-writes-failing",
			Error:  err.Error(),
		}
	}

	return componentStatus{
		OK:     true,
		Mode:   "mirroring",
		Impact: "results-mirrored",
	}
}
