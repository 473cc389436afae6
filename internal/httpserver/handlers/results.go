package handlers

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/enumlive/internal/domain"
	"github.com/MrSnakeDoc/enumlive/internal/httpserver/deps"
)

type resultsResponse struct {
	ScanID  string               `json:"scan_id"`
	Count   int                  `json:"count"`
	Results []domain.ProbeResult `json:"results"`
}

// Results lists the results gathered so far in completion order.
// ?status=live or ?status=down narrows the list.
func Results(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter domain.LiveStatus
		switch q := strings.ToLower(r.URL.Query().Get("status")); q {
		case "":
		case "live":
			filter = domain.StatusLive
		case "down":
			filter = domain.StatusDown
		default:
			http.Error(w, "status must be live or down", http.StatusBadRequest)
			return
		}

		results := []domain.ProbeResult{}
		if d.Results != nil {
			for _, res := range d.Results.Snapshot() {
				if filter == "" || res.Status == filter {
					results = append(results, res)
				}
			}
		}

		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, resultsResponse{
			ScanID:  d.ScanID,
			Count:   len(results),
			Results: results,
		})
	}
}
