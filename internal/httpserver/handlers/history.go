package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/enumlive/internal/domain"
	"github.com/MrSnakeDoc/enumlive/internal/httpserver/deps"
	"github.com/MrSnakeDoc/enumlive/internal/logger"
	redisstore "github.com/MrSnakeDoc/enumlive/internal/store/redis"
)

type scanResponse struct {
	Scan    *redisstore.ScanMeta `json:"scan"`
	Count   int                  `json:"count"`
	Results []domain.ProbeResult `json:"results"`
}

// Scan returns a mirrored scan, this one or an earlier run, with its
// results in completion order.
func Scan(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		meta, err := d.History.GetScanMeta(r.Context(), id)
		if err != nil {
			historyError(w, d, err, "scan", id)
			return
		}
		results, err := d.History.GetScanResults(r.Context(), id)
		if err != nil {
			historyError(w, d, err, "scan", id)
			return
		}

		writeJSON(w, http.StatusOK, scanResponse{
			Scan:    meta,
			Count:   len(results),
			Results: results,
		})
	}
}

// Host returns the latest mirrored result for a hostname.
func Host(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		host := strings.ToLower(chi.URLParam(r, "host"))

		res, err := d.History.GetResult(r.Context(), host)
		if err != nil {
			historyError(w, d, err, "host", host)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func historyError(w http.ResponseWriter, d deps.Deps, err error, kind, key string) {
	if errors.Is(err, redisstore.ErrNotFound) {
		http.Error(w, kind+" not found", http.StatusNotFound)
		return
	}
	d.Logger.Warn("history lookup failed",
		logger.String(kind, key),
		logger.Error(err))
	http.Error(w, "history unavailable", http.StatusServiceUnavailable)
}
