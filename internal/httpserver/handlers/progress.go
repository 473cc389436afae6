package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/enumlive/internal/httpserver/deps"
)

type progressResponse struct {
	ScanID         string  `json:"scan_id"`
	InputFile      string  `json:"input_file,omitempty"`
	Total          int64   `json:"total"`
	Completed      int64   `json:"completed"`
	InFlight       int64   `json:"in_flight"`
	Live           int     `json:"live"`
	Down           int     `json:"down"`
	Percent        float64 `json:"percent"`
	Done           bool    `json:"done"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

func Progress(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := progressResponse{
			ScanID:         d.ScanID,
			InputFile:      d.InputFile,
			Done:           d.Done != nil && d.Done(),
			ElapsedSeconds: d.Now().Sub(d.StartTime).Seconds(),
		}
		if d.Progress != nil {
			st := d.Progress.Stats()
			resp.Total = st.Total
			resp.Completed = st.Completed
			resp.InFlight = st.InFlight
			if st.Total > 0 {
				resp.Percent = float64(st.Completed) * 100 / float64(st.Total)
			}
		}
		if d.Results != nil {
			resp.Live, resp.Down = d.Results.Counts()
		}

		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, resp)
	}
}
