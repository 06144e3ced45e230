package http

import (
	"log/slog"
	"net/http"
	"time"
)

// handleDashboard serves every aggregated view for the requested time
// range in one payload.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	rng, ok := parseRange(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "unknown range: use 30_days, ytd or all_time")
		return
	}

	view, err := s.dashboards.Dashboard(r.Context(), rng, time.Now().UTC())
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard computation failed", "error", err, "range", rng)
		writeError(w, r, http.StatusInternalServerError, "failed to compute dashboard")
		return
	}

	writeJSON(w, r, http.StatusOK, view)
}

// handleRecords serves the filtered record list without aggregation.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	rng, ok := parseRange(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "unknown range: use 30_days, ytd or all_time")
		return
	}

	records, err := s.dashboards.Records(r.Context(), rng, time.Now().UTC())
	if err != nil {
		slog.ErrorContext(r.Context(), "Record listing failed", "error", err, "range", rng)
		writeError(w, r, http.StatusInternalServerError, "failed to list records")
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"range":   rng,
		"count":   len(records),
		"records": records,
	})
}

// handleRefresh re-fetches the record source and replaces the stored
// snapshot.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	result, err := s.refresher.Refresh(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Refresh failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "refresh failed")
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}
