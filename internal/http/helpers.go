package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"chefsight/internal/core"
)

// parseRange reads the range query parameter, defaulting to the
// trailing 30 days. The second return reports whether the value was
// recognized.
func parseRange(r *http.Request) (core.TimeRange, bool) {
	v := strings.TrimSpace(r.URL.Query().Get("range"))
	if v == "" {
		return core.Last30Days, true
	}
	rng := core.TimeRange(v)
	return rng, rng.Valid()
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.ErrorContext(r.Context(), "Failed to encode response", "error", err, "url", r.URL.Path)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, map[string]string{"error": message})
}
