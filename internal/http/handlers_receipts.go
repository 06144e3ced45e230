package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"chefsight/internal/receipts"
)

// handleProcessReceipts forwards a processing run to the external
// receipt pipeline.
func (s *Server) handleProcessReceipts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.receipts == nil {
		writeError(w, r, http.StatusServiceUnavailable, "receipt pipeline not configured")
		return
	}

	var req receipts.ProcessRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	result, err := s.receipts.Process(r.Context(), req)
	if err != nil {
		s.writePipelineError(w, r, err, "Receipt processing failed")
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

// handleFailures lists receipts the pipeline could not process.
func (s *Server) handleFailures(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.receipts == nil {
		writeError(w, r, http.StatusServiceUnavailable, "receipt pipeline not configured")
		return
	}

	failures, err := s.receipts.Failures(r.Context())
	if err != nil {
		s.writePipelineError(w, r, err, "Failure listing failed")
		return
	}
	if failures == nil {
		failures = []receipts.FailedReceipt{}
	}

	writeJSON(w, r, http.StatusOK, map[string]any{"failures": failures})
}

// handleSetAPIKey stores the pipeline's OCR credential. The key is
// forwarded, never persisted here.
func (s *Server) handleSetAPIKey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.receipts == nil {
		writeError(w, r, http.StatusServiceUnavailable, "receipt pipeline not configured")
		return
	}

	var body struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(body.APIKey) == "" {
		writeError(w, r, http.StatusBadRequest, "api_key cannot be empty")
		return
	}

	if err := s.receipts.SetAPIKey(r.Context(), body.APIKey); err != nil {
		s.writePipelineError(w, r, err, "Storing API key failed")
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}

// writePipelineError mirrors the pipeline's own status and message
// when available, so clients see the upstream failure unchanged.
func (s *Server) writePipelineError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	slog.ErrorContext(r.Context(), logMsg, "error", err)

	var apiErr *receipts.APIError
	if errors.As(err, &apiErr) {
		writeError(w, r, apiErr.Status, apiErr.Message)
		return
	}
	writeError(w, r, http.StatusBadGateway, "receipt pipeline unreachable")
}
