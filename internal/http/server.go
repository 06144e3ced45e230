// Package http serves the dashboard JSON API: aggregated views, the
// raw record list, refresh triggering, and a thin proxy in front of the
// external receipt-ingestion pipeline.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"chefsight/internal/core"
	"chefsight/internal/receipts"
	"chefsight/internal/services"
)

type Server struct {
	http.Server
	dashboards   DashboardProvider
	refresher    Refresher
	receipts     ReceiptPipeline
	ready        ReadyChecker
	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// DashboardProvider computes aggregated views and filtered record
// lists. Implemented by services.DashboardService.
type DashboardProvider interface {
	Dashboard(ctx context.Context, rng core.TimeRange, now time.Time) (services.Dashboard, error)
	Records(ctx context.Context, rng core.TimeRange, now time.Time) ([]core.ExpenseRecord, error)
}

// Refresher re-fetches the record source and replaces the stored
// snapshot. Implemented by services.RefreshService.
type Refresher interface {
	Refresh(ctx context.Context) (*services.RefreshResult, error)
}

// ReceiptPipeline is the external receipt-ingestion collaborator.
// Implemented by receipts.Client.
type ReceiptPipeline interface {
	Process(ctx context.Context, req receipts.ProcessRequest) (*receipts.ProcessResult, error)
	Failures(ctx context.Context) ([]receipts.FailedReceipt, error)
	SetAPIKey(ctx context.Context, apiKey string) error
}

// ReadyChecker reports whether the backing store is reachable.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}

// NewServer configures routes and middleware, returning a
// ready-to-run http.Server. receipts may be nil when no pipeline is
// configured; its routes then answer 503.
func NewServer(addr string, dashboards DashboardProvider, refresher Refresher, receipts ReceiptPipeline, ready ReadyChecker) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		dashboards:  dashboards,
		refresher:   refresher,
		receipts:    receipts,
		ready:       ready,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/api/dashboard", s.withSecurityHeaders(s.handleDashboard))
	mux.HandleFunc("/api/records", s.withSecurityHeaders(s.handleRecords))
	mux.HandleFunc("/api/refresh", s.withSecurityHeaders(s.handleRefresh))
	mux.HandleFunc("/api/process", s.withSecurityHeaders(s.handleProcessReceipts))
	mux.HandleFunc("/api/failures", s.withSecurityHeaders(s.handleFailures))
	mux.HandleFunc("/api/config/openai-key", s.withSecurityHeaders(s.handleSetAPIKey))

	return s
}

// Shutdown stops the rate limiter cleanup goroutine and the HTTP
// server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting on POSTs,
// and request logging.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready.Ready(r.Context()); err != nil {
			slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
