// Package httpapi exposes the JSON REST surface: expense CRUD,
// analytics, and profile management, all behind bearer-token auth.
package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"spendyfy/internal/auth"
	"spendyfy/internal/services"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyIdentity
)

// IdentityFromContext returns the verified caller identity set by the
// auth middleware.
func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(ctxKeyIdentity).(auth.Identity)
	return id, ok
}

type Server struct {
	http.Server

	expenses  *services.ExpenseService
	analytics *services.AnalyticsService
	users     *services.UserService
	verifier  auth.TokenVerifier

	validate   *validator.Validate
	translator ut.Translator

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, expenses *services.ExpenseService, analytics *services.AnalyticsService, users *services.UserService, verifier auth.TokenVerifier) (*Server, error) {
	v, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("initialize validator: %w", err)
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		expenses:    expenses,
		analytics:   analytics,
		users:       users,
		verifier:    verifier,
		validate:    v,
		translator:  trans,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /expenses", s.protected(s.handleCreateExpense))
	mux.HandleFunc("GET /expenses", s.protected(s.handleListExpenses))
	mux.HandleFunc("GET /expenses/recent", s.protected(s.handleRecentExpenses))
	mux.HandleFunc("GET /expenses/{id}", s.protected(s.handleGetExpense))
	mux.HandleFunc("PUT /expenses/{id}", s.protected(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /expenses/{id}", s.protected(s.handleDeleteExpense))
	mux.HandleFunc("DELETE /expenses", s.protected(s.handleDeleteAllExpenses))

	mux.HandleFunc("GET /analytics/dashboard", s.protected(s.handleDashboard))
	mux.HandleFunc("GET /analytics/category", s.protected(s.handleCategoryAnalytics))
	mux.HandleFunc("GET /analytics/trends", s.protected(s.handleMonthlyTrends))
	mux.HandleFunc("GET /analytics/comparison", s.protected(s.handleComparison))

	mux.HandleFunc("GET /auth/profile", s.protected(s.handleGetProfile))
	mux.HandleFunc("PUT /auth/profile", s.protected(s.handleUpdateProfile))
	mux.HandleFunc("DELETE /auth/account", s.protected(s.handleDeleteAccount))

	return s, nil
}

// protected chains the standard middleware plus bearer auth.
func (s *Server) protected(next http.HandlerFunc) http.HandlerFunc {
	return s.withMiddleware(s.requireAuth(next))
}

// withMiddleware adds request IDs, logging, security headers, and rate
// limiting on mutating requests.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
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
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// requireAuth verifies the bearer token and stores the identity in the
// request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(w, http.StatusUnauthorized, "Missing bearer token")
			return
		}

		identity, err := s.verifier.Verify(r.Context(), token)
		if err != nil {
			slog.DebugContext(r.Context(), "Token verification failed", "error", err)
			respondError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyIdentity, identity)
		next(w, r.WithContext(ctx))
	}
}

// identity returns the verified caller. The auth middleware guarantees
// it is present on protected routes.
func identity(r *http.Request) auth.Identity {
	id, _ := IdentityFromContext(r.Context())
	return id
}

// responseWriter wraps http.ResponseWriter to capture the status code.
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

// Shutdown stops the rate limiter cleanup goroutine before draining the
// HTTP server.
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

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondMessage(w, http.StatusOK, "ok")
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	respondMessage(w, http.StatusOK, "ready")
}
