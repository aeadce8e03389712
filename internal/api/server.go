// Package api serves simulation sessions over HTTP.
// GET endpoints are public. POST endpoints require a bearer token when an
// admin key is configured.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/singleflight"

	"github.com/talgya/zebra-sa/internal/persistence"
)

// Server serves sessions stored in DB.
type Server struct {
	DB       *persistence.DB
	DataDir  string // Where run outputs are written
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = open.

	// Per-client request budget. RPS <= 0 disables limiting.
	RPS   float64
	Burst int

	// Now is the clock; tests may replace it.
	Now func() time.Time

	runs singleflight.Group
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(logRequests)
	r.Use(middleware.Recoverer)
	if s.RPS > 0 {
		r.Use(RateLimitMiddleware(NewRateLimiter(s.RPS, s.Burst)))
	}

	r.Get("/health", s.handleHealth)
	r.Get("/sessions", s.handleListSessions)

	r.With(s.adminOnly).Post("/session", s.handleCreateSession)
	r.With(s.adminOnly).Post("/session/create", s.handleCreateSession)

	r.Route("/session/{sid}", func(r chi.Router) {
		r.Get("/", s.handleGetSession)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/events", s.handleEvents)

		r.With(s.adminOnly).Post("/run", s.handleRun)
		r.With(s.adminOnly).Post("/start", s.handleRun)
	})

	return r
}

// Serve listens on Port until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", srv.Addr, "admin_auth", s.AdminKey != "", "data_dir", s.DataDir)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("HTTP API stopped")
	return nil
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// adminOnly requires the admin bearer token when one is configured.
func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey != "" && !s.checkBearerToken(r) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.AdminKey)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Warn("encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
