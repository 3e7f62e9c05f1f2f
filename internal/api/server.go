// Package api implements the beltline HTTP API.
//
// The server exposes the solve pipeline over JSON: POST /api/solve runs
// a full load → solve → render pass, POST /api/validate checks a game
// catalog or layout without solving, GET /api/health reports build info,
// and GET /api/live upgrades to a websocket that streams solve results
// back for every layout the client sends.
//
// All JSON responses use one envelope: {"success": true, "data": ...}
// on success and {"success": false, "error": "..."} on failure.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/beltline/beltline/pkg/buildinfo"
	"github.com/beltline/beltline/pkg/errors"
	"github.com/beltline/beltline/pkg/observability"
	"github.com/beltline/beltline/pkg/pipeline"
)

// Server serves the beltline HTTP API.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
}

// NewServer creates a server around a pipeline runner. A nil logger
// falls back to log.Default.
func NewServer(runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{runner: runner, logger: logger}
}

// Handler builds the chi router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/live", s.handleLive)
		r.Group(func(r chi.Router) {
			r.Use(requireJSON)
			r.Post("/solve", s.handleSolve)
			r.Post("/validate", s.handleValidate)
		})
	})

	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully with a 5 second drain window.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// requestLogger logs each request and fires the API observability hooks.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		observability.API().OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		observability.API().OnResponse(r.Context(), r.Method, r.URL.Path, ww.Status(), duration)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", duration.Round(time.Millisecond))
	})
}

// requireJSON rejects POST bodies that do not declare a JSON content type.
func requireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct != "" && !strings.HasPrefix(ct, "application/json") {
			writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
	})
}

// envelope is the uniform response wrapper.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusForError maps structured error codes to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, errors.ErrCodeInvalidGameData),
		errors.Is(err, errors.ErrCodeInvalidLayout),
		errors.Is(err, errors.ErrCodeInvalidInput),
		errors.Is(err, errors.ErrCodeInvalidFormat),
		errors.Is(err, errors.ErrCodeInvalidRateUnit):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrCodePlanNotFound),
		errors.Is(err, errors.ErrCodeNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
