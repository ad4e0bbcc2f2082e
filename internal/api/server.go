// Package api exposes the HTTP viewer for stored job postings.
package api

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jobsift/jobsift/internal/jobs"
)

// Server wires HTTP handlers to the job store.
type Server struct {
	router chi.Router
	store  jobs.Store
	logger *zap.Logger
	tmpl   *template.Template
}

// NewServer constructs a Server with middleware and routes.
func NewServer(store jobs.Store, logger *zap.Logger) *Server {
	s := &Server{
		store:  store,
		logger: logger,
		tmpl:   template.Must(template.New("index").Parse(indexTemplate)),
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/", s.index)
	r.Get("/v1/jobs", s.listJobs)
	r.Put("/update_status", s.updateStatus)

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	listing, err := s.store.ListJobs(r.Context())
	if err != nil {
		s.logger.Error("Failed to list jobs", zap.Error(err))
		http.Error(w, "failed to load jobs", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, listing); err != nil {
		s.logger.Error("Failed to render job listing", zap.Error(err))
	}
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	listing, err := s.store.ListJobs(r.Context())
	if err != nil {
		s.logger.Error("Failed to list jobs", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to load jobs")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"jobs": listing, "count": len(listing)})
}

type updateStatusRequest struct {
	JobID  string `json:"job_id"`
	SiteID string `json:"site_id"`
	Status string `json:"status"`
}

// updateStatus marks one posting with a caller-supplied status. The status
// text is free-form; only the natural key fields are required.
func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.JobID == "" || req.SiteID == "" {
		s.writeError(w, http.StatusBadRequest, "job_id and site_id required")
		return
	}
	rows, err := s.store.SetStatus(r.Context(), req.SiteID, req.JobID, req.Status)
	if err != nil {
		s.logger.Error("Failed to update status",
			zap.String("site_id", req.SiteID),
			zap.String("job_id", req.JobID),
			zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to update status")
		return
	}
	if rows == 0 {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("Request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("Panic recovered", zap.Any("panic", rec))
				s.writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

type requestIDKey struct{}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
