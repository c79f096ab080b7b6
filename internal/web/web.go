// Package web is the status API: health check, latest report retrieval, and
// a manual run trigger.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"saunawatch/internal/config"
	appLog "saunawatch/internal/log"
	"saunawatch/internal/report"
)

// RunFunc triggers one aggregation run. The server never runs two at once.
type RunFunc func(ctx context.Context) (*report.Report, error)

// Server serves the status API. It keeps the latest report in memory; the
// run trigger is guarded so only one run is in flight at a time.
type Server struct {
	cfg *config.Config
	run RunFunc

	mu      sync.RWMutex
	latest  *report.Report
	running bool
}

// NewServer constructs a Server. run may be nil, in which case the trigger
// endpoint reports the feature unavailable.
func NewServer(cfg *config.Config, run RunFunc) *Server {
	return &Server{cfg: cfg, run: run}
}

// SetLatest stores the report served by /api/report. The scheduler calls
// this after each run it performs itself.
func (s *Server) SetLatest(r *report.Report) {
	s.mu.Lock()
	s.latest = r
	s.mu.Unlock()
}

// Handler builds the chi router, with basic auth wrapped around everything
// except /health when credentials are configured.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.basicAuthEnabled() {
			r.Use(s.basicAuth)
		}
		r.Get("/api/report", s.handleReport)
		r.Post("/api/run", s.handleRun)
	})

	return r
}

// ListenAndServe runs the API until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.Listen, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	appLog.Info("status API listening", "listen", "http://"+s.cfg.Listen)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()

	if latest == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no report yet"})
		return
	}
	writeJSON(w, http.StatusOK, latest)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.run == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "run trigger not configured"})
		return
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		writeJSON(w, http.StatusConflict, map[string]string{"error": "a run is already in flight"})
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	rep, err := s.run(r.Context())
	if err != nil {
		appLog.Error("triggered run failed", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	s.SetLatest(rep)
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id": rep.Summary.RunID,
		"events": len(rep.Events),
		"failed": rep.Summary.Sources.Failed,
	})
}

func (s *Server) basicAuthEnabled() bool {
	ba := s.cfg.BasicAuth
	return ba != nil && ba.Username != "" && ba.Password != ""
}

func (s *Server) basicAuth(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="saunawatch", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
