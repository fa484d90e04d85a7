// Package httpapi serves spec.md §6's REST surface on top of
// gorilla/mux, grounded on the upstream scanner's read-only
// interfaces/http server: the same middleware chain (request id,
// logging, JSON content type) generalised to brew-signal's
// read/write IP-management API.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/MaxShih147/brew-signal/internal/config"
	"github.com/MaxShih147/brew-signal/internal/metrics"
	"github.com/MaxShih147/brew-signal/internal/pipeline"
	"github.com/MaxShih147/brew-signal/internal/store"
)

// Server is brew-signal's HTTP API server.
type Server struct {
	router  *mux.Router
	server  *http.Server
	cfg     config.Config
	store   store.Store
	runner  *pipeline.Runner
	metrics *metrics.Registry
	log     zerolog.Logger
}

// New constructs a Server and wires every route of spec.md §6.
func New(cfg config.Config, st store.Store, runner *pipeline.Runner, reg *metrics.Registry, logger zerolog.Logger) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		cfg:     cfg,
		store:   st,
		runner:  runner,
		metrics: reg,
		log:     logger,
	}
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.jsonContentTypeMiddleware)

	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/ip", s.listIPs).Methods(http.MethodGet)
	api.HandleFunc("/ip", s.createIP).Methods(http.MethodPost)
	api.HandleFunc("/ip/{id}", s.updateIP).Methods(http.MethodPut)
	api.HandleFunc("/ip/{id}", s.deleteIP).Methods(http.MethodDelete)

	api.HandleFunc("/ip/{id}/aliases", s.createAlias).Methods(http.MethodPost)
	api.HandleFunc("/ip/alias/{aid}", s.updateAlias).Methods(http.MethodPut)
	api.HandleFunc("/ip/alias/{aid}", s.deleteAlias).Methods(http.MethodDelete)
	api.HandleFunc("/ip/alias/{aid}/reset-weight", s.resetAliasWeight).Methods(http.MethodPost)

	api.HandleFunc("/ip/{id}/trend", s.getTrend).Methods(http.MethodGet)
	api.HandleFunc("/ip/{id}/signals", s.getSignals).Methods(http.MethodGet)
	api.HandleFunc("/ip/{id}/health", s.getHealth).Methods(http.MethodGet)

	api.HandleFunc("/ip/{id}/opportunity", s.getOpportunity).Methods(http.MethodGet)
	api.HandleFunc("/ip/{id}/opportunity", s.putOpportunity).Methods(http.MethodPut)

	api.HandleFunc("/ip/{id}/bd-score", s.getBDScore).Methods(http.MethodGet)
	api.HandleFunc("/ip/bd-ranking", s.getBDRanking).Methods(http.MethodGet)

	api.HandleFunc("/ip/{id}/launch-plan", s.getLaunchPlan).Methods(http.MethodGet)

	api.HandleFunc("/ip/{id}/pipeline", s.putPipelineStage).Methods(http.MethodPut)

	api.HandleFunc("/collect/run", s.postCollectRun).Methods(http.MethodPost)
	api.HandleFunc("/collect/{source}-sync/{id}", s.postCollectSync).Methods(http.MethodPost)

	api.HandleFunc("/admin/confidence/{id}", s.getConfidence).Methods(http.MethodGet)
	api.HandleFunc("/admin/confidence/{id}/recalculate", s.postRecalculateConfidence).Methods(http.MethodPost)

	api.HandleFunc("/admin/data-health/sources", s.getDataHealthSources).Methods(http.MethodGet)
	api.HandleFunc("/admin/data-health/matrix", s.getDataHealthMatrix).Methods(http.MethodGet)
	api.HandleFunc("/admin/data-health/runs", s.getDataHealthRuns).Methods(http.MethodGet)
	api.HandleFunc("/admin/data-health/registry", s.getDataHealthRegistry).Methods(http.MethodGet)

	s.router.Path("/metrics").Handler(reg(s.metrics))
	s.router.NotFoundHandler = http.HandlerFunc(s.notFound)
}

func reg(m *metrics.Registry) http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) })
	}
	return m.Handler()
}

// ListenAndServe starts the server; it blocks until Shutdown is called
// or the server fails.
func (s *Server) ListenAndServe() error { return s.server.ListenAndServe() }

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error { return s.server.Shutdown(ctx) }

type contextKey string

const requestIDKey contextKey = "request_id"

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()[:8]
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		dur := time.Since(start)
		s.log.Info().
			Str("request_id", fmt.Sprint(r.Context().Value(requestIDKey))).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("duration", dur).
			Msg("http request")
		if s.metrics != nil {
			route := r.URL.Path
			if m := mux.CurrentRoute(r); m != nil {
				if tpl, err := m.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			status := fmt.Sprint(sw.status)
			s.metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
			s.metrics.HTTPRequestDuration.WithLabelValues(r.Method, route, status).Observe(dur.Seconds())
		}
	})
}

func (s *Server) jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "route not found")
}
