// Package server provides the HTTP and websocket front end of the gesture
// engine.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ayusman/twingest/internal/server/api"
	"github.com/ayusman/twingest/internal/store"
	"github.com/ayusman/twingest/pkg/logger"
	"github.com/ayusman/twingest/pkg/metrics"
)

// SessionHub is the session surface the server needs: opening input sessions
// and listing them for introspection.
type SessionHub interface {
	Sessions
	api.SessionLister
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Sessions  SessionHub
	Binder    api.Binder
	Metrics   *metrics.Manager
	Logger    logger.Logger
}

// Server represents the HTTP server.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	log    logger.Logger
	http   *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	log := config.Logger
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		log:    log.Named("http"),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.handle("/api/health", http.HandlerFunc(s.handleHealth))

	if s.config.Store != nil {
		gestureHandler := api.NewGestureHandler(s.config.Store, s.config.Binder)
		samplesHandler := api.NewSamplesHandler(s.config.Store, s.config.Binder)

		// /api/gestures/{id}/samples and /api/gestures/{id}/train go to the
		// samples handler
		gestureRouter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/samples") || strings.HasSuffix(r.URL.Path, "/train") {
				samplesHandler.ServeHTTP(w, r)
				return
			}
			gestureHandler.ServeHTTP(w, r)
		})

		s.handle("/api/gestures", gestureRouter)
		s.handle("/api/gestures/", gestureRouter)
		s.handle("/api/triggers", api.NewTriggersHandler(s.config.Store))
	}

	if s.config.Sessions != nil {
		s.handle("/api/sessions", api.NewSessionsHandler(s.config.Sessions))
		s.mux.Handle("/ws/input", NewInputHandler(s.config.Sessions, s.log))
	}

	if s.config.Metrics != nil && s.config.Metrics.Enabled() {
		s.mux.Handle("/metrics", s.config.Metrics.Handler())
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// handle registers h under pattern, timing it when metrics are configured.
func (s *Server) handle(pattern string, h http.Handler) {
	if s.config.Metrics == nil {
		s.mux.Handle(pattern, h)
		return
	}
	route := strings.TrimSuffix(pattern, "/")
	m := s.config.Metrics
	s.mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		h.ServeHTTP(rec, r)
		m.RecordHTTPRequest(route, r.Method, strconv.Itoa(rec.status), time.Since(start))
	}))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Sessions != nil {
		response["sessions"] = len(s.config.Sessions.Debug())
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "http server listening", logger.String("addr", addr))
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
