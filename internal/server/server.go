// Package server exposes the project service over HTTP and over the
// websocket request/ack protocol used by the remote store.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/tmcoach/board/internal/config"
	"github.com/tmcoach/board/internal/project"
)

// Dependencies holds everything the server needs
type Dependencies struct {
	Projects *project.Service
	Logger   *slog.Logger
	Config   config.ServerConfig
	// Origin is the allowed CORS origin; empty disables CORS headers
	Origin string
}

// Server serves the HTTP API
type Server struct {
	projects *project.Service
	log      *slog.Logger
	cfg      config.ServerConfig
	origin   string
	router   *mux.Router
	hub      *hub
}

// New builds the server and its routes
func New(deps Dependencies) (*Server, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	s := &Server{
		projects: deps.Projects,
		log:      deps.Logger.With("component", "server"),
		cfg:      deps.Config,
		origin:   deps.Origin,
	}
	h, err := newHub(s.projects, s.log)
	if err != nil {
		return nil, fmt.Errorf("websocket hub: %w", err)
	}
	s.hub = h
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := mux.NewRouter()
	r.Use(s.requestID, s.logRequests, s.cors)

	r.Handle("/healthcheck", healthController{}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.requireAPIKey)
	api.HandleFunc("/projects", s.handleList).Methods(http.MethodGet)
	api.HandleFunc("/projects", s.handleCreate).Methods(http.MethodPost)
	api.HandleFunc("/projects/{name}", s.handleGet).Methods(http.MethodGet)
	api.HandleFunc("/projects/{name}", s.handlePut).Methods(http.MethodPut)
	api.HandleFunc("/projects/{name}", s.handleDelete).Methods(http.MethodDelete)
	api.HandleFunc("/projects/{name}/rotate", s.handleRotate).Methods(http.MethodPost)
	api.HandleFunc("/projects/{name}/frame", s.handleFrame).Methods(http.MethodGet)

	r.Handle("/ws", s.requireAPIKey(s.hub)).Methods(http.MethodGet)

	// CORS preflight
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	s.router = r
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address until ctx is done, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("Shutting down")
	defer s.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

type healthController struct{}

func (healthController) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Close stops the websocket write queue. Run calls it on shutdown; servers
// used only through Handler should call it when done.
func (s *Server) Close() {
	s.hub.Close()
}
