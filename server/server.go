// Package server exposes the producer and inspection HTTP API: enqueueing
// ingestion requests (manually or from source-host webhooks) and reading
// queue state and materialized versions.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/componentize/repodata/config"
	"github.com/componentize/repodata/queue"
	"github.com/componentize/repodata/version"
)

// Server is the HTTP API server
type Server struct {
	ingestions *queue.Store
	versions   *version.Store
	registry   config.Registry
	logger     *zap.SugaredLogger
	httpServer *http.Server
}

// NewServer creates the HTTP API server listening on the given port
func NewServer(port int, ingestions *queue.Store, versions *version.Store, registry config.Registry, logger *zap.SugaredLogger) *Server {
	s := &Server{
		ingestions: ingestions,
		versions:   versions,
		registry:   registry,
		logger:     logger,
	}
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router builds the route table. Exposed separately so tests can drive the
// handlers without a listening socket.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/__health", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/queue", func(r chi.Router) {
			r.Post("/", s.handleEnqueue)
			r.Get("/", s.handleListQueue)
			r.Get("/{ingestionID}", s.handleGetQueued)
			r.Delete("/{ingestionID}", s.handleDeleteQueued)
		})
		r.Route("/repos", func(r chi.Router) {
			r.Get("/", s.handleListRepos)
			r.Get("/{repoID}/versions", s.handleListVersions)
			r.Get("/{repoID}/versions/{versionID}", s.handleGetVersion)
		})
	})

	return r
}

// Start runs the HTTP server until Shutdown is called
func (s *Server) Start() error {
	s.logger.Infow("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("HTTP server shutting down")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
