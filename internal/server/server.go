// Package server provides the HTTP API over the built embeddings.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/weftlab/weft/internal/builder"
	"github.com/weftlab/weft/internal/catalog"
	"github.com/weftlab/weft/internal/config"
	"github.com/weftlab/weft/internal/neighbors"
	"github.com/weftlab/weft/internal/store"
	"github.com/weftlab/weft/internal/watcher"
	"go.uber.org/zap"
)

// Server is the HTTP server for the weft API. It serves similarity and
// embedding lookups from an in-memory neighbor index and can rebuild that
// index when watched input data changes.
type Server struct {
	store   store.Store
	builder *builder.Builder
	catalog *catalog.Catalog
	config  *config.Config
	logger  *zap.Logger
	version string
	server  *http.Server

	mu        sync.RWMutex
	neighbors *neighbors.Index

	rebuildMu sync.Mutex
	watch     *watcher.Watcher
}

// NewServer creates a server with the given dependencies. The catalog may be
// nil when title search is disabled; nb may be nil before the first build.
func NewServer(
	cfg *config.Config,
	st store.Store,
	b *builder.Builder,
	nb *neighbors.Index,
	cat *catalog.Catalog,
	version string,
	logger *zap.Logger,
) *Server {
	return &Server{
		store:     st,
		builder:   b,
		catalog:   cat,
		config:    cfg,
		logger:    logger,
		version:   version,
		neighbors: nb,
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/api/v1/items/search", s.handleCatalogSearch)
	r.Get("/api/v1/items/{id}/embedding", s.handleGetEmbedding)
	r.Get("/api/v1/items/{id}/similar", s.handleSimilarByID)
	r.Post("/api/v1/similar", s.handleSimilar)
	return r
}

// Start starts the HTTP server and blocks until it stops. When watch
// directories are configured, a filesystem watcher triggers full rebuilds.
func (s *Server) Start() error {
	if len(s.config.Watch.Directories) > 0 && s.builder != nil {
		s.watch = watcher.New(
			s.config.Watch.Directories,
			s.config.Watch.Extensions,
			s.config.Watch.RecursiveOrDefault(),
			s.onDataChange,
			watcher.WithLogger(s.logger),
		)
		if err := s.watch.Start(context.Background()); err != nil {
			return fmt.Errorf("failed to start watcher: %w", err)
		}
	}

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.routes(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server and the watcher.
func (s *Server) Stop(ctx context.Context) error {
	if s.watch != nil {
		s.watch.Stop()
	}
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) onDataChange() {
	if err := s.Rebuild(context.Background()); err != nil {
		s.logger.Error("rebuild failed, keeping previous embeddings", zap.Error(err))
	}
}

// Rebuild reruns the full pipeline and swaps in the new neighbor index on
// success. Rebuilds are serialized; a failed rebuild leaves the currently
// served index untouched.
func (s *Server) Rebuild(ctx context.Context) error {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	res, err := s.builder.Build(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.neighbors = res.Neighbors
	s.mu.Unlock()
	s.logger.Info("rebuild complete",
		zap.String("run_id", res.Run.ID),
		zap.Int("items", res.Neighbors.Size()))
	return nil
}

func (s *Server) index() *neighbors.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.neighbors
}
