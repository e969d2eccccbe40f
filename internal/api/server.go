// Package api serves the lab backend store and the generated dataset over a
// JSON HTTP API.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nvandessel/neurodash/internal/dataset"
	"github.com/nvandessel/neurodash/internal/ratelimit"
	"github.com/nvandessel/neurodash/internal/store"
)

// Options configures a Server.
type Options struct {
	// Addr is the listen address. "localhost:0" lets the OS pick a port.
	Addr string
	// FixturesDir is served under /mock-data/. Empty disables the route.
	FixturesDir string
	// RequestsPerMinute and Burst bound each client address. Zero disables limiting.
	RequestsPerMinute int
	Burst             int
	Logger            *slog.Logger
}

// Server is the HTTP API server.
type Server struct {
	store   store.LabStore
	opts    Options
	logger  *slog.Logger
	limiter *ratelimit.Limiter

	mu         sync.RWMutex
	catalog    *dataset.Catalog
	addr       string
	httpServer *http.Server
}

// NewServer creates a server over ls. catalog may be nil when no fixtures
// are loaded; dataset routes then answer 503.
func NewServer(ls store.LabStore, catalog *dataset.Catalog, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		store:   ls,
		catalog: catalog,
		opts:    opts,
		logger:  logger,
	}
	if opts.RequestsPerMinute > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = ratelimit.PerMinute(opts.RequestsPerMinute, burst)
	}
	return s
}

// SetCatalog replaces the dataset served by the /api/dataset routes.
func (s *Server) SetCatalog(c *dataset.Catalog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = c
}

func (s *Server) currentCatalog() *dataset.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// Addr returns the listen address once the server is running.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// ListenAndServe starts the server and blocks until ctx is cancelled.
// Returns nil on clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := s.opts.Addr
	if addr == "" {
		addr = "localhost:0"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("api server listening", "addr", s.Addr())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if s.limiter != nil {
		go s.pruneLoop(ctx)
	}

	err = srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// pruneLoop drops idle client buckets so the limiter does not grow without bound.
func (s *Server) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.limiter.Prune(10 * time.Minute); n > 0 {
				s.logger.Debug("pruned idle rate limit buckets", "count", n)
			}
		}
	}
}
