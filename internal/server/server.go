// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes extraction and search over HTTP. Both endpoints
// accept and return JSON; every failure body is {"error": "..."} with a
// message safe to show users.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pdiddy/reference-assistant/internal/session"
	"github.com/pdiddy/reference-assistant/pkg/types"
)

// Route paths.
const (
	PathExtract = "/extract-references"
	PathSearch  = "/search-reference"
	PathHealth  = "/healthz"
)

// Server wires the extraction and search services to a gin engine.
type Server struct {
	cfg       types.ServerConfig
	extractor session.Extractor
	searcher  session.Searcher
	version   string
	log       *slog.Logger
	engine    *gin.Engine
}

// New builds a Server and its routes.
func New(cfg types.ServerConfig, e session.Extractor, s session.Searcher, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxRequestBytes <= 0 {
		cfg.MaxRequestBytes = types.DefaultConfig().Server.MaxRequestBytes
	}
	srv := &Server{
		cfg:       cfg,
		extractor: e,
		searcher:  s,
		version:   version,
		log:       logger,
	}
	srv.engine = srv.routes()
	return srv
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(requestID(), accessLog(s.log), recovery(s.log), limitBody(s.cfg.MaxRequestBytes))

	r.POST(PathExtract, s.handleExtract)
	r.POST(PathSearch, s.handleSearch)
	r.GET(PathHealth, s.handleHealth)

	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within the configured timeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hs := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("server.listen", "addr", ln.Addr().String())
		errc <- hs.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = types.DefaultConfig().Server.ShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.log.Info("server.shutdown", "timeout", timeout.String())
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
