package mcp

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/honeycarbs/leadscore/internal/api"
	"github.com/honeycarbs/leadscore/internal/config"
	"github.com/honeycarbs/leadscore/pkg/logging"
)

const serverVersion = "0.1.0"

// Server serves the MCP stream and the REST API from one HTTP listener
type Server struct {
	logger *logging.Logger
	config config.Config

	srv     *http.Server
	started atomic.Bool
}

// NewServer registers every tool against res and mounts the HTTP routes
func NewServer(log *logging.Logger, cfg config.Config, res *Resources) (*Server, error) {
	impl := &sdkmcp.Implementation{
		Name:    "leadscore",
		Version: serverVersion,
	}

	mcpServer := sdkmcp.NewServer(impl, nil)
	if err := NewToolRegistry(log.Named("tools")).RegisterAll(mcpServer, res); err != nil {
		return nil, err
	}

	handler := sdkmcp.NewStreamableHTTPHandler(func(req *http.Request) *sdkmcp.Server {
		return mcpServer
	}, nil)

	r := chi.NewRouter()
	r.Handle("/mcp/stream", handler)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Mount("/api", api.NewHandler(res.LeadService, log).Routes())

	httpSrv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{
		logger: log,
		config: cfg,
		srv:    httpSrv,
	}, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Run starts the HTTP server and blocks until shutdown
func (s *Server) Run() error {
	if !s.started.CompareAndSwap(false, true) {
		return nil
	}

	s.logger.Info("HTTP server listening", "addr", s.srv.Addr, "mcp", "/mcp/stream", "api", "/api")

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutdown requested for HTTP server")
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("HTTP server shutdown with error", "err", err)
		return err
	}

	s.logger.Info("HTTP server shutdown complete")
	return nil
}
