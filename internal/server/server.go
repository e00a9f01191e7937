// Package server exposes the csmon admin API over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"git.home.luguber.info/inful/csmon/internal/events"
	ferrors "git.home.luguber.info/inful/csmon/internal/foundation/errors"
	"git.home.luguber.info/inful/csmon/internal/logfields"
	"git.home.luguber.info/inful/csmon/internal/server/handlers"
	smw "git.home.luguber.info/inful/csmon/internal/server/middleware"
)

// Options wires the server. History, Bus and Metrics are optional.
type Options struct {
	Addr      string
	Commands  handlers.Commands
	Health    handlers.HealthSource
	History   handlers.History
	Bus       *events.Bus
	Metrics   http.Handler
	RateLimit float64
	Burst     int
	Logger    *slog.Logger
}

// Server is the admin HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     *slog.Logger
}

// New builds the route table and middleware chain.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	handlers.NewCommandHandlers(opts.Commands, logger).Register(mux)
	handlers.NewMonitoringHandlers(opts.Health, opts.Bus).Register(mux)
	if opts.History != nil {
		handlers.NewHistoryHandlers(opts.History, logger).Register(mux)
	}
	if opts.Bus != nil {
		handlers.NewStreamHandlers(opts.Bus, logger).Register(mux)
	}
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}

	var limiter *smw.RateLimiter
	if opts.RateLimit > 0 {
		limiter = smw.NewRateLimiter(opts.RateLimit, opts.Burst)
	}
	handler := smw.Chain(logger, ferrors.NewHTTPErrorAdapter(logger), limiter)(mux)

	return &Server{
		httpServer: &http.Server{
			Addr:              opts.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		handler: handler,
		logger:  logger,
	}
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("admin server listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("Admin API listening", slog.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- s.httpServer.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Admin API shutdown failed", logfields.Error(err))
		return err
	}
	return nil
}
