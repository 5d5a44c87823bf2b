package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/remiblancher/goodkey-cms/internal/observability"
)

// Server represents the HTTP server.
type Server struct {
	cfg     *Config
	version string
	handler http.Handler
	logger  observability.Logger
	srv     *http.Server
}

// New creates a new Server.
func New(cfg *Config, version string, handler http.Handler, logger observability.Logger) *Server {
	if logger == nil {
		logger = observability.NewNullLogger()
	}
	return &Server{
		cfg:     cfg,
		version: version,
		handler: handler,
		logger:  logger,
	}
}

// Start listens on the configured address and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Address(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled or SIGINT or
// SIGTERM is received, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.srv = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		if s.cfg.TLSEnabled() {
			errChan <- s.srv.ServeTLS(ln, s.cfg.TLSCert, s.cfg.TLSKey)
		} else {
			errChan <- s.srv.Serve(ln)
		}
	}()

	s.printStartupInfo(ln.Addr().String())

	// Wait for shutdown signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-sigChan:
		s.logger.Info("Received signal {Signal}, shutting down", sig.String())
	case <-ctx.Done():
		s.logger.Info("Context done, shutting down")
	}

	return s.shutdown()
}

// shutdown gracefully shuts down the server.
func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	s.logger.Info("Server stopped gracefully")
	return nil
}

// printStartupInfo logs server startup information.
func (s *Server) printStartupInfo(addr string) {
	scheme := "http"
	if s.cfg.TLSEnabled() {
		scheme = "https"
	}
	s.logger.Info("gkcms {Version} listening on {Scheme}://{Address}", s.version, scheme, addr)
	s.logger.Info("Endpoints: POST / | POST /api/v1/cms/sign | GET /api/v1/token/profile | GET /health | GET /ready | GET /metrics")
}
