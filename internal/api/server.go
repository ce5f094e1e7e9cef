package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/wonny/winners/pkg/config"
	"github.com/wonny/winners/pkg/logger"
)

// Server serves the screening API until its context ends
// ⭐ SSOT: API 서버 설정은 이 파일에서만
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          *logger.Logger
}

// New creates a new API server. WriteTimeout covers a synchronous full rebuild.
func New(cfg *config.Config, log *logger.Logger, router http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      cfg.API.WriteTimeout,
			IdleTimeout:       60 * time.Second,
		},
		shutdownTimeout: cfg.API.ShutdownTimeout,
		logger:          log.WithField("module", "api.server"),
	}
}

// Run listens until ctx is canceled, then drains in-flight requests
// (a running recompute included) for at most the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"addr":          ln.Addr().String(),
		"write_timeout": s.httpServer.WriteTimeout.String(),
	}).Info("Starting API server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
