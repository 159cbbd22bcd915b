package lifecycle

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// shutdownDeadline caps the whole teardown: slightly above stopTimeout
// so a single stuck service still surfaces in the logs before exit.
const shutdownDeadline = 35 * time.Second

// Run is the main loop of a PropServe binary: it supervises the given
// services and returns after SIGINT/SIGTERM once they have stopped, or
// immediately if the supervisor itself fails.
func Run(ctx context.Context, services ...Service) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	supervisor := NewSupervisor(services...)

	errCh := make(chan error, 1)
	go func() {
		errCh <- supervisor.Run(ctx)
	}()

	select {
	case sig := <-quit:
		slog.Info("Shutdown signal received", "signal", sig)
		cancel()
	case err := <-errCh:
		if err != nil {
			slog.Error("Supervisor error", "error", err)
			return err
		}
	}

	select {
	case err := <-errCh:
		return err
	case <-time.After(shutdownDeadline):
		slog.Error("Shutdown timed out")
		return nil
	}
}

// HTTPService adapts an http.Server to the Service interface
type HTTPService struct {
	server *http.Server
	name   string
}

// NewHTTPService wraps an already-configured http.Server
func NewHTTPService(name string, server *http.Server) *HTTPService {
	return &HTTPService{
		server: server,
		name:   name,
	}
}

func (s *HTTPService) Name() string { return s.name }

// Start listens and then blocks until ctx is cancelled. Bind errors
// within the grace window are reported as startup failures.
func (s *HTTPService) Start(ctx context.Context) error {
	slog.Info("Starting HTTP server", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-time.After(startGrace):
	}

	<-ctx.Done()
	return nil
}

func (s *HTTPService) Stop(ctx context.Context) error {
	slog.Info("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}

// Health is trivially nil; liveness of the listener is observed by the
// health endpoints it serves.
func (s *HTTPService) Health() error {
	return nil
}
