// Package lifecycle wires application startup and shutdown.
//
// The binary is a structured monolith: the HTTP API and the scan
// scheduler each implement Service and run under one Supervisor, so
// they start in a known order and stop in reverse on a signal.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"log/slog"
)

// startGrace is how long Run waits for a service to fail fast before
// treating it as started.
const startGrace = 100 * time.Millisecond

// stopTimeout bounds each individual service shutdown.
const stopTimeout = 30 * time.Second

// Service is a startable component of the binary.
type Service interface {
	// Name identifies the service in logs
	Name() string

	// Start runs the service, blocking until ctx is cancelled or
	// startup fails
	Start(ctx context.Context) error

	// Stop shuts the service down within the context deadline
	Stop(ctx context.Context) error

	// Health returns nil while the service is operational
	Health() error
}

// Supervisor runs a set of services as one unit
type Supervisor struct {
	services []Service
	mu       sync.RWMutex
	running  bool
}

// NewSupervisor creates a supervisor. Order matters: services start
// first to last and stop last to first.
func NewSupervisor(services ...Service) *Supervisor {
	return &Supervisor{services: services}
}

// Run starts every service and blocks until ctx is cancelled, then
// stops them in reverse order. A startup failure unwinds the services
// already running before returning.
func (s *Supervisor) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("supervisor already running")
	}
	s.running = true
	s.mu.Unlock()

	var started []Service
	for _, svc := range s.services {
		slog.Info("Starting service", "service", svc.Name())

		errCh := make(chan error, 1)
		go func(service Service) {
			errCh <- service.Start(ctx)
		}(svc)

		// A service that errors within the grace window counts as a
		// startup failure; after that it is considered running.
		select {
		case err := <-errCh:
			if err != nil {
				s.unwind(started)
				return fmt.Errorf("service %s failed to start: %w", svc.Name(), err)
			}
		case <-time.After(startGrace):
		}

		started = append(started, svc)
		slog.Info("Service started", "service", svc.Name())
	}

	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping services")

	s.unwind(started)

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	return nil
}

func (s *Supervisor) unwind(services []Service) {
	for i := len(services) - 1; i >= 0; i-- {
		svc := services[i]
		slog.Info("Stopping service", "service", svc.Name())

		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		if err := svc.Stop(stopCtx); err != nil {
			slog.Error("Service stop error", "service", svc.Name(), "error", err)
		} else {
			slog.Info("Service stopped", "service", svc.Name())
		}
		cancel()
	}
}

// Health is nil only when every supervised service reports healthy
func (s *Supervisor) Health() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, svc := range s.services {
		if err := svc.Health(); err != nil {
			return fmt.Errorf("service %s unhealthy: %w", svc.Name(), err)
		}
	}
	return nil
}

// ServiceFunc lifts a pair of start/stop functions into a Service,
// for goroutine-shaped components like the scan scheduler.
type ServiceFunc struct {
	name     string
	start    func(ctx context.Context) error
	stop     func(ctx context.Context) error
	healthFn func() error
}

// NewServiceFunc builds a ServiceFunc. Health defaults to always
// healthy; override with WithHealth.
func NewServiceFunc(name string, start func(ctx context.Context) error, stop func(ctx context.Context) error) *ServiceFunc {
	return &ServiceFunc{
		name:     name,
		start:    start,
		stop:     stop,
		healthFn: func() error { return nil },
	}
}

func (s *ServiceFunc) Name() string                    { return s.name }
func (s *ServiceFunc) Start(ctx context.Context) error { return s.start(ctx) }
func (s *ServiceFunc) Stop(ctx context.Context) error  { return s.stop(ctx) }
func (s *ServiceFunc) Health() error                   { return s.healthFn() }

// WithHealth swaps in a real health probe
func (s *ServiceFunc) WithHealth(fn func() error) *ServiceFunc {
	s.healthFn = fn
	return s
}
