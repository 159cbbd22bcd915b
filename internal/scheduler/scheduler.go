// Package scheduler drives the recurring SLA violation scan
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.propserve.dev/internal/common/leader"
	"go.propserve.dev/internal/common/metrics"
	"go.propserve.dev/internal/scanner"
)

// Config holds scan scheduler configuration
type Config struct {
	// Interval is how often to trigger a scan
	Interval time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Interval: 5 * time.Minute,
	}
}

// Scheduler triggers scanner.Scan on a fixed cadence.
//
// The scan itself stays an on-demand, timerless operation; the scheduler
// is just its external caller. With leader election enabled only the
// lease holder fires ticks, but an occasional double fire from a lease
// handover is harmless: dedupe lives in the delivery log's unique index,
// not in the cadence.
type Scheduler struct {
	scanner *scanner.Scanner
	elector leader.Elector
	config  *Config

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	running   bool
	runningMu sync.Mutex
}

// New creates a scan scheduler
func New(sc *scanner.Scanner, elector leader.Elector, config *Config) *Scheduler {
	if config == nil {
		config = DefaultConfig()
	}
	if elector == nil {
		elector = leader.NewStaticElector()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		scanner: sc,
		elector: elector,
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins the scan cadence
func (s *Scheduler) Start() {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()
	if s.running {
		return
	}
	s.running = true

	if err := s.elector.Start(); err != nil {
		slog.Error("Failed to start leader election", "error", err)
	}

	s.wg.Add(1)
	go s.loop()

	slog.Info("Scan scheduler started", "interval", s.config.Interval)
}

// Stop halts the cadence and waits for an in-flight scan to finish
func (s *Scheduler) Stop() {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()
	if !s.running {
		return
	}
	s.running = false

	s.cancel()
	s.wg.Wait()
	s.elector.Stop()

	slog.Info("Scan scheduler stopped")
}

// IsRunning reports whether the cadence loop is active
func (s *Scheduler) IsRunning() bool {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()
	return s.running
}

// IsLeader reports whether this instance currently holds the scan lease
func (s *Scheduler) IsLeader() bool {
	return s.elector.IsPrimary()
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	if s.elector.IsPrimary() {
		metrics.SchedulerIsLeader.Set(1)
	} else {
		metrics.SchedulerIsLeader.Set(0)
		return
	}

	metrics.SchedulerTicks.Inc()

	result, err := s.scanner.Scan(s.ctx, time.Now())
	if err != nil {
		slog.Error("Scheduled scan failed", "error", err)
		return
	}

	if result.Warnings > 0 || result.Violations > 0 {
		slog.Info("Scheduled scan found SLA thresholds crossed",
			"warnings", result.Warnings,
			"violations", result.Violations)
	}
}
