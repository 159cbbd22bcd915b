// Package scanner provides the periodic SLA violation scan
package scanner

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.propserve.dev/internal/common/metrics"
	"go.propserve.dev/internal/notification"
	"go.propserve.dev/internal/request"
)

// Warning windows per deadline type. These are fixed spans regardless of
// priority tier: an accept deadline is near-term by nature while a
// completion deadline is worked against for hours, so the pre-alert lead
// grows with the deadline type, not the tier.
const (
	AcceptWarningWindow   = 15 * time.Minute
	ArriveWarningWindow   = 30 * time.Minute
	CompleteWarningWindow = 120 * time.Minute
)

// Config holds scanner configuration
type Config struct {
	// Concurrency bounds how many requests are evaluated in parallel
	Concurrency int

	// AlertChannels are the best-effort channels for SLA alerts;
	// in-app is always included by the dispatcher.
	AlertChannels []notification.Channel
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Concurrency:   8,
		AlertChannels: []notification.Channel{notification.ChannelEmail, notification.ChannelSMS},
	}
}

// Result summarizes one scan
type Result struct {
	Warnings   int `json:"warnings"`
	Violations int `json:"violations"`
}

// classification is the outcome of evaluating one request against "now"
type classification struct {
	eventType    notification.EventType
	bucket       string
	deadlineType request.DeadlineType
	deadline     time.Time
}

// Scanner re-evaluates open requests against their live deadlines.
//
// Scan is a pure on-demand operation: it holds no timer, is safe to invoke
// repeatedly and concurrently, and derives its idempotency entirely from
// the delivery log's unique (dedupeKey, channel) index. Request rows are
// read-only to the scanner.
type Scanner struct {
	requests   request.Repository
	deliveries notification.Repository
	dispatcher *notification.Dispatcher
	config     *Config
}

// New creates a scanner
func New(requests request.Repository, deliveries notification.Repository, dispatcher *notification.Dispatcher, config *Config) *Scanner {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	return &Scanner{
		requests:   requests,
		deliveries: deliveries,
		dispatcher: dispatcher,
		config:     config,
	}
}

// Scan evaluates all SLA-relevant requests against now and dispatches a
// notification for each newly-crossed threshold. The returned counts
// reflect classification, not dispatch: a re-run over unchanged state
// reports the same counts while the delivery log suppresses repeat sends.
func (s *Scanner) Scan(ctx context.Context, now time.Time) (Result, error) {
	start := time.Now()

	active, err := s.requests.FindActive(ctx)
	if err != nil {
		metrics.ScansTotal.WithLabelValues("error").Inc()
		return Result{}, err
	}

	var warnings, violations atomic.Int64
	sem := make(chan struct{}, s.config.Concurrency)
	var wg sync.WaitGroup

	for _, req := range active {
		wg.Add(1)
		sem <- struct{}{}
		go func(req *request.Request) {
			defer wg.Done()
			defer func() { <-sem }()

			metrics.ScanRequestsEvaluated.Inc()

			cls, ok := classify(req, now)
			if !ok {
				return
			}
			switch cls.bucket {
			case notification.BucketWarning:
				warnings.Add(1)
			case notification.BucketViolation:
				violations.Add(1)
			}
			metrics.ScanClassifications.WithLabelValues(cls.bucket, string(cls.deadlineType)).Inc()

			s.dispatch(ctx, req, cls)
		}(req)
	}
	wg.Wait()

	metrics.ScansTotal.WithLabelValues("success").Inc()
	metrics.ScanDuration.Observe(time.Since(start).Seconds())

	result := Result{
		Warnings:   int(warnings.Load()),
		Violations: int(violations.Load()),
	}

	slog.Info("Violation scan complete",
		"evaluated", len(active),
		"warnings", result.Warnings,
		"violations", result.Violations,
		"duration_ms", time.Since(start).Milliseconds())

	return result, nil
}

// classify compares a request's live deadline against now.
// Terminal statuses have no live deadline and are never classified, no
// matter how far past their timestamps now is.
func classify(req *request.Request, now time.Time) (classification, bool) {
	deadlineType, deadline, ok := req.LiveDeadline()
	if !ok {
		return classification{}, false
	}

	remaining := deadline.Sub(now)
	if remaining < 0 {
		return classification{
			eventType:    notification.EventSLAViolation,
			bucket:       notification.BucketViolation,
			deadlineType: deadlineType,
			deadline:     deadline,
		}, true
	}
	if remaining <= warningWindow(deadlineType) {
		return classification{
			eventType:    notification.EventSLAWarning,
			bucket:       notification.BucketWarning,
			deadlineType: deadlineType,
			deadline:     deadline,
		}, true
	}
	return classification{}, false
}

// warningWindow returns the fixed pre-deadline window for a deadline type
func warningWindow(t request.DeadlineType) time.Duration {
	switch t {
	case request.DeadlineAccept:
		return AcceptWarningWindow
	case request.DeadlineArrive:
		return ArriveWarningWindow
	default:
		return CompleteWarningWindow
	}
}

// dispatch emits the notification for a classified request unless the
// delivery log shows the threshold was already handled. The in-app channel
// is attempted on every dispatch, so its record is the existence probe; a
// racing scan that slips past the probe is still caught by the unique
// index when it tries to claim.
func (s *Scanner) dispatch(ctx context.Context, req *request.Request, cls classification) {
	dedupeKey := notification.ScanDedupeKey(req.ID, string(cls.deadlineType), cls.bucket)

	exists, err := s.deliveries.HasDelivery(ctx, dedupeKey, notification.ChannelInApp)
	if err != nil {
		// Store trouble for this request only; the rest of the batch
		// proceeds and the next scan retries this key.
		slog.Warn("Skipping request after delivery log lookup failed",
			"error", err,
			"requestId", req.ID,
			"dedupeKey", dedupeKey)
		return
	}
	if exists {
		return
	}

	recipient := req.Recipient()
	deadline := cls.deadline
	event := &notification.Event{
		Type:      cls.eventType,
		RequestID: req.ID,
		Recipient: notification.Recipient{
			ID:    recipient.ID,
			Name:  recipient.Name,
			Email: recipient.Email,
			Phone: recipient.Phone,
		},
		Channels:  s.config.AlertChannels,
		DedupeKey: dedupeKey,
		Payload: notification.Payload{
			RequestTitle: req.Title,
			DeadlineType: string(cls.deadlineType),
			Deadline:     &deadline,
		},
	}

	if _, err := s.dispatcher.Notify(ctx, event); err != nil {
		slog.Error("SLA alert dispatch failed",
			"error", err,
			"requestId", req.ID,
			"dedupeKey", dedupeKey)
	}
}
