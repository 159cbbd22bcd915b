package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	opDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "propserve",
			Subsystem: "db",
			Name:      "operation_duration_seconds",
			Help:      "Database operation duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"collection", "operation"},
	)

	opTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "propserve",
			Subsystem: "db",
			Name:      "operations_total",
			Help:      "Total database operations",
		},
		[]string{"collection", "operation", "result"},
	)

	opErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "propserve",
			Subsystem: "db",
			Name:      "operation_errors_total",
			Help:      "Database operation errors by type",
		},
		[]string{"collection", "operation", "error_type"},
	)
)

// SlowQueryThreshold is where an operation earns a warn log
const SlowQueryThreshold = 100 * time.Millisecond

// Instrument runs one repository operation with duration and outcome
// metrics plus slow-query logging. The request and notification
// repositories wrap every store call through here.
func Instrument[T any](
	ctx context.Context,
	collection string,
	operation string,
	fn func() (T, error),
) (T, error) {
	start := time.Now()
	result, err := fn()
	duration := time.Since(start)

	opDuration.WithLabelValues(collection, operation).Observe(duration.Seconds())

	if err != nil {
		opTotal.WithLabelValues(collection, operation, "error").Inc()
		opErrors.WithLabelValues(collection, operation, classifyError(err)).Inc()

		// Duplicate keys are an expected control-flow signal for the
		// delivery log, not a store failure worth an error line.
		if errors.Is(err, ErrDuplicateKey) || errors.Is(err, ErrNotFound) {
			slog.Debug("Database operation returned sentinel",
				"collection", collection,
				"operation", operation,
				"error", err)
		} else {
			slog.Error("Database operation failed",
				"collection", collection,
				"operation", operation,
				"duration_ms", duration.Milliseconds(),
				"error", err)
		}
	} else {
		opTotal.WithLabelValues(collection, operation, "success").Inc()

		if duration > SlowQueryThreshold {
			slog.Warn("Slow database operation",
				"collection", collection,
				"operation", operation,
				"duration_ms", duration.Milliseconds())
		}
	}

	return result, err
}

// InstrumentVoid wraps a repository operation that returns only an error.
func InstrumentVoid(
	ctx context.Context,
	collection string,
	operation string,
	fn func() error,
) error {
	_, err := Instrument(ctx, collection, operation, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// classifyError returns a label-safe error type for metrics
func classifyError(err error) string {
	if errors.Is(err, ErrNotFound) {
		return "not_found"
	}
	if errors.Is(err, ErrDuplicateKey) {
		return "duplicate_key"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	return "internal"
}
