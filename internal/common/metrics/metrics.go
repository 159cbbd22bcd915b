package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Scanner metrics

	// ScansTotal counts scan invocations
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "propserve",
			Subsystem: "scan",
			Name:      "runs_total",
			Help:      "Total violation scan invocations",
		},
		[]string{"result"}, // result: success, error
	)

	// ScanDuration tracks scan duration
	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "propserve",
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Time to complete one violation scan",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// ScanRequestsEvaluated counts requests evaluated by the scanner
	ScanRequestsEvaluated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "propserve",
			Subsystem: "scan",
			Name:      "requests_evaluated_total",
			Help:      "Total requests evaluated across all scans",
		},
	)

	// ScanClassifications counts warning/violation classifications
	ScanClassifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "propserve",
			Subsystem: "scan",
			Name:      "classifications_total",
			Help:      "SLA threshold classifications by kind and deadline type",
		},
		[]string{"kind", "deadline"}, // kind: warning, violation
	)

	// Dispatch metrics

	// DispatchDeliveries counts channel delivery attempts by result
	DispatchDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "propserve",
			Subsystem: "dispatch",
			Name:      "deliveries_total",
			Help:      "Channel delivery attempts by channel and result",
		},
		[]string{"channel", "result"}, // result: success, failed, skipped
	)

	// DispatchDuration tracks per-channel delivery duration
	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "propserve",
			Subsystem: "dispatch",
			Name:      "delivery_duration_seconds",
			Help:      "Time to deliver a notification on one channel",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"channel"},
	)

	// DispatchDedupeSkips counts sends suppressed by the delivery log
	DispatchDedupeSkips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "propserve",
			Subsystem: "dispatch",
			Name:      "dedupe_skips_total",
			Help:      "Deliveries suppressed by an existing delivery record",
		},
		[]string{"channel"},
	)

	// Scheduler metrics

	// SchedulerTicks counts scheduler-triggered scans
	SchedulerTicks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "propserve",
			Subsystem: "scheduler",
			Name:      "ticks_total",
			Help:      "Scan cadence ticks fired by the scheduler",
		},
	)

	// SchedulerIsLeader indicates whether this instance drives the cadence
	SchedulerIsLeader = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "propserve",
			Subsystem: "scheduler",
			Name:      "is_leader",
			Help:      "1 when this instance holds the scan scheduler lease",
		},
	)
)
