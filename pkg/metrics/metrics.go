package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Ticket lifecycle metrics
	TransitionsTotal     *prometheus.CounterVec
	DuplicatesSuppressed prometheus.Counter
	DevicesRegistered    prometheus.Counter

	// Notification metrics
	NotificationsSent   *prometheus.CounterVec
	NotificationsFailed *prometheus.CounterVec
	DispatchLatency     prometheus.Histogram

	// Outbox related metrics
	OutboxEventsProcessed   prometheus.Counter
	OutboxEventsFailed      prometheus.Counter
	OutboxProcessingLatency prometheus.Histogram

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
	DatabaseLatency    *prometheus.HistogramVec
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace, subsystem string) *Metrics {
	return &Metrics{
		TransitionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "status_transitions_total",
			Help:      "Total number of applied device status transitions",
		}, []string{"status"}),
		DuplicatesSuppressed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "duplicate_updates_suppressed_total",
			Help:      "Total number of status updates suppressed as duplicates",
		}),
		DevicesRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "devices_registered_total",
			Help:      "Total number of devices registered",
		}),

		NotificationsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "notifications_sent_total",
			Help:      "Total number of customer notifications delivered to the provider",
		}, []string{"channel"}),
		NotificationsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "notifications_failed_total",
			Help:      "Total number of failed notification dispatches",
		}, []string{"channel"}),
		DispatchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "notification_dispatch_duration_seconds",
			Help:      "Time spent dispatching a notification to the provider",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}),

		OutboxEventsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_events_processed_total",
			Help:      "Total number of successfully processed outbox events",
		}),
		OutboxEventsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_events_failed_total",
			Help:      "Total number of failed outbox events",
		}),
		OutboxProcessingLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_processing_duration_seconds",
			Help:      "Time spent processing outbox events",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),

		DatabaseOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
		DatabaseLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_operation_duration_seconds",
			Help:      "Duration of database operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
	}
}
