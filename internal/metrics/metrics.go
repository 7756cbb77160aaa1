package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// IssueSubmissionsTotal counts submissions by outcome.
	IssueSubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sahayak",
		Subsystem: "issue",
		Name:      "submissions_total",
		Help:      "Total number of issue submissions, labeled by result (ok, storage_error, classification_error, error).",
	}, []string{"result"})

	// IssueTransitionsTotal counts lifecycle operations by operation and outcome.
	IssueTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sahayak",
		Subsystem: "issue",
		Name:      "transitions_total",
		Help:      "Total number of lifecycle operations, labeled by op (accept, responder_resolve, resolve) and result.",
	}, []string{"op", "result"})

	// NotificationsTotal counts per-recipient delivery outcomes.
	NotificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sahayak",
		Name:      "notifications_total",
		Help:      "Total number of push notifications, labeled by result (sent, failed).",
	}, []string{"result"})

	// FanoutRecipients observes how many nearby users a new issue reached.
	FanoutRecipients = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sahayak",
		Name:      "fanout_recipients",
		Help:      "Number of recipients notified for a newly submitted issue.",
		Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 500},
	})

	// HTTPRequestDurationSeconds is request latency per route.
	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sahayak",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency, labeled by method, route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Register registers metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			IssueSubmissionsTotal,
			IssueTransitionsTotal,
			NotificationsTotal,
			FanoutRecipients,
			HTTPRequestDurationSeconds,
		)
	})
}

// RegisterWebsocketClients exposes the live connection count read from fn.
func RegisterWebsocketClients(fn func() float64) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "sahayak",
		Subsystem: "websocket",
		Name:      "clients",
		Help:      "Number of connected websocket clients.",
	}, fn))
}
