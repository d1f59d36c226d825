// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Program metrics
	InstructionsTotal  *prometheus.CounterVec
	InstructionLatency *prometheus.HistogramVec
	TokensMinted       *prometheus.CounterVec
	LamportsReceived   *prometheus.CounterVec
	LamportsWithdrawn  prometheus.Counter

	// Notification metrics
	NotificationsPublished *prometheus.CounterVec
	NotificationErrors     *prometheus.CounterVec
	StreamSubscribers      prometheus.Gauge

	// Ledger metrics
	CurrentSlot prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "blog_pass"
	}

	return &Metrics{
		InstructionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "program",
			Name:      "instructions_total",
			Help:      "Total number of executed instructions by name and result",
		}, []string{"instruction", "result"}),
		InstructionLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "program",
			Name:      "instruction_latency_seconds",
			Help:      "Instruction execution latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"instruction"}),
		TokensMinted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "program",
			Name:      "tokens_minted_total",
			Help:      "Total number of membership tokens minted by class",
		}, []string{"class"}),
		LamportsReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "treasury",
			Name:      "lamports_received_total",
			Help:      "Total lamports received by source (donation, premium)",
		}, []string{"source"}),
		LamportsWithdrawn: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "treasury",
			Name:      "lamports_withdrawn_total",
			Help:      "Total lamports withdrawn",
		}),

		NotificationsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "notifications_published_total",
			Help:      "Total number of notifications published by kind",
		}, []string{"kind"}),
		NotificationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "notification_errors_total",
			Help:      "Total number of notification sink errors by sink",
		}, []string{"sink"}),
		StreamSubscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "stream_subscribers",
			Help:      "Current number of websocket stream subscribers",
		}),

		CurrentSlot: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "slot",
			Help:      "Slot of the last committed transaction",
		}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordInstruction records an executed instruction.
func RecordInstruction(instruction, result string, seconds float64) {
	DefaultMetrics.InstructionsTotal.WithLabelValues(instruction, result).Inc()
	DefaultMetrics.InstructionLatency.WithLabelValues(instruction).Observe(seconds)
}

// RecordMint increments the minted tokens counter for a class.
func RecordMint(class string) {
	DefaultMetrics.TokensMinted.WithLabelValues(class).Inc()
}

// RecordReceived adds received lamports for a source.
func RecordReceived(source string, lamports uint64) {
	DefaultMetrics.LamportsReceived.WithLabelValues(source).Add(float64(lamports))
}

// RecordWithdrawn adds withdrawn lamports.
func RecordWithdrawn(lamports uint64) {
	DefaultMetrics.LamportsWithdrawn.Add(float64(lamports))
}

// RecordNotification increments the published notifications counter.
func RecordNotification(kind string) {
	DefaultMetrics.NotificationsPublished.WithLabelValues(kind).Inc()
}

// RecordNotificationError increments the sink error counter.
func RecordNotificationError(sink string) {
	DefaultMetrics.NotificationErrors.WithLabelValues(sink).Inc()
}

// UpdateSubscribers sets the websocket subscriber gauge.
func UpdateSubscribers(n int) {
	DefaultMetrics.StreamSubscribers.Set(float64(n))
}

// UpdateSlot sets the current slot gauge.
func UpdateSlot(slot uint64) {
	DefaultMetrics.CurrentSlot.Set(float64(slot))
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
