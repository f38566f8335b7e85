package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LedgerOperationsTotal counts ledger operations by operation and outcome.
	// Outcome is "ok" or the rejection code (CONTRACT_PAUSED, ALREADY_LIKED, ...).
	LedgerOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postchain_ledger_operations_total",
		Help: "Total number of ledger operations by operation and outcome",
	}, []string{"operation", "outcome"})

	// LedgerApplyLatency records the latency of applying one ledger operation
	// end to end, including the durable commit.
	LedgerApplyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "postchain_ledger_apply_latency_seconds",
		Help:    "Ledger operation apply latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// LedgerEventsPublished counts event records handed to the notifier.
	LedgerEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postchain_ledger_events_published_total",
		Help: "Total number of ledger events published by type",
	}, []string{"type"})

	// LedgerResyncsTotal counts core-from-store resynchronizations after a
	// failed durable commit.
	LedgerResyncsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postchain_ledger_resyncs_total",
		Help: "Total number of ledger state resynchronizations from the store",
	})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postchain_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// WebSocketConnectionsTotal is the gauge of active event-stream subscribers.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "postchain_websocket_connections_total",
		Help: "Total number of active WebSocket event subscribers",
	})
)

// ObserveApply records the outcome and latency of one ledger operation.
func ObserveApply(operation string, outcome string, start time.Time) {
	LedgerOperationsTotal.WithLabelValues(operation, outcome).Inc()
	LedgerApplyLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
