package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		broadcastDeliveriesTotal,
		broadcastsTotal,
		broadcastDuration,
	)
}

var (
	broadcastDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_deliveries_total",
			Help: "Per-recipient broadcast delivery attempts by kind and status.",
		},
		[]string{"kind", "status"}, // kind: 'text', 'document', 'photo'; status: 'sent', 'failed'
	)

	broadcastsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcasts_total",
			Help: "Broadcast conversations by outcome.",
		},
		[]string{"outcome"}, // 'completed', 'cancelled', 'aborted'
	)

	broadcastDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "broadcast_duration_seconds",
			Help:    "Wall time of a full broadcast pass in seconds.",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
	)
)

func IncBroadcastDelivery(kind, status string) {
	broadcastDeliveriesTotal.WithLabelValues(norm(kind), norm(status)).Inc()
}

func IncBroadcast(outcome string) {
	broadcastsTotal.WithLabelValues(norm(outcome)).Inc()
}

func ObserveBroadcastDuration(seconds float64) {
	broadcastDuration.Observe(seconds)
}
