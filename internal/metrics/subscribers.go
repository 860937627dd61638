package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		subscriptionChangesTotal,
		subscribersTotal,
	)
}

var (
	subscriptionChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_changes_total",
			Help: "Subscribe and unsubscribe requests by action and result.",
		},
		[]string{"action", "result"}, // action: 'subscribe', 'unsubscribe'; result: 'applied', 'noop', 'error'
	)

	subscribersTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "subscribers_total",
			Help: "Number of stored subscribers at the last statistics snapshot.",
		},
	)
)

func IncSubscriptionChange(action, result string) {
	subscriptionChangesTotal.WithLabelValues(norm(action), norm(result)).Inc()
}

func SetSubscribersTotal(count int) {
	subscribersTotal.Set(float64(count))
}
