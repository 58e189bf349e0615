package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	rpcRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invenbook",
			Name:      "rpc_requests_total",
			Help:      "RPC requests by service, method and result code.",
		},
		[]string{"service", "method", "code"},
	)

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invenbook",
			Name:      "booking_transitions_total",
			Help:      "Booking status transitions applied.",
		},
		[]string{"status"},
	)

	notificationsPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "invenbook",
			Name:      "notifications_published_total",
			Help:      "Notifications fanned out over pub/sub.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(rpcRequests, bookingTransitions, notificationsPublished)
	})
}

// IncRPC increments the request counter for a (service, method, code) triple.
func IncRPC(service, method, code string) {
	rpcRequests.WithLabelValues(service, method, code).Inc()
}

// IncTransition increments the counter for a booking status transition.
func IncTransition(status string) {
	bookingTransitions.WithLabelValues(status).Inc()
}

// IncNotificationPublished counts one successful pub/sub fan-out.
func IncNotificationPublished() {
	notificationsPublished.Inc()
}
