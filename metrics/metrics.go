package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service collectors. Each instance registers on its own
// registry so tests can build as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	EmailsSent    *prometheus.CounterVec
	EmailsFailed  *prometheus.CounterVec
	OrdersCreated prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		EmailsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "email_sweep_sent_total",
			Help: "Emails sent by the sweep, by kind.",
		}, []string{"kind"}),
		EmailsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "email_sweep_failed_total",
			Help: "Email sends that failed, by kind.",
		}, []string{"kind"}),
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders placed.",
		}),
	}
	m.Registry.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.EmailsSent,
		m.EmailsFailed,
		m.OrdersCreated,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}
