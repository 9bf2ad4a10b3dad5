package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the HTTP surface metrics shared by every route group.
type Metrics struct {
	Requests        *prometheus.CounterVec
	EndpointLatency *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the metrics on reg. Tests pass a fresh
// prometheus.NewRegistry to avoid duplicate registration.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "epp_gateway_http_requests_total",
			Help: "HTTP requests served, by method, route and status",
		}, []string{"method", "route", "status"}),
		EndpointLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "epp_gateway_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
	}
}

// ObserveHTTPRequest records one served request.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.EndpointLatency.WithLabelValues(method, route).Observe(d.Seconds())
}
