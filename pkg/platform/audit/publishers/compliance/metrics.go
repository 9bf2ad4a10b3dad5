package compliance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for transaction log writes.
type Metrics struct {
	EventsEmitted   prometheus.Counter
	PersistFailures prometheus.Counter
	PersistDuration prometheus.Histogram
}

// NewMetrics registers the metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EventsEmitted: f.NewCounter(prometheus.CounterOpts{
			Name: "epp_gateway_txlog_events_total",
			Help: "Transactions written to the transaction log",
		}),
		PersistFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "epp_gateway_txlog_persist_failures_total",
			Help: "Transaction log writes that failed",
		}),
		PersistDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "epp_gateway_txlog_persist_duration_seconds",
			Help:    "Transaction log write latency",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncEventsEmitted() {
	if m != nil {
		m.EventsEmitted.Inc()
	}
}

func (m *Metrics) IncPersistFailures() {
	if m != nil {
		m.PersistFailures.Inc()
	}
}

func (m *Metrics) ObservePersistDuration(seconds float64) {
	if m != nil {
		m.PersistDuration.Observe(seconds)
	}
}
