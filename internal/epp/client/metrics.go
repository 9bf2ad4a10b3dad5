package client

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for EPP exchanges.
type Metrics struct {
	Commands       *prometheus.CounterVec
	CommandLatency *prometheus.HistogramVec
	BreakerOpen    prometheus.Gauge
	Rejected       prometheus.Counter
}

// NewMetrics registers the client metrics with the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		Commands: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "epp_gateway_commands_total",
			Help: "EPP commands sent by verb and outcome",
		}, []string{"verb", "outcome"}), // outcome: result code, "transport_error" or "codec_error"

		CommandLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "epp_gateway_command_duration_seconds",
			Help:    "Round trip time of EPP commands including session checkout",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"verb"}),

		BreakerOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "epp_gateway_breaker_open",
			Help: "1 while the registry circuit breaker is open",
		}),

		Rejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "epp_gateway_commands_rejected_total",
			Help: "Commands failed fast because the circuit breaker was open",
		}),
	}
}

// ObserveCommand records one command outcome and its latency.
func (m *Metrics) ObserveCommand(verb, outcome string, d time.Duration) {
	if m != nil {
		m.Commands.WithLabelValues(verb, outcome).Inc()
		m.CommandLatency.WithLabelValues(verb).Observe(d.Seconds())
	}
}

// SetBreakerOpen records the breaker state.
func (m *Metrics) SetBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.BreakerOpen.Set(1)
	} else {
		m.BreakerOpen.Set(0)
	}
}

// IncrementRejected counts a fail-fast rejection.
func (m *Metrics) IncrementRejected() {
	if m != nil {
		m.Rejected.Inc()
	}
}
