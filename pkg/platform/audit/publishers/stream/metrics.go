package stream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the transaction stream.
type Metrics struct {
	Enqueued            prometheus.Counter
	Sampled             prometheus.Counter
	Overflowed          prometheus.Counter
	Delivered           prometheus.Counter
	DeliveryFailures    prometheus.Counter
	BreakerDropped      prometheus.Counter
	CircuitBreakerState prometheus.Gauge
}

// NewMetrics registers the stream metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Enqueued: f.NewCounter(prometheus.CounterOpts{
			Name: "epp_gateway_stream_enqueued_total",
			Help: "Transactions accepted for streaming",
		}),
		Sampled: f.NewCounter(prometheus.CounterOpts{
			Name: "epp_gateway_stream_sampled_total",
			Help: "Transactions dropped by sampling",
		}),
		Overflowed: f.NewCounter(prometheus.CounterOpts{
			Name: "epp_gateway_stream_overflow_total",
			Help: "Transactions dropped because the buffer was full",
		}),
		Delivered: f.NewCounter(prometheus.CounterOpts{
			Name: "epp_gateway_stream_delivered_total",
			Help: "Transactions delivered to the sink",
		}),
		DeliveryFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "epp_gateway_stream_delivery_failures_total",
			Help: "Batches the sink rejected",
		}),
		BreakerDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "epp_gateway_stream_breaker_dropped_total",
			Help: "Transactions dropped while the sink breaker was open",
		}),
		CircuitBreakerState: f.NewGauge(prometheus.GaugeOpts{
			Name: "epp_gateway_stream_breaker_state",
			Help: "Sink circuit breaker state (0=closed, 1=open)",
		}),
	}
}

func (m *Metrics) IncEnqueued() {
	if m != nil {
		m.Enqueued.Inc()
	}
}

func (m *Metrics) IncSampled() {
	if m != nil {
		m.Sampled.Inc()
	}
}

func (m *Metrics) IncOverflowed() {
	if m != nil {
		m.Overflowed.Inc()
	}
}

func (m *Metrics) AddDelivered(n int) {
	if m != nil {
		m.Delivered.Add(float64(n))
	}
}

func (m *Metrics) IncDeliveryFailures() {
	if m != nil {
		m.DeliveryFailures.Inc()
	}
}

func (m *Metrics) AddBreakerDropped(n int) {
	if m != nil {
		m.BreakerDropped.Add(float64(n))
	}
}

func (m *Metrics) SetCircuitBreakerState(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CircuitBreakerState.Set(1)
	} else {
		m.CircuitBreakerState.Set(0)
	}
}
