package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers registrar operations on top of the client's wire metrics.
type Metrics struct {
	Operations       *prometheus.CounterVec
	OperationLatency *prometheus.HistogramVec
	CheckCache       *prometheus.CounterVec
	RecordFailures   prometheus.Counter
}

// NewMetrics registers the registrar metrics with reg, or the default
// registry when reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "epp_gateway_registrar_operations_total",
			Help: "Registrar operations by command and outcome",
		}, []string{"command", "outcome"}),

		OperationLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "epp_gateway_registrar_operation_duration_seconds",
			Help:    "Time to complete a registrar operation",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"command"}),

		CheckCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "epp_gateway_check_cache_total",
			Help: "Availability lookups answered from the cache (hit) or the registry (miss)",
		}, []string{"object_type", "result"}),

		RecordFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "epp_gateway_transaction_record_failures_total",
			Help: "Transactions that could not be recorded",
		}),
	}
}

func (m *Metrics) ObserveOperation(command, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(command, outcome).Inc()
	m.OperationLatency.WithLabelValues(command).Observe(d.Seconds())
}

func (m *Metrics) AddCacheHits(objType string, n int) {
	if m != nil && n > 0 {
		m.CheckCache.WithLabelValues(objType, "hit").Add(float64(n))
	}
}

func (m *Metrics) AddCacheMisses(objType string, n int) {
	if m != nil && n > 0 {
		m.CheckCache.WithLabelValues(objType, "miss").Add(float64(n))
	}
}

func (m *Metrics) IncRecordFailures() {
	if m != nil {
		m.RecordFailures.Inc()
	}
}
