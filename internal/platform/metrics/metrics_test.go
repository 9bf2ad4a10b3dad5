package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveHTTPRequest(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())
	m.ObserveHTTPRequest(http.MethodGet, "/v1/domains/{name}", 200, 10*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/v1/domains/{name}", 200, 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "/v1/domains/{name}", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.EndpointLatency))
}

func TestObserveHTTPRequest_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.ObserveHTTPRequest("GET", "/", 200, time.Second) })
}
