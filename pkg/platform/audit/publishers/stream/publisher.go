// Package stream buffers transactions for asynchronous delivery to a sink
// such as Kafka. Emit never blocks; when the buffer is full the oldest
// events are dropped.
package stream

import (
	"context"

	audit "epp-gateway/pkg/platform/audit"
)

// Publisher enqueues transactions into a RingBuffer drained by a worker.
type Publisher struct {
	buf     *RingBuffer
	sampler *Sampler
	metrics *Metrics
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithSampler samples operations-category events. Compliance and security
// events are always kept.
func WithSampler(s *Sampler) Option {
	return func(p *Publisher) {
		p.sampler = s
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// New creates a publisher over buf.
func New(buf *RingBuffer, opts ...Option) *Publisher {
	p := &Publisher{buf: buf}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) Emit(_ context.Context, event audit.Event) error {
	if p.sampler != nil && event.Category == audit.CategoryOperations && !p.sampler.ShouldSample(event.Command) {
		p.metrics.IncSampled()
		return nil
	}
	if p.buf.Enqueue(event) {
		p.metrics.IncOverflowed()
	}
	p.metrics.IncEnqueued()
	return nil
}

// Buffer returns the buffer the publisher fills.
func (p *Publisher) Buffer() *RingBuffer { return p.buf }
