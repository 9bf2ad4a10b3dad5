// Package worker drains buffered transactions to a sink in batches.
package worker

import (
	"context"
	"log/slog"
	"time"

	audit "epp-gateway/pkg/platform/audit"
	"epp-gateway/pkg/platform/circuit"
)

// Source yields buffered events.
type Source interface {
	DequeueBatch(n int) []audit.Event
	Len() int
}

// Sink delivers a batch of events.
type Sink interface {
	Write(ctx context.Context, events []audit.Event) error
}

// Metrics observed by the worker. Implemented by stream.Metrics.
type Metrics interface {
	AddDelivered(n int)
	IncDeliveryFailures()
	AddBreakerDropped(n int)
	SetCircuitBreakerState(open bool)
}

// Worker moves events from a Source to a Sink. A breaker stops delivery
// attempts while the sink is failing; events drained during that time are
// dropped.
type Worker struct {
	source   Source
	sink     Sink
	breaker  *circuit.Breaker
	logger   *slog.Logger
	metrics  Metrics
	interval time.Duration
	batch    int
	timeout  time.Duration
}

// Option configures the Worker.
type Option func(*Worker)

func WithInterval(d time.Duration) Option { return func(w *Worker) { w.interval = d } }
func WithBatchSize(n int) Option         { return func(w *Worker) { w.batch = n } }
func WithBreaker(b *circuit.Breaker) Option {
	return func(w *Worker) { w.breaker = b }
}
func WithLogger(l *slog.Logger) Option { return func(w *Worker) { w.logger = l } }
func WithMetrics(m Metrics) Option     { return func(w *Worker) { w.metrics = m } }

func NewWorker(source Source, sink Sink, opts ...Option) *Worker {
	w := &Worker{
		source:   source,
		sink:     sink,
		breaker:  circuit.New("audit-stream", circuit.WithCooldown(30*time.Second)),
		logger:   slog.New(slog.DiscardHandler),
		interval: time.Second,
		batch:    500,
		timeout:  10 * time.Second,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run flushes every interval until ctx is done, then makes a final flush
// bounded by the write timeout.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.timeout)
			w.Flush(final)
			cancel()
			return nil
		case <-ticker.C:
			w.Flush(ctx)
		}
	}
}

// Flush drains the source in batches until it is empty or a write fails.
// While the breaker is open the source is drained and the events dropped.
func (w *Worker) Flush(ctx context.Context) {
	for w.source.Len() > 0 {
		events := w.source.DequeueBatch(w.batch)
		if len(events) == 0 {
			return
		}
		if !w.deliver(ctx, events) {
			return
		}
	}
}

func (w *Worker) deliver(ctx context.Context, events []audit.Event) bool {
	if !w.breaker.Allow() {
		w.addBreakerDropped(len(events))
		return true
	}
	wctx, cancel := context.WithTimeout(ctx, w.timeout)
	err := w.sink.Write(wctx, events)
	cancel()
	if err != nil {
		_, change := w.breaker.RecordFailure()
		if change.Opened {
			w.logger.WarnContext(ctx, "transaction stream breaker opened", "breaker", w.breaker.Name())
			w.setBreakerState(true)
		}
		w.logger.ErrorContext(ctx, "transaction stream delivery failed",
			"events", len(events),
			"error", err,
		)
		if w.metrics != nil {
			w.metrics.IncDeliveryFailures()
		}
		return false
	}
	if _, change := w.breaker.RecordSuccess(); change.Closed {
		w.logger.InfoContext(ctx, "transaction stream breaker closed", "breaker", w.breaker.Name())
		w.setBreakerState(false)
	}
	if w.metrics != nil {
		w.metrics.AddDelivered(len(events))
	}
	return true
}

func (w *Worker) addBreakerDropped(n int) {
	if w.metrics != nil {
		w.metrics.AddBreakerDropped(n)
	}
}

func (w *Worker) setBreakerState(open bool) {
	if w.metrics != nil {
		w.metrics.SetCircuitBreakerState(open)
	}
}
