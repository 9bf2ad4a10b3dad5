// Package compliance writes state-changing EPP transactions to the
// transaction log synchronously.
//
// The registry has already committed the command by the time the event is
// emitted, so a persistence failure is reported to the caller and counted but
// cannot undo the transaction.
package compliance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	audit "epp-gateway/pkg/platform/audit"
)

// Publisher persists transactions to an audit.Store before returning.
type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
	all     bool
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithAllCategories persists queries and refused commands as well.
func WithAllCategories() Option {
	return func(p *Publisher) {
		p.all = true
	}
}

// New creates a compliance publisher.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store: store,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit writes the event to the store. Events outside the compliance category
// are skipped unless WithAllCategories was given.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if !p.all && event.Category != audit.CategoryCompliance {
		return nil
	}
	if event.Command == "" {
		return errors.New("transaction event requires Command")
	}
	start := time.Now()

	if err := p.store.Append(ctx, event); err != nil {
		p.metrics.IncPersistFailures()
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "transaction log write failed",
				"command", event.Command,
				"object_id", event.ObjectID,
				"cltrid", event.ClTRID,
				"svtrid", event.SvTRID,
				"error", err,
			)
		}
		return fmt.Errorf("transaction log persistence failed: %w", err)
	}

	p.metrics.ObservePersistDuration(time.Since(start).Seconds())
	p.metrics.IncEventsEmitted()
	return nil
}

// Close is a no-op for the synchronous compliance publisher.
func (p *Publisher) Close() error {
	return nil
}
