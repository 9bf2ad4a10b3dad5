// Package client sends EPP commands over pooled, logged-in sessions.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"epp-gateway/internal/epp/protocol"
	"epp-gateway/pkg/platform/circuit"
	"epp-gateway/pkg/platform/sentinel"
)

// Client sends commands through a session pool guarded by a circuit breaker.
type Client struct {
	pool     *Pool
	breaker  *circuit.Breaker
	logger   *slog.Logger
	metrics  *Metrics
	trPrefix string
	newID    func() string
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		if b != nil {
			c.breaker = b
		}
	}
}

// WithTRIDPrefix prefixes generated client transaction ids.
func WithTRIDPrefix(prefix string) Option {
	return func(c *Client) {
		c.trPrefix = prefix
	}
}

// New returns a Client over pool.
func New(pool *Pool, opts ...Option) *Client {
	c := &Client{
		pool:    pool,
		breaker: circuit.New("epp"),
		logger:  slog.Default(),
		newID:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Pool returns the underlying session pool.
func (c *Client) Pool() *Pool { return c.pool }

// Do sends cmd, assigning a client transaction id when it has none. A failed
// EPP result is returned as a response, not an error; callers inspect
// resp.Err(). Transport failures destroy the session and count against the
// breaker. While the breaker is open Do fails fast with sentinel.ErrUnavailable.
func (c *Client) Do(ctx context.Context, cmd *protocol.Command) (*protocol.Response, error) {
	verb := string(cmd.Verb)
	if !c.breaker.Allow() {
		c.metrics.IncrementRejected()
		return nil, fmt.Errorf("epp %s: %w", verb, sentinel.ErrUnavailable)
	}
	if cmd.ClTRID == "" {
		cmd.ClTRID = c.trPrefix + c.newID()
	}
	start := time.Now()

	ps, err := c.pool.Acquire(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("acquire session: %w", ctx.Err())
		}
		c.recordFailure(ctx, err)
		c.metrics.ObserveCommand(verb, "transport_error", time.Since(start))
		return nil, fmt.Errorf("acquire session: %w: %w", sentinel.ErrUnavailable, err)
	}

	resp, err := ps.Session().Send(ctx, cmd)
	if ps.Session().Broken() {
		ps.Destroy()
		c.metrics.ObserveCommand(verb, "transport_error", time.Since(start))
		if ctx.Err() != nil {
			return nil, err
		}
		c.recordFailure(ctx, err)
		return nil, fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
	}
	ps.Release()
	if err != nil {
		c.metrics.ObserveCommand(verb, "codec_error", time.Since(start))
		return nil, err
	}

	c.recordSuccess(ctx)
	c.metrics.ObserveCommand(verb, strconv.Itoa(int(resp.Code())), time.Since(start))
	c.logger.DebugContext(ctx, "epp command completed",
		"verb", verb,
		"cl_trid", resp.TrID.ClTRID,
		"sv_trid", resp.TrID.SvTRID,
		"code", int(resp.Code()),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

func (c *Client) recordFailure(ctx context.Context, err error) {
	_, change := c.breaker.RecordFailure()
	if change.Opened {
		c.metrics.SetBreakerOpen(true)
		c.logger.WarnContext(ctx, "epp circuit breaker opened", "breaker", c.breaker.Name(), "error", err)
	}
}

func (c *Client) recordSuccess(ctx context.Context) {
	_, change := c.breaker.RecordSuccess()
	if change.Closed {
		c.metrics.SetBreakerOpen(false)
		c.logger.InfoContext(ctx, "epp circuit breaker closed", "breaker", c.breaker.Name())
	}
}

// Close closes every pooled session.
func (c *Client) Close() {
	c.pool.Close()
}
