package client

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/puddle/v2"
)

// Opener creates a logged-in session.
type Opener func(ctx context.Context) (*Session, error)

// PoolConfig sizes the session pool.
type PoolConfig struct {
	MaxSessions    int32
	ConnectTimeout time.Duration
	KeepAlive      time.Duration
}

// Pool keeps logged-in sessions for reuse.
type Pool struct {
	p         *puddle.Pool[*Session]
	keepAlive time.Duration
	logger    *slog.Logger
}

// PooledSession is a session borrowed from a Pool. Exactly one of Release or
// Destroy must be called.
type PooledSession struct {
	res *puddle.Resource[*Session]
}

// Session returns the borrowed session.
func (p *PooledSession) Session() *Session { return p.res.Value() }

// Release returns the session to the pool, destroying it when it can no
// longer carry commands.
func (p *PooledSession) Release() {
	if !p.res.Value().Usable() {
		p.res.Destroy()
		return
	}
	p.res.Release()
}

// Destroy closes the session and removes it from the pool.
func (p *PooledSession) Destroy() { p.res.Destroy() }

// NewPool returns a pool that opens sessions on demand.
func NewPool(cfg PoolConfig, open Opener, logger *slog.Logger) (*Pool, error) {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 1
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	p, err := puddle.NewPool(&puddle.Config[*Session]{
		Constructor: func(ctx context.Context) (*Session, error) {
			ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
			defer cancel()
			return open(ctx)
		},
		Destructor: func(s *Session) {
			ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
			defer cancel()
			if err := s.Close(ctx); err != nil {
				logger.Debug("epp session close failed", "error", err)
			}
		},
		MaxSize: cfg.MaxSessions,
	})
	if err != nil {
		return nil, err
	}
	return &Pool{p: p, keepAlive: cfg.KeepAlive, logger: logger}, nil
}

// Acquire borrows a session, opening one when none is idle.
func (p *Pool) Acquire(ctx context.Context) (*PooledSession, error) {
	res, err := p.p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &PooledSession{res: res}, nil
}

// Warm opens n sessions ahead of demand.
func (p *Pool) Warm(ctx context.Context, n int) error {
	var errs []error
	for range n {
		if err := p.p.CreateResource(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stats reports pool occupancy.
type Stats struct {
	Total    int32
	Idle     int32
	Acquired int32
	Max      int32
}

// Stats returns the current pool occupancy.
func (p *Pool) Stats() Stats {
	s := p.p.Stat()
	return Stats{
		Total:    s.TotalResources(),
		Idle:     s.IdleResources(),
		Acquired: s.AcquiredResources(),
		Max:      s.MaxResources(),
	}
}

// minKeepAliveTick bounds how often KeepAlive scans the pool.
const minKeepAliveTick = time.Second

// KeepAlive sends hello on every session idle longer than the configured
// interval until ctx is done. Sessions that fail are destroyed.
func (p *Pool) KeepAlive(ctx context.Context) {
	if p.keepAlive <= 0 {
		return
	}
	ticker := time.NewTicker(keepAliveTick(p.keepAlive))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ping(ctx)
		}
	}
}

// keepAliveTick scans at half the idle limit so no session sits idle much
// past it.
func keepAliveTick(keepAlive time.Duration) time.Duration {
	return max(keepAlive/2, minKeepAliveTick)
}

func (p *Pool) ping(ctx context.Context) {
	for _, res := range p.p.AcquireAllIdle() {
		if res.IdleDuration() < p.keepAlive {
			res.ReleaseUnused()
			continue
		}
		hctx, cancel := context.WithTimeout(ctx, backgroundTimeout)
		_, err := res.Value().Hello(hctx)
		cancel()
		if err != nil {
			p.logger.WarnContext(ctx, "epp keep-alive failed", "error", err)
			res.Destroy()
			continue
		}
		res.Release()
	}
}

// Close closes every session. It blocks until borrowed sessions are returned.
func (p *Pool) Close() {
	p.p.Close()
}
