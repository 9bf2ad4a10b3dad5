// Package checkcache keeps recent availability answers so repeated checks of
// the same names do not each cost a registry round trip.
package checkcache

import (
	"context"
	"sync"
	"time"

	"epp-gateway/internal/epp/shared"
)

type entry struct {
	result  shared.CheckResult
	expires time.Time
}

// Memory is a process-local cache for single-instance deployments and tests.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	clock   func() time.Time
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*Memory)

// WithClock replaces the time source.
func WithClock(clock func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.clock = clock
	}
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{entries: make(map[string]entry), clock: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Get(_ context.Context, objType string, names []string) (map[string]shared.CheckResult, error) {
	now := m.clock()
	out := make(map[string]shared.CheckResult, len(names))
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, n := range names {
		if e, ok := m.entries[key(objType, n)]; ok && now.Before(e.expires) {
			out[n] = e.result
		}
	}
	return out, nil
}

func (m *Memory) Set(_ context.Context, objType string, results []shared.CheckResult, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	expires := m.clock().Add(ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range results {
		m.entries[key(objType, r.Key)] = entry{result: r, expires: expires}
	}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, objType string, names ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range names {
		delete(m.entries, key(objType, n))
	}
	return nil
}

// Purge drops expired entries and returns how many were removed.
func (m *Memory) Purge() int {
	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, k)
			n++
		}
	}
	return n
}

func key(objType, name string) string {
	return keyPrefix + objType + ":" + name
}
