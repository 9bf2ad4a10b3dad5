package revocation

import (
	"context"
	"sync"
	"time"
)

// InMemoryTRL is a process-local revocation list for single-instance
// deployments and tests.
type InMemoryTRL struct {
	mu      sync.RWMutex
	expires map[string]time.Time
	clock   func() time.Time
}

func NewInMemoryTRL() *InMemoryTRL {
	return &InMemoryTRL{expires: make(map[string]time.Time), clock: time.Now}
}

func (t *InMemoryTRL) RevokeTokens(_ context.Context, jtis []string, ttl time.Duration) error {
	if err := validateTTL(ttl); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	until := t.clock().Add(ttl)
	for _, jti := range nonEmpty(jtis) {
		t.expires[jti] = until
	}
	return nil
}

func (t *InMemoryTRL) IsTokenRevoked(_ context.Context, jti string) (bool, error) {
	t.mu.RLock()
	until, ok := t.expires[jti]
	t.mu.RUnlock()
	return ok && t.clock().Before(until), nil
}
