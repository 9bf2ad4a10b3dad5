package memory

import (
	"context"
	"slices"
	"sync"

	audit "epp-gateway/pkg/platform/audit"
)

type objectKey struct {
	objectType string
	objectID   string
}

// InMemoryStore keeps transactions in process. Used in tests and when no
// Postgres DSN is configured.
type InMemoryStore struct {
	mu       sync.RWMutex
	events   []audit.Event
	byObject map[objectKey][]int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byObject: make(map[objectKey][]int)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
	s.byObject = make(map[objectKey][]int)
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	k := objectKey{event.ObjectType, event.ObjectID}
	s.byObject[k] = append(s.byObject[k], len(s.events)-1)
	return nil
}

// ListByObject returns the newest transactions first.
func (s *InMemoryStore) ListByObject(_ context.Context, objectType, objectID string, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.byObject[objectKey{objectType, objectID}]
	out := make([]audit.Event, 0, len(idx))
	for i := len(idx) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, s.events[idx[i]])
	}
	return out, nil
}

// ListRecent returns the newest transactions first.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := 0
	if limit > 0 && len(s.events) > limit {
		start = len(s.events) - limit
	}
	out := slices.Clone(s.events[start:])
	slices.Reverse(out)
	return out, nil
}
