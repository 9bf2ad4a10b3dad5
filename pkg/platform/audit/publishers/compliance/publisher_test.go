package compliance

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "epp-gateway/pkg/platform/audit"
	"epp-gateway/pkg/platform/audit/store/memory"
)

type failingStore struct{ *memory.InMemoryStore }

func (failingStore) Append(context.Context, audit.Event) error { return errors.New("connection refused") }

func TestPublisher_PersistsComplianceOnly(t *testing.T) {
	ctx := context.Background()
	store := memory.NewInMemoryStore()
	pub := New(store)

	require.NoError(t, pub.Emit(ctx, audit.Prepare(audit.Event{Command: "domain:create", ObjectType: "domain", ObjectID: "a.example", ResultCode: 1000}, "create")))
	require.NoError(t, pub.Emit(ctx, audit.Prepare(audit.Event{Command: "domain:info", ObjectType: "domain", ObjectID: "a.example", ResultCode: 1000}, "info")))

	got, err := store.ListByObject(ctx, "domain", "a.example", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "domain:create", got[0].Command)
}

func TestPublisher_AllCategories(t *testing.T) {
	ctx := context.Background()
	store := memory.NewInMemoryStore()
	pub := New(store, WithAllCategories())

	require.NoError(t, pub.Emit(ctx, audit.Prepare(audit.Event{Command: "domain:check"}, "check")))
	got, err := store.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestPublisher_RequiresCommand(t *testing.T) {
	pub := New(memory.NewInMemoryStore())
	err := pub.Emit(context.Background(), audit.Event{Category: audit.CategoryCompliance})
	assert.Error(t, err)
}

func TestPublisher_StoreFailure(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	pub := New(failingStore{memory.NewInMemoryStore()}, WithMetrics(m))

	err := pub.Emit(context.Background(), audit.Event{Category: audit.CategoryCompliance, Command: "domain:delete"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection refused")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistFailures))
}
