package checkcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epp-gateway/internal/epp/shared"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory(WithClock(func() time.Time { return now }))

	require.NoError(t, m.Set(ctx, "domain", []shared.CheckResult{
		{Key: "a.example", Avail: true},
		{Key: "b.example", Avail: false, Reason: "In use"},
	}, time.Minute))

	t.Run("hits are scoped by object type", func(t *testing.T) {
		got, err := m.Get(ctx, "domain", []string{"a.example", "b.example", "c.example"})
		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Equal(t, "In use", got["b.example"].Reason)

		got, err = m.Get(ctx, "host", []string{"a.example"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("invalidate", func(t *testing.T) {
		require.NoError(t, m.Invalidate(ctx, "domain", "a.example"))
		got, err := m.Get(ctx, "domain", []string{"a.example"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("entries expire", func(t *testing.T) {
		now = now.Add(2 * time.Minute)
		got, err := m.Get(ctx, "domain", []string{"b.example"})
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Equal(t, 1, m.Purge())
	})
}

func TestMemory_ZeroTTLStoresNothing(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "domain", []shared.CheckResult{{Key: "a.example", Avail: true}}, 0))
	got, err := m.Get(ctx, "domain", []string{"a.example"})
	require.NoError(t, err)
	assert.Empty(t, got)
}
