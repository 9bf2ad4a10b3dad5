package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "epp-gateway/pkg/platform/audit"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	for _, e := range []audit.Event{
		{Command: "domain:create", ObjectType: "domain", ObjectID: "a.example"},
		{Command: "domain:info", ObjectType: "domain", ObjectID: "b.example"},
		{Command: "domain:renew", ObjectType: "domain", ObjectID: "a.example"},
	} {
		require.NoError(t, s.Append(ctx, e))
	}

	got, err := s.ListByObject(ctx, "domain", "a.example", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "domain:renew", got[0].Command)
	assert.Equal(t, "domain:create", got[1].Command)

	got, err = s.ListByObject(ctx, "domain", "a.example", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	recent, err := s.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "domain:renew", recent[0].Command)
	assert.Equal(t, "domain:info", recent[1].Command)

	s.Clear()
	recent, err = s.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}
