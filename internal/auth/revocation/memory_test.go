package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epp-gateway/pkg/platform/sentinel"
)

func TestInMemoryTRL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	trl := NewInMemoryTRL()
	trl.clock = func() time.Time { return now }

	require.NoError(t, trl.RevokeTokens(ctx, []string{"a", "", "b"}, time.Minute))

	revoked, err := trl.IsTokenRevoked(ctx, "a")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = trl.IsTokenRevoked(ctx, "c")
	require.NoError(t, err)
	assert.False(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, err = trl.IsTokenRevoked(ctx, "b")
	require.NoError(t, err)
	assert.False(t, revoked, "expired entries no longer count")
}

func TestRevokeTokens_RejectsNonPositiveTTL(t *testing.T) {
	err := NewInMemoryTRL().RevokeTokens(context.Background(), []string{"a"}, 0)
	assert.ErrorIs(t, err, sentinel.ErrInvalidState)
}
