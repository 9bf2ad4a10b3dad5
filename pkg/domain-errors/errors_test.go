package dErrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, CodeUnavailable, "registry unavailable")

	require.ErrorIs(t, err, cause)
	require.ErrorIs(t, err, New(CodeUnavailable, "registry unavailable"))
	assert.Equal(t, "registry unavailable: connection reset", err.Error())
	assert.NoError(t, Wrap(nil, CodeInternal, "x"))
}

func TestHasCode(t *testing.T) {
	inner := New(CodeNotFound, "domain not found")
	outer := Wrap(fmt.Errorf("lookup: %w", inner), CodeInternal, "info failed")

	assert.True(t, HasCode(outer, CodeInternal))
	assert.True(t, HasCode(outer, CodeNotFound))
	assert.False(t, HasCode(outer, CodeConflict))
	assert.False(t, Is(errors.New("plain"), CodeInternal))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeConflict, CodeOf(fmt.Errorf("ctx: %w", New(CodeConflict, "exists"))))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
	assert.Equal(t, "exists", MessageOf(New(CodeConflict, "exists")))
}
