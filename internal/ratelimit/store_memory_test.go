package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_AdmitCommitsAllOrNothing(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	checks := []Check{
		{Key: "a", Limit: 3, Window: time.Minute},
		{Key: "b", Limit: 1, Window: time.Minute},
	}

	out, err := s.Admit(ctx, epoch, checks)
	require.NoError(t, err)
	require.True(t, out.Allowed)
	assert.Equal(t, -1, out.Rejected)
	assert.Equal(t, 1, out.Windows[0].Count)
	assert.Equal(t, 1, out.Windows[1].Count)

	out, err = s.Admit(ctx, epoch, checks)
	require.NoError(t, err)
	require.False(t, out.Allowed)
	assert.Equal(t, 1, out.Rejected)

	// "a" was not incremented by the rejected call.
	out, err = s.Admit(ctx, epoch, checks[:1])
	require.NoError(t, err)
	require.True(t, out.Allowed)
	assert.Equal(t, 2, out.Windows[0].Count)
}

func TestMemoryStore_ExpiredWindowRestartsAtOne(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	checks := []Check{{Key: "a", Limit: 2, Window: 10 * time.Second}}

	for i := 0; i < 2; i++ {
		_, err := s.Admit(ctx, epoch, checks)
		require.NoError(t, err)
	}

	at := epoch.Add(10 * time.Second)
	out, err := s.Admit(ctx, at, checks)
	require.NoError(t, err)
	require.True(t, out.Allowed)
	assert.Equal(t, 1, out.Windows[0].Count)
	assert.Equal(t, at.Add(10*time.Second), out.Windows[0].ResetAt)
}

func TestMemoryStore_SweepRemovesOnlyExpired(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, _ = s.Admit(ctx, epoch, []Check{{Key: "short", Limit: 5, Window: time.Second}})
	_, _ = s.Admit(ctx, epoch, []Check{{Key: "long", Limit: 5, Window: time.Hour}})
	require.Equal(t, 2, s.Len())

	// resetAt == now is not yet swept.
	n, err := s.Sweep(ctx, epoch.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = s.Sweep(ctx, epoch.Add(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, s.Len())
}
