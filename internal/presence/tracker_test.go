package presence

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestTracker_MarkOnlineOffline_WithRedis(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(newTestRedis(t))

	assert.False(t, tr.IsOnline(ctx, 1))
	tr.MarkOnline(ctx, 1)
	assert.True(t, tr.IsOnline(ctx, 1))
	tr.MarkOffline(ctx, 1)
	assert.False(t, tr.IsOnline(ctx, 1))
}

func TestTracker_FallsBackToLocalWithoutRedis(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(nil)

	assert.False(t, tr.IsOnline(ctx, 7))
	tr.MarkOnline(ctx, 7)
	assert.True(t, tr.IsOnline(ctx, 7))
	tr.MarkOffline(ctx, 7)
	assert.False(t, tr.IsOnline(ctx, 7))
}
