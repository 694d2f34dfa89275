package coordination

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return server, client
}

func TestRedisLeaseIsExclusiveUntilReleased(t *testing.T) {
	_, client := newTestRedis(t)
	lease := NewRedisLease(client, "test:", time.Minute, nil)
	ctx := context.Background()

	release, err := lease.Acquire(ctx, "poll_forge")
	require.NoError(t, err)

	_, err = lease.Acquire(ctx, "poll_forge")
	assert.ErrorIs(t, err, ErrLeaseHeld)

	otherRelease, err := lease.Acquire(ctx, "completion_watcher")
	require.NoError(t, err)
	require.NoError(t, otherRelease(ctx))

	require.NoError(t, release(ctx))
	again, err := lease.Acquire(ctx, "poll_forge")
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestRedisLeaseExpiresAndStaleReleaseKeepsNewOwner(t *testing.T) {
	server, client := newTestRedis(t)
	lease := NewRedisLease(client, "test:", time.Second, nil)
	ctx := context.Background()

	staleRelease, err := lease.Acquire(ctx, "scoring")
	require.NoError(t, err)

	server.FastForward(2 * time.Second)

	_, err = lease.Acquire(ctx, "scoring")
	require.NoError(t, err)

	require.NoError(t, staleRelease(ctx))
	assert.True(t, server.Exists("test:scoring"), "stale owner must not delete the new owner's key")
}

func TestMemoryLease(t *testing.T) {
	lease := NewMemoryLease()
	ctx := context.Background()

	release, err := lease.Acquire(ctx, "learning")
	require.NoError(t, err)
	_, err = lease.Acquire(ctx, "learning")
	assert.ErrorIs(t, err, ErrLeaseHeld)
	require.NoError(t, release(ctx))
	_, err = lease.Acquire(ctx, "learning")
	assert.NoError(t, err)
}
