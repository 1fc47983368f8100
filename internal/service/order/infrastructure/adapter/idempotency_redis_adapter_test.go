package adapter_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/pkg/redis"
	"storefront/internal/service/order/infrastructure/adapter"
	"storefront/internal/service/order/port"
)

func newAdapter(t *testing.T) (*adapter.IdempotencyRedisAdapter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewUniversalClient(&goredis.UniversalOptions{Addrs: []string{mr.Addr()}})
	t.Cleanup(func() { _ = rdb.Close() })

	a, err := adapter.NewIdempotencyRedisAdapter(redis.NewFromUniversal(rdb))
	require.NoError(t, err)
	return a, mr
}

func TestIdempotency_Lifecycle(t *testing.T) {
	a, mr := newAdapter(t)
	ctx := context.Background()

	state, _, err := a.Acquire(ctx, "7:abc", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, port.IdempotencyAcquired, state)

	state, _, err = a.Acquire(ctx, "7:abc", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, port.IdempotencyInFlight, state)

	require.NoError(t, a.Complete(ctx, "7:abc", 42, time.Hour))
	state, id, err := a.Acquire(ctx, "7:abc", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, port.IdempotencyDone, state)
	assert.Equal(t, uint(42), id)

	// 已完成的键不会被 Release 删除
	require.NoError(t, a.Release(ctx, "7:abc"))
	assert.True(t, mr.Exists("idemp:order:7:abc"))
}

func TestIdempotency_ReleaseAllowsRetry(t *testing.T) {
	a, mr := newAdapter(t)
	ctx := context.Background()

	_, _, err := a.Acquire(ctx, "7:retry", time.Hour)
	require.NoError(t, err)
	require.NoError(t, a.Release(ctx, "7:retry"))
	assert.False(t, mr.Exists("idemp:order:7:retry"))

	state, _, err := a.Acquire(ctx, "7:retry", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, port.IdempotencyAcquired, state)
}

func TestIdempotency_KeyExpires(t *testing.T) {
	a, mr := newAdapter(t)
	ctx := context.Background()

	_, _, err := a.Acquire(ctx, "7:ttl", time.Minute)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	state, _, err := a.Acquire(ctx, "7:ttl", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, port.IdempotencyAcquired, state)
}

func TestIdempotency_PendingAndDoneTTL(t *testing.T) {
	a, mr := newAdapter(t)
	ctx := context.Background()

	_, _, err := a.Acquire(ctx, "7:ttls", 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, mr.TTL("idemp:order:7:ttls"))

	require.NoError(t, a.Complete(ctx, "7:ttls", 5, 24*time.Hour))
	assert.Equal(t, 24*time.Hour, mr.TTL("idemp:order:7:ttls"))

	// 完成后不受处理中标记过期时间的影响
	mr.FastForward(time.Minute)
	state, id, err := a.Acquire(ctx, "7:ttls", 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, port.IdempotencyDone, state)
	assert.Equal(t, uint(5), id)
}

func TestIdempotency_UnexpectedValue(t *testing.T) {
	a, mr := newAdapter(t)
	require.NoError(t, mr.Set("idemp:order:7:junk", "not-a-number"))

	_, _, err := a.Acquire(context.Background(), "7:junk", time.Minute)
	assert.Error(t, err)
}
