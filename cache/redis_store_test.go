package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/dinein-lifecycle/cache"
	"github.com/yeremiapane/dinein-lifecycle/testutil"
)

func TestRedisStoreRoundTrip(t *testing.T) {
	mr, rdb := testutil.NewRedis(t)
	s := cache.NewRedisStore(rdb)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, cache.OrderKey("o-1"))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, cache.OrderKey("o-1"), []byte(`{"id":"o-1"}`), time.Minute))
	raw, ok, err := s.Get(ctx, cache.OrderKey("o-1"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"id":"o-1"}`, string(raw))
	assert.Equal(t, time.Minute, mr.TTL(cache.OrderKey("o-1")))

	require.NoError(t, s.Delete(ctx, cache.OrderKey("o-1"), cache.TableKey("T1")))
	assert.False(t, mr.Exists(cache.OrderKey("o-1")))
	require.NoError(t, s.Delete(ctx))
}

func TestRedisStoreSets(t *testing.T) {
	mr, rdb := testutil.NewRedis(t)
	s := cache.NewRedisStore(rdb)
	ctx := context.Background()
	key := cache.AvailabilityBucketsKey("2026-11-01")

	require.NoError(t, s.AddToSet(ctx, key, "2", 4*time.Minute))
	require.NoError(t, s.AddToSet(ctx, key, "4", 4*time.Minute))
	require.NoError(t, s.AddToSet(ctx, key, "2", 4*time.Minute))

	members, err := s.SetMembers(ctx, key)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"2", "4"}, members)
	assert.Equal(t, 4*time.Minute, mr.TTL(key))
}

func TestRedisStoreMarksItselfDown(t *testing.T) {
	mr, rdb := testutil.NewRedis(t)
	s := cache.NewRedisStore(rdb).WithRetryAfter(50 * time.Millisecond)
	ctx := context.Background()
	assert.True(t, s.IsAvailable(ctx))

	mr.Close()

	_, _, err := s.Get(ctx, "k")
	assert.Error(t, err)
	assert.False(t, s.IsAvailable(ctx))

	err = s.Set(ctx, "k", []byte("v"), time.Minute)
	assert.ErrorIs(t, err, cache.ErrUnavailable)

	require.NoError(t, mr.Restart())
	assert.Eventually(t, func() bool { return s.IsAvailable(ctx) }, 2*time.Second, 20*time.Millisecond)
	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))
}

func TestNoopIsNeverAvailable(t *testing.T) {
	var s cache.Store = cache.Noop{}
	ctx := context.Background()

	assert.False(t, s.IsAvailable(ctx))
	_, ok, err := s.Get(ctx, "k")
	assert.False(t, ok)
	assert.ErrorIs(t, err, cache.ErrUnavailable)
	assert.ErrorIs(t, s.Set(ctx, "k", nil, time.Second), cache.ErrUnavailable)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "availability:2026-11-01:4", cache.AvailabilityKey("2026-11-01", 4))
	assert.Equal(t, "session-orders:s-1", cache.SessionOrdersKey("s-1"))
	assert.Equal(t, "table:T1", cache.TableKey("T1"))
}
