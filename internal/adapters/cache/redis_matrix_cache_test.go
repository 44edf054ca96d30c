package cache

import (
	"context"
	"route-optimizer-service/internal/ports"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisCache(t *testing.T, ttl time.Duration) (*RedisMatrixCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisMatrixCache(rdb, ttl), mr
}

func TestRedisMatrixCache_PutThenGet(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t, time.Hour)

	ab := ports.LegKey{From: "55.75000,37.61000", To: "55.77000,37.61000"}
	ba := ports.LegKey{From: ab.To, To: ab.From}

	require.NoError(t, c.PutLegs(ctx, map[ports.LegKey]ports.Leg{ab: {DistanceMeters: 2300.25, DurationSeconds: 240}}))

	raw, err := mr.Get("leg:" + ab.From + "|" + ab.To)
	require.NoError(t, err)
	require.Equal(t, "2300.25,240", raw)

	got, err := c.GetLegs(ctx, []ports.LegKey{ab, ba})
	require.NoError(t, err)
	require.Equal(t, map[ports.LegKey]ports.Leg{ab: {DistanceMeters: 2300.25, DurationSeconds: 240}}, got)
}

func TestRedisMatrixCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t, time.Minute)

	key := ports.LegKey{From: "a", To: "b"}
	require.NoError(t, c.PutLegs(ctx, map[ports.LegKey]ports.Leg{key: {DistanceMeters: 1, DurationSeconds: 1}}))

	mr.FastForward(2 * time.Minute)

	got, err := c.GetLegs(ctx, []ports.LegKey{key})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestRedisMatrixCache_Malformed(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t, 0)

	require.NoError(t, mr.Set("leg:a|b", "garbage"))
	_, err := c.GetLegs(ctx, []ports.LegKey{{From: "a", To: "b"}})
	require.Error(t, err)
}

func TestNewRedisMatrixCacheFromURL(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewRedisMatrixCacheFromURL(context.Background(), "redis://"+mr.Addr()+"/0", time.Minute)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, err = NewRedisMatrixCacheFromURL(context.Background(), "not-a-url", time.Minute)
	require.Error(t, err)
}
