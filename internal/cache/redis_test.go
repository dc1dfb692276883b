package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Km    float64 `json:"km"`
	Order []int   `json:"order"`
}

func newTestCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client, "test:", ttl), mr
}

func TestRedisCacheMiss(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	var got payload
	found, err := c.Get(context.Background(), "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCacheRoundTrip(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "route:foot:a", payload{Km: 3.5, Order: []int{0, 2, 1}}))
	assert.True(t, mr.Exists("test:route:foot:a"))

	var got payload
	found, err := c.Get(ctx, "route:foot:a", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 3.5, got.Km)
	assert.Equal(t, []int{0, 2, 1}, got.Order)
}

func TestRedisCacheExpiry(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", payload{Km: 1}))
	mr.FastForward(2 * time.Minute)

	var got payload
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCacheCorruptValue(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	require.NoError(t, mr.Set("test:bad", "{not json"))

	var got payload
	found, err := c.Get(context.Background(), "bad", &got)
	assert.Error(t, err)
	assert.False(t, found)
}

func TestOpen(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := Open(context.Background(), "redis://"+mr.Addr(), "p:", time.Minute)
	require.NoError(t, err)
	defer c.Close()
	assert.NoError(t, c.Ping(context.Background()))

	_, err = Open(context.Background(), "not-a-url", "p:", time.Minute)
	assert.Error(t, err)
}
