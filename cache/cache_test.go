package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/imkonsowa/restaurants-linebot/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	c := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	t.Cleanup(func() { _ = c.Close() })

	return c, mr
}

func TestRedis_GetSet(t *testing.T) {
	c, mr := newTestRedis(t)
	ctx := context.Background()

	var got point
	ok, err := c.Get(ctx, "geo:中山站", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "geo:中山站", point{Lat: 25.05, Lng: 121.52}))
	assert.Equal(t, time.Hour, mr.TTL("geo:中山站"))

	ok, err = c.Get(ctx, "geo:中山站", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, point{Lat: 25.05, Lng: 121.52}, got)
}

func TestRedis_Expiry(t *testing.T) {
	c, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v"))
	mr.FastForward(2 * time.Hour)

	var got string
	ok, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNew_NoAddrIsNoop(t *testing.T) {
	c := New(config.Redis{})
	_, isNoop := c.(Noop)
	assert.True(t, isNoop)

	require.NoError(t, c.Set(context.Background(), "k", 1))
	ok, err := c.Get(context.Background(), "k", new(int))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClose(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(config.Redis{Addr: mr.Addr()})

	require.NoError(t, Close(c))
	_, err := c.Get(context.Background(), "k", new(string))
	assert.Error(t, err)

	assert.NoError(t, Close(Noop{}))
}
