package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zalthoryn/DatingBot/internal/cache"
	"github.com/Zalthoryn/DatingBot/internal/config"
)

func setupCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	return cache.NewRedisCache(cfg), mr
}

func TestGetMiss(t *testing.T) {
	ctx := context.Background()
	c, _ := setupCache(t)

	_, err := c.Get(ctx, "absent")
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	c, _ := setupCache(t)

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))

	val, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)

	require.NoError(t, c.Del(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestSearchCooldown(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCache(t)

	on, err := c.OnSearchCooldown(ctx, 1001)
	require.NoError(t, err)
	assert.False(t, on)

	require.NoError(t, c.SetSearchCooldown(ctx, 1001, 5*time.Minute))

	on, err = c.OnSearchCooldown(ctx, 1001)
	require.NoError(t, err)
	assert.True(t, on)

	// marker expires on its own
	mr.FastForward(5*time.Minute + time.Second)

	on, err = c.OnSearchCooldown(ctx, 1001)
	require.NoError(t, err)
	assert.False(t, on)
}
