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

// setupRedisCache starts a miniredis server and returns a cache backed
// by it.
func setupRedisCache(t *testing.T) *Redis {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisWithClient(client)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := NewRedis(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	assert.NoError(t, c.Ping(context.Background()))
	assert.NoError(t, c.Close())
}

func TestNewRedis_InvalidURL(t *testing.T) {
	_, err := NewRedis(context.Background(), "not-a-url")
	assert.Error(t, err)
}

func TestRedisGetSet(t *testing.T) {
	ctx := context.Background()
	c := setupRedisCache(t)

	_, err := c.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k1", []byte("v1"), time.Minute))

	got, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)
}

func TestRedisDelete(t *testing.T) {
	ctx := context.Background()
	c := setupRedisCache(t)

	require.NoError(t, c.Set(ctx, "k1", []byte("v1"), time.Minute))
	require.NoError(t, c.Delete(ctx, "k1"))

	_, err := c.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrCacheMiss)

	// Deleting a missing key is not an error.
	assert.NoError(t, c.Delete(ctx, "k1"))
}

func TestRedisSets(t *testing.T) {
	ctx := context.Background()
	c := setupRedisCache(t)

	require.NoError(t, c.AddToSet(ctx, "subj:1", "sess_a"))
	require.NoError(t, c.AddToSet(ctx, "subj:1", "sess_b"))
	require.NoError(t, c.AddToSet(ctx, "subj:1", "sess_a"))

	members, err := c.SetMembers(ctx, "subj:1")
	require.NoError(t, err)
	assert.Len(t, members, 2)
	assert.ElementsMatch(t, []string{"sess_a", "sess_b"}, members)

	require.NoError(t, c.RemoveFromSet(ctx, "subj:1", "sess_a"))
	members, err = c.SetMembers(ctx, "subj:1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sess_b"}, members)

	require.NoError(t, c.DeleteSet(ctx, "subj:1"))
	members, err = c.SetMembers(ctx, "subj:1")
	require.NoError(t, err)
	assert.Empty(t, members)
}
