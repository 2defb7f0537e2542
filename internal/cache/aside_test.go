package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedThing struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func useMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	SetClient(c)
	t.Cleanup(func() {
		SetClient(nil)
		_ = c.Close()
	})
	return mr
}

func TestAside_FetchesOnceThenServesFromCache(t *testing.T) {
	mr := useMiniredis(t)
	ctx := context.Background()
	calls := 0
	fetch := func(dest *cachedThing) func() error {
		return func() error {
			calls++
			*dest = cachedThing{ID: 1, Name: "alice"}
			return nil
		}
	}

	var first cachedThing
	require.NoError(t, Aside(ctx, UserKey(1), &first, UserTTL, fetch(&first)))
	assert.Equal(t, "alice", first.Name)
	assert.True(t, mr.Exists("user:1"))

	var second cachedThing
	require.NoError(t, Aside(ctx, UserKey(1), &second, UserTTL, fetch(&second)))
	assert.Equal(t, "alice", second.Name)
	assert.Equal(t, 1, calls)

	mr.FastForward(UserTTL + time.Second)
	var third cachedThing
	require.NoError(t, Aside(ctx, UserKey(1), &third, UserTTL, fetch(&third)))
	assert.Equal(t, 2, calls)
}

func TestAside_FetchErrorIsNotCached(t *testing.T) {
	mr := useMiniredis(t)
	boom := errors.New("db down")

	var dest cachedThing
	err := Aside(context.Background(), UserKey(2), &dest, UserTTL, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("user:2"))
}

func TestAside_WithoutRedis(t *testing.T) {
	SetClient(nil)
	calls := 0
	var dest cachedThing
	for i := 0; i < 2; i++ {
		require.NoError(t, Aside(context.Background(), UserKey(3), &dest, UserTTL, func() error {
			calls++
			dest.ID = 3
			return nil
		}))
	}
	assert.Equal(t, 2, calls)
	assert.Equal(t, uint(3), dest.ID)
}

func TestInvalidate(t *testing.T) {
	mr := useMiniredis(t)
	require.NoError(t, mr.Set("user:9", "{}"))
	require.NoError(t, mr.Set("user:10", "{}"))

	InvalidateUser(context.Background(), 9)

	assert.False(t, mr.Exists("user:9"))
	assert.True(t, mr.Exists("user:10"))
}
