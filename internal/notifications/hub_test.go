package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RegisterAndBroadcast(t *testing.T) {
	hub := NewHub()

	a, err := hub.Register(10, nil)
	require.NoError(t, err)
	b, err := hub.Register(10, nil)
	require.NoError(t, err)
	other, err := hub.Register(11, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, hub.ConnectionCount(10))

	hub.Broadcast(10, "hello")
	assert.Equal(t, []byte("hello"), <-a.Send)
	assert.Equal(t, []byte("hello"), <-b.Send)
	assert.Empty(t, other.Send)

	hub.UnregisterClient(a)
	hub.UnregisterClient(a)
	assert.Equal(t, 1, hub.ConnectionCount(10))
	hub.UnregisterClient(b)
	assert.Equal(t, 0, hub.ConnectionCount(10))
}

func TestHub_PerUserLimit(t *testing.T) {
	hub := NewHub()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(3, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(3, nil)
	assert.ErrorIs(t, err, ErrUserFull)

	_, err = hub.Register(4, nil)
	assert.NoError(t, err)
}

func TestHub_ShutdownRefusesRegistrations(t *testing.T) {
	hub := NewHub()
	_, err := hub.Register(1, nil)
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	assert.Equal(t, 0, hub.ConnectionCount(1))

	_, err = hub.Register(1, nil)
	assert.ErrorIs(t, err, ErrServerFull)
}

func TestClient_TrySendDropsWhenFull(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(5, nil)
	require.NoError(t, err)

	for i := 0; i < sendBuffer+3; i++ {
		c.TrySend([]byte("x"))
	}
	assert.Len(t, c.Send, sendBuffer)

	close(c.Send)
	assert.NotPanics(t, func() { c.TrySend([]byte("late")) })
}

func TestHub_StartWiringWithoutRedis(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, hub.StartWiring(ctx, NewNotifier(nil)))
}
