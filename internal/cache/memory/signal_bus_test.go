package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan []byte) string {
	t.Helper()
	select {
	case msg := <-ch:
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return ""
	}
}

func TestPublishReachesMatchingSubscribers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := NewSignalBus()

	exact, err := bus.Subscribe(ctx, "ch:scan")
	require.NoError(t, err)
	wildcard, err := bus.Subscribe(ctx, "ch:*")
	require.NoError(t, err)
	other, err := bus.Subscribe(ctx, "ch:network")
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, "ch:scan", []byte("report")))

	assert.Equal(t, "report", receive(t, exact))
	assert.Equal(t, "report", receive(t, wildcard))
	assert.Empty(t, other)
}

func TestSubscriptionClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	bus := NewSignalBus()
	ch, err := bus.Subscribe(ctx, "ch:scan")
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
	require.NoError(t, bus.Publish(context.Background(), "ch:scan", []byte("late")))
}

func TestPublishDropsForFullSubscriber(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := NewSignalBus()
	ch, err := bus.Subscribe(ctx, "ch:scan")
	require.NoError(t, err)

	for i := 0; i < subscriberBuffer+10; i++ {
		require.NoError(t, bus.Publish(ctx, "ch:scan", []byte("x")))
	}
	assert.Len(t, ch, subscriberBuffer)
}
