package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/solarb/internal/domain"
)

func TestQuoteEncodingRoundTrip(t *testing.T) {
	observed := time.UnixMilli(1_700_000_000_123).UTC()
	in := []domain.Quote{
		{Venue: "Jupiter", Price: 150.25, Liquidity: 1e6, Fee: 0.003, ObservedAt: observed},
		{Venue: "Raydium", Price: 151, Liquidity: 420_000, Fee: 0.0025, ObservedAt: observed, PoolRef: "pool-1"},
	}

	data, err := encodeQuotes(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"poolRef":"pool-1"`)
	assert.Contains(t, string(data), `"observedAt":1700000000123`)

	out, err := decodeQuotes(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "quotes:So111", quotesKey("So111"))
	assert.Equal(t, "lock:scan", lockKey("scan"))
	assert.Equal(t, "ratelimit:1.2.3.4", rateLimitKey("1.2.3.4"))
}

func TestHasPattern(t *testing.T) {
	assert.True(t, hasPattern("ch:*"))
	assert.False(t, hasPattern(domain.ChannelScanReports))
}

// integrationClient connects to SOLARB_TEST_REDIS_ADDR or skips.
func integrationClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("SOLARB_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SOLARB_TEST_REDIS_ADDR not set")
	}
	c, err := New(context.Background(), ClientConfig{Addr: addr, PoolSize: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestQuoteCacheIntegration(t *testing.T) {
	c := integrationClient(t)
	ctx := context.Background()
	cache := NewQuoteCache(c, time.Minute)

	mint := "test-mint-" + time.Now().Format("150405.000000")
	_, err := cache.GetQuotes(ctx, mint)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	quotes := []domain.Quote{{Venue: "Jupiter", Price: 1, Fee: 0.003, ObservedAt: time.UnixMilli(1).UTC()}}
	require.NoError(t, cache.SetQuotes(ctx, mint, quotes))

	got, err := cache.GetQuotes(ctx, mint)
	require.NoError(t, err)
	assert.Equal(t, quotes, got)
}

func TestLockManagerIntegration(t *testing.T) {
	c := integrationClient(t)
	ctx := context.Background()
	locks := NewLockManager(c)
	key := "test-" + time.Now().Format("150405.000000")

	unlock, err := locks.Acquire(ctx, key, 5*time.Second)
	require.NoError(t, err)

	_, err = locks.Acquire(ctx, key, 5*time.Second)
	assert.ErrorIs(t, err, domain.ErrLockHeld)

	unlock()
	unlock()

	again, err := locks.Acquire(ctx, key, 5*time.Second)
	require.NoError(t, err)
	again()
}

func TestLockManagerRejectsNonPositiveTTL(t *testing.T) {
	_, err := (&LockManager{}).Acquire(context.Background(), "scan", 0)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrLockHeld)
}

func TestLockManagerKeepsLockPastTTL(t *testing.T) {
	c := integrationClient(t)
	ctx := context.Background()
	locks := NewLockManager(c)
	key := "test-renew-" + time.Now().Format("150405.000000")

	unlock, err := locks.Acquire(ctx, key, 300*time.Millisecond)
	require.NoError(t, err)
	defer unlock()

	time.Sleep(900 * time.Millisecond)

	_, err = locks.Acquire(ctx, key, 300*time.Millisecond)
	assert.ErrorIs(t, err, domain.ErrLockHeld)
}

func TestRateLimiterIntegration(t *testing.T) {
	c := integrationClient(t)
	ctx := context.Background()
	rl := NewRateLimiter(c)
	key := "test-" + time.Now().Format("150405.000000")

	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(ctx, key, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i)
	}
	ok, err := rl.Allow(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSignalBusIntegration(t *testing.T) {
	c := integrationClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	bus := NewSignalBus(c)
	channel := "test:" + time.Now().Format("150405.000000")

	msgs, err := bus.Subscribe(ctx, channel)
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, channel, []byte("hello")))

	select {
	case msg := <-msgs:
		assert.Equal(t, "hello", string(msg))
	case <-ctx.Done():
		t.Fatal("no message received")
	}
}
