package domain

import (
	"context"
	"time"
)

// QuoteCache holds the most recent quote set fetched for each asset.
type QuoteCache interface {
	SetQuotes(ctx context.Context, mint string, quotes []Quote) error
	GetQuotes(ctx context.Context, mint string) ([]Quote, error)
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// SignalBus provides pub/sub fan-out of scan reports.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// Bus channels.
const (
	ChannelScanReports = "ch:scan"
	ChannelOpportunity = "ch:opportunity"
	ChannelNetwork     = "ch:network"
)
