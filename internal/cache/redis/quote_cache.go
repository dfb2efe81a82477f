package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/solarb/internal/domain"
)

// DefaultQuoteTTL bounds how long a cached quote set is served.
const DefaultQuoteTTL = 2 * time.Minute

// QuoteCache implements domain.QuoteCache. Each asset's latest quote set is
// stored as a JSON string at "quotes:{mint}" with a TTL.
type QuoteCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewQuoteCache creates a QuoteCache backed by the given Client.
func NewQuoteCache(c *Client, ttl time.Duration) *QuoteCache {
	if ttl <= 0 {
		ttl = DefaultQuoteTTL
	}
	return &QuoteCache{rdb: c.Underlying(), ttl: ttl}
}

func quotesKey(mint string) string {
	return "quotes:" + mint
}

type cachedQuote struct {
	Venue      string  `json:"venue"`
	Price      float64 `json:"price"`
	Liquidity  float64 `json:"liquidity"`
	Fee        float64 `json:"fee"`
	ObservedAt int64   `json:"observedAt"`
	PoolRef    string  `json:"poolRef,omitempty"`
}

func encodeQuotes(quotes []domain.Quote) ([]byte, error) {
	out := make([]cachedQuote, len(quotes))
	for i, q := range quotes {
		out[i] = cachedQuote{
			Venue:      q.Venue,
			Price:      q.Price,
			Liquidity:  q.Liquidity,
			Fee:        q.Fee,
			ObservedAt: q.ObservedAt.UnixMilli(),
			PoolRef:    q.PoolRef,
		}
	}
	return json.Marshal(out)
}

func decodeQuotes(data []byte) ([]domain.Quote, error) {
	var in []cachedQuote
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}
	out := make([]domain.Quote, len(in))
	for i, c := range in {
		out[i] = domain.Quote{
			Venue:      c.Venue,
			Price:      c.Price,
			Liquidity:  c.Liquidity,
			Fee:        c.Fee,
			ObservedAt: time.UnixMilli(c.ObservedAt).UTC(),
			PoolRef:    c.PoolRef,
		}
	}
	return out, nil
}

// SetQuotes replaces the cached quote set for mint.
func (qc *QuoteCache) SetQuotes(ctx context.Context, mint string, quotes []domain.Quote) error {
	data, err := encodeQuotes(quotes)
	if err != nil {
		return fmt.Errorf("redis: encode quotes %s: %w", mint, err)
	}
	if err := qc.rdb.Set(ctx, quotesKey(mint), data, qc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set quotes %s: %w", mint, err)
	}
	return nil
}

// GetQuotes returns the cached quote set for mint, or domain.ErrNotFound.
func (qc *QuoteCache) GetQuotes(ctx context.Context, mint string) ([]domain.Quote, error) {
	data, err := qc.rdb.Get(ctx, quotesKey(mint)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get quotes %s: %w", mint, err)
	}
	quotes, err := decodeQuotes(data)
	if err != nil {
		return nil, fmt.Errorf("redis: decode quotes %s: %w", mint, err)
	}
	return quotes, nil
}

// Compile-time interface check.
var _ domain.QuoteCache = (*QuoteCache)(nil)
