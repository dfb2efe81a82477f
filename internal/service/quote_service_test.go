package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/solarb/internal/domain"
)

type fakeVenue struct {
	name  string
	quote domain.Quote
	err   error
	delay time.Duration
}

func (v *fakeVenue) Name() string { return v.name }

func (v *fakeVenue) Quote(ctx context.Context, _ domain.Asset) (domain.Quote, error) {
	if v.delay > 0 {
		select {
		case <-time.After(v.delay):
		case <-ctx.Done():
			return domain.Quote{}, ctx.Err()
		}
	}
	return v.quote, v.err
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]domain.Quote
}

func (c *memCache) SetQuotes(_ context.Context, mint string, quotes []domain.Quote) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = map[string][]domain.Quote{}
	}
	c.data[mint] = quotes
	return nil
}

func (c *memCache) GetQuotes(_ context.Context, mint string) ([]domain.Quote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	quotes, ok := c.data[mint]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return quotes, nil
}

type countingObserver struct {
	mu    sync.Mutex
	calls map[string]int
}

func (o *countingObserver) ObserveVenue(venue string, _ time.Duration, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.calls == nil {
		o.calls = map[string]int{}
	}
	o.calls[venue]++
}

func TestFetchQuotesCollectsPartialFailures(t *testing.T) {
	venues := []Venue{
		&fakeVenue{name: "Jupiter", quote: q("Jupiter", 100)},
		&fakeVenue{name: "Raydium", err: errors.New("pool not found")},
		&fakeVenue{name: "Orca", quote: domain.Quote{Venue: "Orca", Price: math.Inf(1), Fee: 0.003}},
		&fakeVenue{name: "CoinGecko", quote: q("CoinGecko", 101)},
	}
	cache := &memCache{}
	obs := &countingObserver{}
	svc := NewQuoteService(venues, cache, obs, time.Second, testLogger())

	set, err := svc.FetchQuotes(context.Background(), asset("SOL", "m1"))
	require.NoError(t, err)

	require.Len(t, set.Quotes, 2)
	assert.Equal(t, "Jupiter", set.Quotes[0].Venue)
	assert.Equal(t, "CoinGecko", set.Quotes[1].Venue)

	require.Len(t, set.Errors, 2)
	assert.Equal(t, "Raydium", set.Errors[0].Venue)
	assert.Equal(t, "Orca", set.Errors[1].Venue)
	assert.ErrorContains(t, set.Errors[1], "invalid quote")

	cached, err := svc.CachedQuotes(context.Background(), "m1")
	require.NoError(t, err)
	assert.Len(t, cached, 2)
	assert.Equal(t, 1, obs.calls["Orca"])
	assert.Equal(t, []string{"Jupiter", "Raydium", "Orca", "CoinGecko"}, svc.Venues())
}

func TestFetchQuotesVenueTimeout(t *testing.T) {
	venues := []Venue{
		&fakeVenue{name: "Fast", quote: q("Fast", 100)},
		&fakeVenue{name: "Slow", quote: q("Slow", 101), delay: 5 * time.Second},
	}
	svc := NewQuoteService(venues, nil, nil, 50*time.Millisecond, testLogger())

	start := time.Now()
	set, err := svc.FetchQuotes(context.Background(), asset("SOL", "m1"))
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.Len(t, set.Quotes, 1)
	require.Len(t, set.Errors, 1)
	assert.Equal(t, "Slow", set.Errors[0].Venue)
}

func TestFetchQuotesNoVenues(t *testing.T) {
	svc := NewQuoteService(nil, nil, nil, time.Second, testLogger())
	_, err := svc.FetchQuotes(context.Background(), asset("SOL", "m1"))
	require.ErrorIs(t, err, domain.ErrNoVenues)

	_, err = svc.CachedQuotes(context.Background(), "m1")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

type panickingVenue struct{ name string }

func (v panickingVenue) Name() string { return v.name }

func (v panickingVenue) Quote(context.Context, domain.Asset) (domain.Quote, error) {
	var p *domain.Quote
	return *p, nil
}

func TestFetchQuotesRecoversVenuePanic(t *testing.T) {
	venues := []Venue{
		&fakeVenue{name: "Jupiter", quote: q("Jupiter", 100)},
		panickingVenue{name: "Orca"},
		&fakeVenue{name: "Raydium", quote: q("Raydium", 102)},
	}
	obs := &countingObserver{}
	svc := NewQuoteService(venues, nil, obs, time.Second, testLogger())

	var (
		set domain.QuoteSet
		err error
	)
	require.NotPanics(t, func() { set, err = svc.FetchQuotes(context.Background(), asset("SOL", "m1")) })
	require.NoError(t, err)
	assert.Len(t, set.Quotes, 2)
	require.Len(t, set.Errors, 1)
	assert.Equal(t, "Orca", set.Errors[0].Venue)
	assert.ErrorContains(t, set.Errors[0], FailPanic)
	assert.Equal(t, 1, obs.calls["Orca"])
}

func TestScanSurvivesPanickingVenue(t *testing.T) {
	venues := []Venue{
		&fakeVenue{name: "Jupiter", quote: q("Jupiter", 100)},
		panickingVenue{name: "Orca"},
		&fakeVenue{name: "Raydium", quote: q("Raydium", 102)},
	}
	quotes := NewQuoteService(venues, nil, nil, time.Second, testLogger())
	svc := newScanService(quotes, staticCatalog{asset("SOL", "mint-sol"), asset("BONK", "mint-bonk")}, time.Second)
	defer svc.Close()

	report := svc.Scan(context.Background(), svc.DefaultRequest())
	assert.Equal(t, 2, report.TotalAssets)
	assert.Equal(t, 2, report.SuccessfulScans)
	assert.Len(t, report.Opportunities, 2)
}
