package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/solarb/internal/domain"
)

// Venue is a single price source for an asset.
type Venue interface {
	Name() string
	Quote(ctx context.Context, asset domain.Asset) (domain.Quote, error)
}

// QuoteSource returns every venue's quote for one asset. Partial venue
// failure is reported in QuoteSet.Errors; an error return is reserved for
// failures that affect the whole call.
type QuoteSource interface {
	FetchQuotes(ctx context.Context, asset domain.Asset) (domain.QuoteSet, error)
}

// VenueObserver receives per-request venue telemetry.
type VenueObserver interface {
	ObserveVenue(venue string, elapsed time.Duration, err error)
}

// QuoteService fans a quote request out to all configured venues.
type QuoteService struct {
	venues   []Venue
	cache    domain.QuoteCache
	observer VenueObserver
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewQuoteService creates a QuoteService. cache and observer may be nil.
func NewQuoteService(
	venues []Venue,
	cache domain.QuoteCache,
	observer VenueObserver,
	timeout time.Duration,
	logger *slog.Logger,
) *QuoteService {
	return &QuoteService{
		venues:   venues,
		cache:    cache,
		observer: observer,
		timeout:  timeout,
		logger:   logger.With(slog.String("component", "quote_service")),
		now:      time.Now,
	}
}

// Venues returns the configured venue names in fan-out order.
func (s *QuoteService) Venues() []string {
	names := make([]string, len(s.venues))
	for i, v := range s.venues {
		names[i] = v.Name()
	}
	return names
}

type venueSlot struct {
	quote domain.Quote
	err   error
}

// FetchQuotes queries every venue concurrently, each bounded by the venue
// timeout. Quotes that fail validation are reported as venue errors and never
// returned. Quotes are listed in venue order.
func (s *QuoteService) FetchQuotes(ctx context.Context, asset domain.Asset) (domain.QuoteSet, error) {
	if len(s.venues) == 0 {
		return domain.QuoteSet{}, fmt.Errorf("quote_service: fetch %s: %w", asset.Symbol, domain.ErrNoVenues)
	}

	slots := make([]venueSlot, len(s.venues))
	g, gctx := errgroup.WithContext(ctx)
	for i, v := range s.venues {
		g.Go(func() error {
			vctx, cancel := s.venueContext(gctx)
			defer cancel()

			start := s.now()
			q, err := quoteVenue(vctx, v, asset)
			if err == nil {
				err = q.Validate()
			}
			if s.observer != nil {
				s.observer.ObserveVenue(v.Name(), s.now().Sub(start), err)
			}
			slots[i] = venueSlot{quote: q, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var set domain.QuoteSet
	for i, slot := range slots {
		if slot.err != nil {
			name := s.venues[i].Name()
			s.logger.WarnContext(ctx, "venue quote failed",
				slog.String("venue", name),
				slog.String("symbol", asset.Symbol),
				slog.String("error", slot.err.Error()),
			)
			set.Errors = append(set.Errors, domain.VenueError{
				Venue:      name,
				Message:    slot.err.Error(),
				ObservedAt: s.now().UTC(),
			})
			continue
		}
		set.Quotes = append(set.Quotes, slot.quote)
	}

	if s.cache != nil && len(set.Quotes) > 0 && asset.Mint != "" {
		if err := s.cache.SetQuotes(ctx, asset.Mint, set.Quotes); err != nil {
			s.logger.WarnContext(ctx, "cache quotes failed",
				slog.String("symbol", asset.Symbol),
				slog.String("error", err.Error()),
			)
		}
	}

	return set, nil
}

// quoteVenue asks one venue for a quote. A panicking venue client is reported
// as that venue's error.
func quoteVenue(ctx context.Context, v Venue, asset domain.Asset) (q domain.Quote, err error) {
	defer func() {
		if r := recover(); r != nil {
			q, err = domain.Quote{}, fmt.Errorf("%s: %v", FailPanic, r)
		}
	}()
	return v.Quote(ctx, asset)
}

// CachedQuotes returns the last quote set stored for mint, if a cache is
// configured.
func (s *QuoteService) CachedQuotes(ctx context.Context, mint string) ([]domain.Quote, error) {
	if s.cache == nil {
		return nil, domain.ErrNotFound
	}
	quotes, err := s.cache.GetQuotes(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("quote_service: cached quotes %s: %w", mint, err)
	}
	return quotes, nil
}

func (s *QuoteService) venueContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
