package domain

import (
	"fmt"
	"math"
	"time"
)

// Quote is a single price observation for one asset at one venue. Prices are
// quoted in USD per unit of the asset.
type Quote struct {
	Venue      string
	Price      float64
	Liquidity  float64
	Fee        float64
	ObservedAt time.Time
	PoolRef    string
}

// Usable reports whether the quote can take part in a price comparison.
func (q Quote) Usable() bool {
	return q.Price > 0 && !math.IsInf(q.Price, 0)
}

// Validate checks the quote at the collaborator boundary. A quote that fails
// validation must never reach the calculator.
func (q Quote) Validate() error {
	switch {
	case q.Venue == "":
		return fmt.Errorf("%w: empty venue", ErrInvalidQuote)
	case math.IsNaN(q.Price) || math.IsInf(q.Price, 0) || q.Price <= 0:
		return fmt.Errorf("%w: price %v", ErrInvalidQuote, q.Price)
	case math.IsNaN(q.Liquidity) || math.IsInf(q.Liquidity, 0) || q.Liquidity < 0:
		return fmt.Errorf("%w: liquidity %v", ErrInvalidQuote, q.Liquidity)
	case math.IsNaN(q.Fee) || q.Fee < 0 || q.Fee >= 1:
		return fmt.Errorf("%w: fee %v", ErrInvalidQuote, q.Fee)
	}
	return nil
}

// VenueError records a failed fetch from one venue. It never aborts the
// evaluation of the asset it belongs to.
type VenueError struct {
	Venue      string    `json:"venue"`
	Message    string    `json:"error"`
	ObservedAt time.Time `json:"-"`
}

func (e VenueError) Error() string {
	return e.Venue + ": " + e.Message
}

// QuoteSet is what a quote source returns for a single asset.
type QuoteSet struct {
	Quotes []Quote
	Errors []VenueError
}

// Usable returns the quotes with a positive price.
func (s QuoteSet) Usable() []Quote {
	out := make([]Quote, 0, len(s.Quotes))
	for _, q := range s.Quotes {
		if q.Usable() {
			out = append(out, q)
		}
	}
	return out
}

// Best returns the usable quote with the highest price.
func (s QuoteSet) Best() (Quote, bool) {
	var best Quote
	found := false
	for _, q := range s.Usable() {
		if !found || q.Price > best.Price {
			best, found = q, true
		}
	}
	return best, found
}

// Worst returns the usable quote with the lowest price.
func (s QuoteSet) Worst() (Quote, bool) {
	var worst Quote
	found := false
	for _, q := range s.Usable() {
		if !found || q.Price < worst.Price {
			worst, found = q, true
		}
	}
	return worst, found
}

// Average returns the mean usable price, or 0 when there is none.
func (s QuoteSet) Average() float64 {
	usable := s.Usable()
	if len(usable) == 0 {
		return 0
	}
	var sum float64
	for _, q := range usable {
		sum += q.Price
	}
	return sum / float64(len(usable))
}

// Spread is the absolute distance between the best and worst usable prices.
func (s QuoteSet) Spread() float64 {
	if len(s.Usable()) < 2 {
		return 0
	}
	best, _ := s.Best()
	worst, _ := s.Worst()
	return best.Price - worst.Price
}

// SpreadPercent is Spread relative to the worst price, in percent.
func (s QuoteSet) SpreadPercent() float64 {
	worst, ok := s.Worst()
	if !ok || len(s.Usable()) < 2 {
		return 0
	}
	return s.Spread() / worst.Price * 100
}
