package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrRateLimited        = errors.New("rate limited")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrLockHeld           = errors.New("lock already held")
	ErrInvalidQuote       = errors.New("invalid quote")
	ErrInsufficientQuotes = errors.New("fewer than two usable quotes")
	ErrNoVenues           = errors.New("no venues configured")
	ErrMissingMint        = errors.New("asset has no mint")
	ErrCatalogUnavailable = errors.New("asset catalog unavailable")
)
