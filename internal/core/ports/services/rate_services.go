package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/nvcfund/exchange-platform/internal/core/domain"
)

// RateStoreSvcFacade shields callers from where a rate physically lives:
// the in-process cache, the relational table, or the file-backed fallback
// store for currency codes the relational enum cannot represent.
type RateStoreSvcFacade interface {
	// GetRate returns the stored rate for a directed pair. A backing-store
	// error is logged and reported as absent, never surfaced to the caller.
	GetRate(ctx context.Context, from, to domain.Currency) (*domain.ExchangeRate, bool)

	// SetRate persists the rate together with its computed inverse and
	// updates the cache eagerly for both directions. A zero rate stores a
	// zero inverse.
	SetRate(ctx context.Context, from, to domain.Currency, rate decimal.Decimal, source domain.RateSource, userID string) error
}

// RateResolverSvcFacade produces a best-effort rate for any currency pair by
// walking the fallback chain.
type RateResolverSvcFacade interface {
	// Resolve returns the first rate the chain produces, or
	// apperrors.ErrNoRate when the chain is exhausted and the unity fallback
	// is disabled.
	Resolve(ctx context.Context, from, to domain.Currency) (*domain.Resolution, error)
}

// RateFeed is the external market-data boundary. Implementations carry their
// own request timeout; callers treat every error as "no quote".
type RateFeed interface {
	// FetchRates returns the current quotes for all targets of one base currency.
	FetchRates(ctx context.Context, base domain.Currency) (map[domain.Currency]decimal.Decimal, error)
}
