package repositories

import (
	"context"

	"github.com/nvcfund/exchange-platform/internal/core/domain"
)

// RateReader defines read operations for exchange rate data
type RateReader interface {
	// FindRate retrieves the active rate for a directed currency pair.
	// Returns apperrors.ErrNotFound when no active rate exists.
	FindRate(ctx context.Context, from, to domain.Currency) (*domain.ExchangeRate, error)

	// ListRates retrieves all active rates, optionally filtered by source.
	ListRates(ctx context.Context, source *domain.RateSource) ([]domain.ExchangeRate, error)
}

// RateWriter defines write operations for exchange rate data
type RateWriter interface {
	// UpsertRatePair persists a rate and its inverse in one logical operation.
	// Existing active rows for either direction are superseded, not deleted.
	UpsertRatePair(ctx context.Context, rate, inverse domain.ExchangeRate) error

	// DeactivateRatesBySource soft-retires every rate carrying the given source tag.
	DeactivateRatesBySource(ctx context.Context, source domain.RateSource, userID string) error
}

// RateRepositoryFacade combines all rate-related repository interfaces
type RateRepositoryFacade interface {
	RateReader
	RateWriter
}

// RateRepositoryWithTx extends RateRepositoryFacade with transaction capabilities
type RateRepositoryWithTx interface {
	RateRepositoryFacade
	TransactionManager
}
