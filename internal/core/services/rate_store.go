package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/shopspring/decimal"

	"github.com/nvcfund/exchange-platform/internal/apperrors"
	portsrepo "github.com/nvcfund/exchange-platform/internal/core/ports/repositories"
	portssvc "github.com/nvcfund/exchange-platform/internal/core/ports/services"
	"github.com/nvcfund/exchange-platform/internal/core/domain"
	"github.com/nvcfund/exchange-platform/internal/middleware"
)

const (
	// DefaultCacheTTL bounds how stale a relational-backed cached rate may be.
	DefaultCacheTTL = 600 * time.Second
	// DefaultCacheSize bounds the cache's memory footprint.
	DefaultCacheSize = 200
)

// FallbackRateStore is the file-backed table for currency codes the
// relational enum cannot represent.
type FallbackRateStore interface {
	// Rate returns the stored rate and its update time for a directed pair.
	Rate(from, to domain.Currency) (decimal.Decimal, time.Time, bool)

	// Set records a rate; implementations persist asynchronously.
	Set(from, to domain.Currency, rate decimal.Decimal, now time.Time)
}

// RateStoreService stores and caches exchange rates. Pairs touching a
// fallback-only currency route transparently to the file store; everything
// else hits the relational repository behind a bounded TTL cache.
type RateStoreService struct {
	rateRepo     portsrepo.RateRepositoryFacade
	fallback     FallbackRateStore
	fallbackOnly map[domain.Currency]bool

	// cache holds relational-backed rates with a TTL; fileCache holds
	// file-backed entries with no expiry, since the file store is itself the
	// in-process source. Both LRUs serialize access internally.
	cache     *lru.LRU[string, domain.ExchangeRate]
	fileCache *lru.LRU[string, domain.ExchangeRate]
}

// RateStoreOption customizes a RateStoreService.
type RateStoreOption func(*rateStoreOptions)

type rateStoreOptions struct {
	ttl  time.Duration
	size int
}

// WithCacheTTL overrides the relational cache TTL.
func WithCacheTTL(ttl time.Duration) RateStoreOption {
	return func(o *rateStoreOptions) { o.ttl = ttl }
}

// WithCacheSize overrides the cache capacity.
func WithCacheSize(size int) RateStoreOption {
	return func(o *rateStoreOptions) { o.size = size }
}

// NewRateStoreService creates a RateStoreService. fallbackOnly is the routing
// table of currencies unsupported by the relational enum; pass
// domain.FallbackOnlyCurrencies for the platform default.
func NewRateStoreService(rateRepo portsrepo.RateRepositoryFacade, fallback FallbackRateStore, fallbackOnly map[domain.Currency]bool, opts ...RateStoreOption) *RateStoreService {
	options := rateStoreOptions{ttl: DefaultCacheTTL, size: DefaultCacheSize}
	for _, opt := range opts {
		opt(&options)
	}
	return &RateStoreService{
		rateRepo:     rateRepo,
		fallback:     fallback,
		fallbackOnly: fallbackOnly,
		cache:        lru.NewLRU[string, domain.ExchangeRate](options.size, nil, options.ttl),
		fileCache:    lru.NewLRU[string, domain.ExchangeRate](options.size, nil, 0),
	}
}

var _ portssvc.RateStoreSvcFacade = (*RateStoreService)(nil)

func pairKey(from, to domain.Currency) string {
	return fmt.Sprintf("%s_%s", from, to)
}

func (s *RateStoreService) isFallbackPair(from, to domain.Currency) bool {
	return s.fallbackOnly[from] || s.fallbackOnly[to]
}

// GetRate returns the stored rate for a directed pair. Backing-store errors
// are logged and reported as absent so the resolver chain keeps degrading.
func (s *RateStoreService) GetRate(ctx context.Context, from, to domain.Currency) (*domain.ExchangeRate, bool) {
	logger := middleware.GetLoggerFromCtx(ctx)
	key := pairKey(from, to)

	if s.isFallbackPair(from, to) {
		if cached, ok := s.fileCache.Get(key); ok {
			return &cached, true
		}
		if s.fallback == nil {
			return nil, false
		}
		rate, updated, ok := s.fallback.Rate(from, to)
		if !ok {
			return nil, false
		}
		entry := domain.ExchangeRate{
			FromCurrency: from,
			ToCurrency:   to,
			Rate:         rate,
			InverseRate:  domain.Inverse(rate),
			Source:       domain.SourceFallbackFile,
			IsActive:     true,
			LastUpdated:  updated,
		}
		s.fileCache.Add(key, entry)
		return &entry, true
	}

	if cached, ok := s.cache.Get(key); ok {
		return &cached, true
	}

	stored, err := s.rateRepo.FindRate(ctx, from, to)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Rate store read failed, treating as absent",
				slog.String("from", from.String()),
				slog.String("to", to.String()),
				slog.String("error", err.Error()))
		}
		return nil, false
	}

	s.cache.Add(key, *stored)
	return stored, true
}

// SetRate persists the rate and its computed inverse as one logical
// operation, then updates the cache eagerly for both directions. A zero rate
// stores a zero inverse ("no inverse").
func (s *RateStoreService) SetRate(ctx context.Context, from, to domain.Currency, rate decimal.Decimal, source domain.RateSource, userID string) error {
	if !from.IsValid() || !to.IsValid() {
		return fmt.Errorf("%w: unknown currency in pair %s/%s", apperrors.ErrValidation, from, to)
	}
	if from == to {
		return fmt.Errorf("%w: from and to currencies cannot be the same", apperrors.ErrValidation)
	}
	if rate.IsNegative() {
		return fmt.Errorf("%w: exchange rate cannot be negative", apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	inverse := domain.Inverse(rate)

	if s.isFallbackPair(from, to) {
		if s.fallback == nil {
			return fmt.Errorf("no fallback store configured for pair %s/%s", from, to)
		}
		s.fallback.Set(from, to, rate, now)
		s.fallback.Set(to, from, inverse, now)
		s.fileCache.Add(pairKey(from, to), domain.ExchangeRate{
			FromCurrency: from, ToCurrency: to,
			Rate: rate, InverseRate: inverse,
			Source: domain.SourceFallbackFile, IsActive: true, LastUpdated: now,
		})
		s.fileCache.Add(pairKey(to, from), domain.ExchangeRate{
			FromCurrency: to, ToCurrency: from,
			Rate: inverse, InverseRate: rate,
			Source: domain.SourceFallbackFile, IsActive: true, LastUpdated: now,
		})
		return nil
	}

	audit := domain.AuditFields{
		CreatedAt: now, CreatedBy: userID,
		LastUpdatedAt: now, LastUpdatedBy: userID,
	}
	forward := domain.ExchangeRate{
		ExchangeRateID: uuid.NewString(),
		FromCurrency:   from, ToCurrency: to,
		Rate: rate, InverseRate: inverse,
		Source: source, IsActive: true, LastUpdated: now,
		AuditFields: audit,
	}
	backward := domain.ExchangeRate{
		ExchangeRateID: uuid.NewString(),
		FromCurrency:   to, ToCurrency: from,
		Rate: inverse, InverseRate: rate,
		Source: source, IsActive: true, LastUpdated: now,
		AuditFields: audit,
	}

	if err := s.rateRepo.UpsertRatePair(ctx, forward, backward); err != nil {
		return fmt.Errorf("failed to save rate pair %s/%s: %w", from, to, err)
	}

	s.cache.Add(pairKey(from, to), forward)
	s.cache.Add(pairKey(to, from), backward)
	return nil
}
