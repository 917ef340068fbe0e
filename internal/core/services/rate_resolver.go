package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nvcfund/exchange-platform/internal/apperrors"
	portssvc "github.com/nvcfund/exchange-platform/internal/core/ports/services"
	"github.com/nvcfund/exchange-platform/internal/core/domain"
	"github.com/nvcfund/exchange-platform/internal/middleware"
)

// RateResolverService walks the fallback chain:
// same-currency, direct, inverse, one-hop cross via the reserve currency,
// external feed, file fallback table, and finally either a tagged 1.0 or an
// explicit no-rate failure depending on configuration.
type RateResolverService struct {
	store    portssvc.RateStoreSvcFacade
	feed     portssvc.RateFeed
	fallback FallbackRateStore
	reserve  domain.Currency

	// unityFallback restores the legacy terminal behavior of returning 1.0
	// (tagged SourceUnityFallback) instead of failing. Callers performing
	// financial calculations must treat such a rate as suspect.
	unityFallback bool
}

// ResolverOption customizes a RateResolverService.
type ResolverOption func(*RateResolverService)

// WithExternalFeed enables the live market-data fetch step.
func WithExternalFeed(feed portssvc.RateFeed) ResolverOption {
	return func(s *RateResolverService) { s.feed = feed }
}

// WithFallbackTable enables the file-based fallback table step.
func WithFallbackTable(fallback FallbackRateStore) ResolverOption {
	return func(s *RateResolverService) { s.fallback = fallback }
}

// WithUnityFallback toggles the terminal 1.0 fallback.
func WithUnityFallback(enabled bool) ResolverOption {
	return func(s *RateResolverService) { s.unityFallback = enabled }
}

// NewRateResolverService creates a resolver rooted at the given reserve currency.
func NewRateResolverService(store portssvc.RateStoreSvcFacade, reserve domain.Currency, opts ...ResolverOption) *RateResolverService {
	s := &RateResolverService{store: store, reserve: reserve}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.RateResolverSvcFacade = (*RateResolverService)(nil)

// Resolve produces a best-effort rate for the pair, honoring the precedence
// rule that database-backed rates always beat file-fallback entries.
func (s *RateResolverService) Resolve(ctx context.Context, from, to domain.Currency) (*domain.Resolution, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now().UTC()

	// 1. Same currency short-circuits everything.
	if from == to {
		return &domain.Resolution{
			FromCurrency: from, ToCurrency: to,
			Rate: decimal.NewFromInt(1), Source: domain.SourceInternal, ResolvedAt: now,
		}, nil
	}

	// 2 & 3. Direct rate, then inverse.
	if rate, source, ok := s.storedRate(ctx, from, to); ok {
		return &domain.Resolution{
			FromCurrency: from, ToCurrency: to,
			Rate: rate, Source: source, ResolvedAt: now,
		}, nil
	}

	// 4. Cross rate through the reserve currency, bounded to one hop.
	if from != s.reserve && to != s.reserve {
		leg1, _, ok1 := s.storedRate(ctx, from, s.reserve)
		leg2, _, ok2 := s.storedRate(ctx, s.reserve, to)
		if ok1 && ok2 {
			return &domain.Resolution{
				FromCurrency: from, ToCurrency: to,
				Rate: leg1.Mul(leg2), Source: domain.SourceInternal, ResolvedAt: now,
			}, nil
		}
	}

	// 5. External market data, excluded when either side is platform-native
	// or partner-issued; no public feed quotes those.
	if s.feed != nil && feedEligible(from) && feedEligible(to) {
		if rate, ok := s.fetchExternal(ctx, from, to); ok {
			return &domain.Resolution{
				FromCurrency: from, ToCurrency: to,
				Rate: rate, Source: domain.SourceExternalFeed, ResolvedAt: now,
			}, nil
		}
	}

	// 6. File-based fallback table, direct then inverse.
	if s.fallback != nil {
		if rate, _, ok := s.fallback.Rate(from, to); ok && rate.IsPositive() {
			return &domain.Resolution{
				FromCurrency: from, ToCurrency: to,
				Rate: rate, Source: domain.SourceFallbackFile, ResolvedAt: now,
			}, nil
		}
		if rate, _, ok := s.fallback.Rate(to, from); ok && rate.IsPositive() {
			return &domain.Resolution{
				FromCurrency: from, ToCurrency: to,
				Rate: domain.Inverse(rate), Source: domain.SourceFallbackFile, ResolvedAt: now,
			}, nil
		}
	}

	// 7. Terminal step.
	if s.unityFallback {
		logger.Warn("Rate resolution exhausted, returning uncorroborated 1.0",
			slog.String("from", from.String()), slog.String("to", to.String()))
		return &domain.Resolution{
			FromCurrency: from, ToCurrency: to,
			Rate: decimal.NewFromInt(1), Source: domain.SourceUnityFallback, ResolvedAt: now,
		}, nil
	}
	return nil, fmt.Errorf("%w: %s/%s", apperrors.ErrNoRate, from, to)
}

// storedRate looks up the pair in the rate store, direct first, then the
// opposite direction inverted. Zero rates never resolve.
func (s *RateResolverService) storedRate(ctx context.Context, from, to domain.Currency) (decimal.Decimal, domain.RateSource, bool) {
	if stored, ok := s.store.GetRate(ctx, from, to); ok && stored.Rate.IsPositive() {
		return stored.Rate, stored.Source, true
	}
	if stored, ok := s.store.GetRate(ctx, to, from); ok && stored.Rate.IsPositive() {
		return domain.Inverse(stored.Rate), stored.Source, true
	}
	return decimal.Zero, "", false
}

// fetchExternal asks the feed for a quote and writes it back through the
// store so the next resolution hits the cache.
func (s *RateResolverService) fetchExternal(ctx context.Context, from, to domain.Currency) (decimal.Decimal, bool) {
	logger := middleware.GetLoggerFromCtx(ctx)

	rates, err := s.feed.FetchRates(ctx, from)
	if err != nil {
		logger.Warn("External rate feed fetch failed",
			slog.String("from", from.String()), slog.String("error", err.Error()))
		return decimal.Zero, false
	}

	rate, ok := rates[to]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, false
	}

	if err := s.store.SetRate(ctx, from, to, rate, domain.SourceExternalFeed, "rate-resolver"); err != nil {
		// Cache-fill is best effort; the quote is still good.
		logger.Warn("Failed to write back external rate",
			slog.String("from", from.String()), slog.String("to", to.String()),
			slog.String("error", err.Error()))
	}
	return rate, true
}

func feedEligible(c domain.Currency) bool {
	switch c.Class() {
	case domain.ClassNative, domain.ClassPartner:
		return false
	default:
		return true
	}
}
