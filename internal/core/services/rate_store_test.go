package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/nvcfund/exchange-platform/internal/apperrors"
	"github.com/nvcfund/exchange-platform/internal/core/domain"
	portssvc "github.com/nvcfund/exchange-platform/internal/core/ports/services"
	"github.com/nvcfund/exchange-platform/internal/core/services"
)

// --- Mock RateRepository ---
type MockRateRepository struct {
	mock.Mock
}

func (m *MockRateRepository) FindRate(ctx context.Context, from, to domain.Currency) (*domain.ExchangeRate, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeRate), args.Error(1)
}

func (m *MockRateRepository) ListRates(ctx context.Context, source *domain.RateSource) ([]domain.ExchangeRate, error) {
	args := m.Called(ctx, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExchangeRate), args.Error(1)
}

func (m *MockRateRepository) UpsertRatePair(ctx context.Context, rate, inverse domain.ExchangeRate) error {
	args := m.Called(ctx, rate, inverse)
	return args.Error(0)
}

func (m *MockRateRepository) DeactivateRatesBySource(ctx context.Context, source domain.RateSource, userID string) error {
	args := m.Called(ctx, source, userID)
	return args.Error(0)
}

// fakeFallbackStore is an in-memory stand-in for the file-backed table.
type fakeFallbackStore struct {
	mu      sync.Mutex
	entries map[string]decimal.Decimal
	updated map[string]time.Time
}

func newFakeFallbackStore() *fakeFallbackStore {
	return &fakeFallbackStore{
		entries: make(map[string]decimal.Decimal),
		updated: make(map[string]time.Time),
	}
}

func (f *fakeFallbackStore) key(from, to domain.Currency) string {
	return string(from) + "_" + string(to)
}

func (f *fakeFallbackStore) Rate(from, to domain.Currency) (decimal.Decimal, time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rate, ok := f.entries[f.key(from, to)]
	return rate, f.updated[f.key(from, to)], ok
}

func (f *fakeFallbackStore) Set(from, to domain.Currency, rate decimal.Decimal, now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[f.key(from, to)] = rate
	f.updated[f.key(from, to)] = now
}

// --- Test Suite ---
type RateStoreServiceTestSuite struct {
	suite.Suite
	mockRateRepo *MockRateRepository
	fallback     *fakeFallbackStore
	service      portssvc.RateStoreSvcFacade
}

func (suite *RateStoreServiceTestSuite) SetupTest() {
	suite.mockRateRepo = new(MockRateRepository)
	suite.fallback = newFakeFallbackStore()
	suite.service = services.NewRateStoreService(
		suite.mockRateRepo,
		suite.fallback,
		domain.FallbackOnlyCurrencies,
	)
}

func (suite *RateStoreServiceTestSuite) TestGetRate_HitsRepoThenCache() {
	ctx := context.Background()
	stored := &domain.ExchangeRate{
		ExchangeRateID: "rate-1",
		FromCurrency:   domain.USD,
		ToCurrency:     domain.EUR,
		Rate:           decimal.NewFromFloat(0.92),
		InverseRate:    domain.Inverse(decimal.NewFromFloat(0.92)),
		Source:         domain.SourceManual,
		IsActive:       true,
	}

	suite.mockRateRepo.On("FindRate", ctx, domain.USD, domain.EUR).Return(stored, nil).Once()

	rate, ok := suite.service.GetRate(ctx, domain.USD, domain.EUR)
	suite.Require().True(ok)
	suite.True(rate.Rate.Equal(decimal.NewFromFloat(0.92)))

	// Second read must come from the cache; the repo expectation is Once.
	rate, ok = suite.service.GetRate(ctx, domain.USD, domain.EUR)
	suite.Require().True(ok)
	suite.True(rate.Rate.Equal(decimal.NewFromFloat(0.92)))

	suite.mockRateRepo.AssertExpectations(suite.T())
}

func (suite *RateStoreServiceTestSuite) TestGetRate_NotFound() {
	ctx := context.Background()
	suite.mockRateRepo.On("FindRate", ctx, domain.USD, domain.JPY).
		Return(nil, apperrors.NewNotFoundError("no rate")).Once()

	rate, ok := suite.service.GetRate(ctx, domain.USD, domain.JPY)
	suite.False(ok)
	suite.Nil(rate)
	suite.mockRateRepo.AssertExpectations(suite.T())
}

func (suite *RateStoreServiceTestSuite) TestGetRate_RepoErrorReportedAsAbsent() {
	ctx := context.Background()
	suite.mockRateRepo.On("FindRate", ctx, domain.USD, domain.EUR).
		Return(nil, apperrors.NewAppError(500, "connection refused", nil)).Once()

	rate, ok := suite.service.GetRate(ctx, domain.USD, domain.EUR)
	suite.False(ok)
	suite.Nil(rate)
	suite.mockRateRepo.AssertExpectations(suite.T())
}

func (suite *RateStoreServiceTestSuite) TestGetRate_FallbackPairRoutesToFileStore() {
	ctx := context.Background()
	now := time.Now().UTC()
	suite.fallback.Set(domain.USD, domain.SLL, decimal.NewFromInt(22000), now)

	rate, ok := suite.service.GetRate(ctx, domain.USD, domain.SLL)
	suite.Require().True(ok)
	suite.True(rate.Rate.Equal(decimal.NewFromInt(22000)))
	suite.Equal(domain.SourceFallbackFile, rate.Source)

	// The relational repository must not have been consulted.
	suite.mockRateRepo.AssertNotCalled(suite.T(), "FindRate")
}

func (suite *RateStoreServiceTestSuite) TestGetRate_FallbackPairAbsent() {
	ctx := context.Background()
	rate, ok := suite.service.GetRate(ctx, domain.USD, domain.GMD)
	suite.False(ok)
	suite.Nil(rate)
	suite.mockRateRepo.AssertNotCalled(suite.T(), "FindRate")
}

func (suite *RateStoreServiceTestSuite) TestSetRate_PersistsBothDirections() {
	ctx := context.Background()
	rate := decimal.NewFromFloat(0.92)

	suite.mockRateRepo.On("UpsertRatePair", ctx,
		mock.MatchedBy(func(r domain.ExchangeRate) bool {
			return r.FromCurrency == domain.USD && r.ToCurrency == domain.EUR && r.Rate.Equal(rate)
		}),
		mock.MatchedBy(func(r domain.ExchangeRate) bool {
			return r.FromCurrency == domain.EUR && r.ToCurrency == domain.USD &&
				r.Rate.Equal(domain.Inverse(rate))
		}),
	).Return(nil).Once()

	err := suite.service.SetRate(ctx, domain.USD, domain.EUR, rate, domain.SourceManual, "user-1")
	suite.Require().NoError(err)

	// Both directions should now be cache hits; no further repo reads.
	forward, ok := suite.service.GetRate(ctx, domain.USD, domain.EUR)
	suite.Require().True(ok)
	suite.True(forward.Rate.Equal(rate))

	backward, ok := suite.service.GetRate(ctx, domain.EUR, domain.USD)
	suite.Require().True(ok)
	suite.True(backward.Rate.Equal(domain.Inverse(rate)))

	suite.mockRateRepo.AssertExpectations(suite.T())
	suite.mockRateRepo.AssertNotCalled(suite.T(), "FindRate")
}

func (suite *RateStoreServiceTestSuite) TestSetRate_ZeroRateStoresZeroInverse() {
	ctx := context.Background()

	suite.mockRateRepo.On("UpsertRatePair", ctx,
		mock.MatchedBy(func(r domain.ExchangeRate) bool { return r.Rate.IsZero() }),
		mock.MatchedBy(func(r domain.ExchangeRate) bool { return r.Rate.IsZero() }),
	).Return(nil).Once()

	err := suite.service.SetRate(ctx, domain.USD, domain.EUR, decimal.Zero, domain.SourceManual, "user-1")
	suite.Require().NoError(err)
	suite.mockRateRepo.AssertExpectations(suite.T())
}

func (suite *RateStoreServiceTestSuite) TestSetRate_SameCurrency() {
	err := suite.service.SetRate(context.Background(), domain.USD, domain.USD, decimal.NewFromInt(1), domain.SourceManual, "user-1")
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRateRepo.AssertNotCalled(suite.T(), "UpsertRatePair")
}

func (suite *RateStoreServiceTestSuite) TestSetRate_NegativeRate() {
	err := suite.service.SetRate(context.Background(), domain.USD, domain.EUR, decimal.NewFromInt(-1), domain.SourceManual, "user-1")
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *RateStoreServiceTestSuite) TestSetRate_UnknownCurrency() {
	err := suite.service.SetRate(context.Background(), domain.Currency("XYZ"), domain.EUR, decimal.NewFromInt(1), domain.SourceManual, "user-1")
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *RateStoreServiceTestSuite) TestSetRate_FallbackPairWritesFileStore() {
	ctx := context.Background()
	rate := decimal.NewFromInt(22000)

	err := suite.service.SetRate(ctx, domain.USD, domain.SLL, rate, domain.SourceManual, "user-1")
	suite.Require().NoError(err)

	stored, _, ok := suite.fallback.Rate(domain.USD, domain.SLL)
	suite.Require().True(ok)
	suite.True(stored.Equal(rate))

	inverse, _, ok := suite.fallback.Rate(domain.SLL, domain.USD)
	suite.Require().True(ok)
	suite.True(inverse.Equal(domain.Inverse(rate)))

	suite.mockRateRepo.AssertNotCalled(suite.T(), "UpsertRatePair")
}

func TestNewRateStoreService(t *testing.T) {
	service := services.NewRateStoreService(new(MockRateRepository), newFakeFallbackStore(), domain.FallbackOnlyCurrencies,
		services.WithCacheTTL(time.Minute), services.WithCacheSize(10))
	assert.NotNil(t, service)
	var _ portssvc.RateStoreSvcFacade = service
}

func TestRateStoreService(t *testing.T) {
	suite.Run(t, new(RateStoreServiceTestSuite))
}
