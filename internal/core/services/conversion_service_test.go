package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/nvcfund/exchange-platform/internal/apperrors"
	"github.com/nvcfund/exchange-platform/internal/core/domain"
	portssvc "github.com/nvcfund/exchange-platform/internal/core/ports/services"
	"github.com/nvcfund/exchange-platform/internal/core/services"
	"github.com/nvcfund/exchange-platform/internal/dto"
)

// --- Mock AccountRepository ---
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccountsByHolder(ctx context.Context, holderID string) ([]domain.Account, error) {
	args := m.Called(ctx, holderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateAccountStatus(ctx context.Context, accountID string, status domain.AccountStatus, userID string, now time.Time) error {
	args := m.Called(ctx, accountID, status, userID, now)
	return args.Error(0)
}

func (m *MockAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, tx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ApplyBalanceChangesInTx(ctx context.Context, tx pgx.Tx, changes map[string]decimal.Decimal, userID string, now time.Time) error {
	args := m.Called(ctx, tx, changes, userID, now)
	return args.Error(0)
}

// --- Mock TransactionRepository ---
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.ExchangeTransaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeTransaction), args.Error(1)
}

func (m *MockTransactionRepository) FindTransactionByReference(ctx context.Context, referenceNumber string) (*domain.ExchangeTransaction, error) {
	args := m.Called(ctx, referenceNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeTransaction), args.Error(1)
}

func (m *MockTransactionRepository) ListTransactionsByHolder(ctx context.Context, holderID string, limit, offset int) ([]domain.ExchangeTransaction, error) {
	args := m.Called(ctx, holderID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExchangeTransaction), args.Error(1)
}

func (m *MockTransactionRepository) SavePendingTransaction(ctx context.Context, txn domain.ExchangeTransaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) MarkTransactionFailed(ctx context.Context, transactionID string, userID string, now time.Time) error {
	args := m.Called(ctx, transactionID, userID, now)
	return args.Error(0)
}

func (m *MockTransactionRepository) CompleteTransactionInTx(ctx context.Context, tx pgx.Tx, transactionID string, userID string, now time.Time) error {
	args := m.Called(ctx, tx, transactionID, userID, now)
	return args.Error(0)
}

func (m *MockTransactionRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockTransactionRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// --- Mock RateResolver ---
type MockRateResolver struct {
	mock.Mock
}

func (m *MockRateResolver) Resolve(ctx context.Context, from, to domain.Currency) (*domain.Resolution, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Resolution), args.Error(1)
}

// --- Test Suite ---
type ConversionServiceTestSuite struct {
	suite.Suite
	mockAccountRepo *MockAccountRepository
	mockTxnRepo     *MockTransactionRepository
	mockResolver    *MockRateResolver
	service         portssvc.ConversionSvcFacade

	holderID string
	fromAcc  domain.Account
	toAcc    domain.Account
}

func (suite *ConversionServiceTestSuite) SetupTest() {
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockTxnRepo = new(MockTransactionRepository)
	suite.mockResolver = new(MockRateResolver)
	suite.service = services.NewConversionService(suite.mockAccountRepo, suite.mockTxnRepo, suite.mockResolver)

	suite.holderID = uuid.NewString()
	suite.fromAcc = domain.Account{
		AccountID:        "acc-from",
		HolderID:         suite.holderID,
		Currency:         domain.USD,
		Balance:          decimal.NewFromInt(1000),
		AvailableBalance: decimal.NewFromInt(1000),
		Status:           domain.AccountActive,
	}
	suite.toAcc = domain.Account{
		AccountID:        "acc-to",
		HolderID:         suite.holderID,
		Currency:         domain.EUR,
		Balance:          decimal.Zero,
		AvailableBalance: decimal.Zero,
		Status:           domain.AccountActive,
	}
}

func (suite *ConversionServiceTestSuite) request(amount int64) dto.ConversionRequest {
	return dto.ConversionRequest{
		HolderID:      suite.holderID,
		FromAccountID: suite.fromAcc.AccountID,
		ToAccountID:   suite.toAcc.AccountID,
		Amount:        decimal.NewFromInt(amount),
	}
}

func (suite *ConversionServiceTestSuite) accountsByID() map[string]domain.Account {
	return map[string]domain.Account{
		suite.fromAcc.AccountID: suite.fromAcc,
		suite.toAcc.AccountID:   suite.toAcc,
	}
}

func (suite *ConversionServiceTestSuite) expectResolution(rate float64) {
	suite.mockResolver.On("Resolve", mock.Anything, domain.USD, domain.EUR).
		Return(&domain.Resolution{
			FromCurrency: domain.USD,
			ToCurrency:   domain.EUR,
			Rate:         decimal.NewFromFloat(rate),
			Source:       domain.SourceManual,
			ResolvedAt:   time.Now().UTC(),
		}, nil).Once()
}

func (suite *ConversionServiceTestSuite) TestConvert_Success() {
	ctx := context.Background()
	req := suite.request(100)

	suite.mockAccountRepo.On("FindAccountsByIDs", ctx, []string{req.FromAccountID, req.ToAccountID}).
		Return(suite.accountsByID(), nil).Once()
	suite.expectResolution(0.9)

	suite.mockTxnRepo.On("SavePendingTransaction", ctx, mock.MatchedBy(func(t domain.ExchangeTransaction) bool {
		return t.Status == domain.StatusPending && t.FromAmount.Equal(decimal.NewFromInt(100))
	})).Return(nil).Once()

	suite.mockTxnRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockAccountRepo.On("FindAccountsByIDsForUpdate", ctx, mock.Anything, []string{"acc-from", "acc-to"}).
		Return(suite.accountsByID(), nil).Once()

	var appliedChanges map[string]decimal.Decimal
	suite.mockAccountRepo.On("ApplyBalanceChangesInTx", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			appliedChanges = args.Get(2).(map[string]decimal.Decimal)
		}).Return(nil).Once()

	suite.mockTxnRepo.On("CompleteTransactionInTx", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil).Once()
	suite.mockTxnRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()
	suite.mockTxnRepo.On("Rollback", ctx, mock.Anything).Return(nil).Maybe()

	result, err := suite.service.Convert(ctx, req, "user-1")

	suite.Require().NoError(err)
	suite.Require().NotNil(result)
	suite.True(result.Success)
	suite.Equal(domain.StatusCompleted, result.Status)
	suite.True(result.ToAmount.Equal(decimal.NewFromInt(90)))
	suite.True(result.Fee.IsZero())
	suite.NotEmpty(result.ReferenceNumber)

	// Fee-free conversion conserves value: debit × rate = credit.
	suite.Require().NotNil(appliedChanges)
	debit := appliedChanges["acc-from"].Neg()
	credit := appliedChanges["acc-to"]
	suite.True(debit.Mul(decimal.NewFromFloat(0.9)).Equal(credit))

	suite.mockAccountRepo.AssertExpectations(suite.T())
	suite.mockTxnRepo.AssertExpectations(suite.T())
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "MarkTransactionFailed")
}

func (suite *ConversionServiceTestSuite) TestConvert_WithFee() {
	ctx := context.Background()
	req := suite.request(100)
	req.ApplyFee = true
	req.FeePercent = decimal.NewFromInt(2)

	suite.mockAccountRepo.On("FindAccountsByIDs", ctx, mock.Anything).
		Return(suite.accountsByID(), nil).Once()
	suite.expectResolution(0.9)

	suite.mockTxnRepo.On("SavePendingTransaction", ctx, mock.Anything).Return(nil).Once()
	suite.mockTxnRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockAccountRepo.On("FindAccountsByIDsForUpdate", ctx, mock.Anything, mock.Anything).
		Return(suite.accountsByID(), nil).Once()
	suite.mockAccountRepo.On("ApplyBalanceChangesInTx", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil).Once()
	suite.mockTxnRepo.On("CompleteTransactionInTx", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil).Once()
	suite.mockTxnRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()
	suite.mockTxnRepo.On("Rollback", ctx, mock.Anything).Return(nil).Maybe()

	result, err := suite.service.Convert(ctx, req, "user-1")

	suite.Require().NoError(err)
	// Fee is 2% of 100 in the source currency; conversion applies to the net.
	suite.True(result.Fee.Equal(decimal.NewFromInt(2)))
	suite.Equal(domain.USD, result.FeeCurrency)
	suite.True(result.ToAmount.Equal(decimal.NewFromInt(98).Mul(decimal.NewFromFloat(0.9))))
}

func (suite *ConversionServiceTestSuite) TestConvert_NonPositiveAmount() {
	result, err := suite.service.Convert(context.Background(), suite.request(0), "user-1")
	suite.Require().Error(err)
	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "FindAccountsByIDs")
}

func (suite *ConversionServiceTestSuite) TestConvert_SameAccount() {
	req := suite.request(100)
	req.ToAccountID = req.FromAccountID

	result, err := suite.service.Convert(context.Background(), req, "user-1")
	suite.Require().Error(err)
	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *ConversionServiceTestSuite) TestConvert_AccountsNotFound() {
	ctx := context.Background()
	req := suite.request(100)

	suite.mockAccountRepo.On("FindAccountsByIDs", ctx, mock.Anything).
		Return(map[string]domain.Account{suite.fromAcc.AccountID: suite.fromAcc}, nil).Once()

	result, err := suite.service.Convert(ctx, req, "user-1")
	suite.Require().Error(err)
	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrAccountsNotFound)
	suite.Equal("accounts_not_found", apperrors.ReasonCode(err))
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "SavePendingTransaction")
}

func (suite *ConversionServiceTestSuite) TestConvert_OwnershipMismatch() {
	ctx := context.Background()
	req := suite.request(100)
	suite.toAcc.HolderID = uuid.NewString() // different owner

	suite.mockAccountRepo.On("FindAccountsByIDs", ctx, mock.Anything).
		Return(suite.accountsByID(), nil).Once()

	result, err := suite.service.Convert(ctx, req, "user-1")
	suite.Require().Error(err)
	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrOwnershipMismatch)
	suite.Equal("ownership_mismatch", apperrors.ReasonCode(err))
}

func (suite *ConversionServiceTestSuite) TestConvert_ClosedAccount() {
	ctx := context.Background()
	req := suite.request(100)
	suite.toAcc.Status = domain.AccountClosed

	suite.mockAccountRepo.On("FindAccountsByIDs", ctx, mock.Anything).
		Return(suite.accountsByID(), nil).Once()

	result, err := suite.service.Convert(ctx, req, "user-1")
	suite.Require().Error(err)
	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrAccountInactive)
}

func (suite *ConversionServiceTestSuite) TestConvert_InsufficientBalance() {
	ctx := context.Background()
	req := suite.request(5000)

	suite.mockAccountRepo.On("FindAccountsByIDs", ctx, mock.Anything).
		Return(suite.accountsByID(), nil).Once()

	result, err := suite.service.Convert(ctx, req, "user-1")
	suite.Require().Error(err)
	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrInsufficientBalance)
	suite.Equal("insufficient_balance", apperrors.ReasonCode(err))
	suite.mockResolver.AssertNotCalled(suite.T(), "Resolve")
}

func (suite *ConversionServiceTestSuite) TestConvert_RateUnavailable() {
	ctx := context.Background()
	req := suite.request(100)

	suite.mockAccountRepo.On("FindAccountsByIDs", ctx, mock.Anything).
		Return(suite.accountsByID(), nil).Once()
	suite.mockResolver.On("Resolve", ctx, domain.USD, domain.EUR).
		Return(nil, fmt.Errorf("%w: USD/EUR", apperrors.ErrNoRate)).Once()

	result, err := suite.service.Convert(ctx, req, "user-1")
	suite.Require().Error(err)
	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrRateUnavailable)
	suite.Equal("rate_unavailable", apperrors.ReasonCode(err))
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "SavePendingTransaction")
}

func (suite *ConversionServiceTestSuite) TestConvert_SettleFailureMarksTransactionFailed() {
	ctx := context.Background()
	req := suite.request(100)

	suite.mockAccountRepo.On("FindAccountsByIDs", ctx, mock.Anything).
		Return(suite.accountsByID(), nil).Once()
	suite.expectResolution(0.9)

	var pendingID string
	suite.mockTxnRepo.On("SavePendingTransaction", ctx, mock.Anything).
		Run(func(args mock.Arguments) {
			pendingID = args.Get(1).(domain.ExchangeTransaction).TransactionID
		}).Return(nil).Once()

	suite.mockTxnRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockAccountRepo.On("FindAccountsByIDsForUpdate", ctx, mock.Anything, mock.Anything).
		Return(suite.accountsByID(), nil).Once()
	suite.mockAccountRepo.On("ApplyBalanceChangesInTx", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(fmt.Errorf("serialization failure")).Once()
	suite.mockTxnRepo.On("Rollback", ctx, mock.Anything).Return(nil).Once()
	suite.mockTxnRepo.On("MarkTransactionFailed", ctx, mock.Anything, "user-1", mock.Anything).
		Return(nil).Once()

	result, err := suite.service.Convert(ctx, req, "user-1")

	suite.Require().Error(err)
	suite.Nil(result)
	suite.NotEmpty(pendingID)
	suite.mockTxnRepo.AssertCalled(suite.T(), "MarkTransactionFailed", ctx, pendingID, "user-1", mock.Anything)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "Commit")
}

func (suite *ConversionServiceTestSuite) TestConvert_BalanceRecheckUnderLock() {
	// Funds present at precondition time but drained before the lock: the
	// settle step must fail and the record must flip to FAILED.
	ctx := context.Background()
	req := suite.request(100)

	suite.mockAccountRepo.On("FindAccountsByIDs", ctx, mock.Anything).
		Return(suite.accountsByID(), nil).Once()
	suite.expectResolution(0.9)
	suite.mockTxnRepo.On("SavePendingTransaction", ctx, mock.Anything).Return(nil).Once()
	suite.mockTxnRepo.On("Begin", ctx).Return(nil, nil).Once()

	drained := suite.fromAcc
	drained.AvailableBalance = decimal.NewFromInt(10)
	suite.mockAccountRepo.On("FindAccountsByIDsForUpdate", ctx, mock.Anything, mock.Anything).
		Return(map[string]domain.Account{
			suite.fromAcc.AccountID: drained,
			suite.toAcc.AccountID:   suite.toAcc,
		}, nil).Once()
	suite.mockTxnRepo.On("Rollback", ctx, mock.Anything).Return(nil).Once()
	suite.mockTxnRepo.On("MarkTransactionFailed", ctx, mock.Anything, mock.Anything, mock.Anything).
		Return(nil).Once()

	result, err := suite.service.Convert(ctx, req, "user-1")

	suite.Require().Error(err)
	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrInsufficientBalance)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "ApplyBalanceChangesInTx")
}

func (suite *ConversionServiceTestSuite) TestGetTransaction_NotFound() {
	ctx := context.Background()
	suite.mockTxnRepo.On("FindTransactionByID", ctx, "missing").
		Return(nil, apperrors.NewNotFoundError("transaction missing not found")).Once()

	txn, err := suite.service.GetTransaction(ctx, "missing")
	suite.Require().Error(err)
	suite.Nil(txn)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *ConversionServiceTestSuite) TestListTransactions_DefaultsLimit() {
	ctx := context.Background()
	suite.mockTxnRepo.On("ListTransactionsByHolder", ctx, suite.holderID, 50, 0).
		Return([]domain.ExchangeTransaction{}, nil).Once()

	txns, err := suite.service.ListTransactions(ctx, suite.holderID, 0, 0)
	suite.Require().NoError(err)
	suite.Empty(txns)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func TestConversionService(t *testing.T) {
	suite.Run(t, new(ConversionServiceTestSuite))
}
