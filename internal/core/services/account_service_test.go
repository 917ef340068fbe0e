package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/nvcfund/exchange-platform/internal/apperrors"
	"github.com/nvcfund/exchange-platform/internal/core/domain"
	portssvc "github.com/nvcfund/exchange-platform/internal/core/ports/services"
	"github.com/nvcfund/exchange-platform/internal/core/services"
	"github.com/nvcfund/exchange-platform/internal/dto"
)

type AccountServiceTestSuite struct {
	suite.Suite
	mockAccountRepo *MockAccountRepository
	service         portssvc.AccountSvcFacade
}

func (suite *AccountServiceTestSuite) SetupTest() {
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.service = services.NewAccountService(suite.mockAccountRepo)
}

func (suite *AccountServiceTestSuite) TestCreateAccount_Success() {
	ctx := context.Background()
	holderID := uuid.NewString()
	req := dto.CreateAccountRequest{
		HolderID:       holderID,
		Currency:       "usd", // normalization test
		InitialBalance: decimal.NewFromInt(500),
	}

	suite.mockAccountRepo.On("SaveAccount", ctx, mock.MatchedBy(func(a domain.Account) bool {
		return a.HolderID == holderID &&
			a.Currency == domain.USD &&
			a.Status == domain.AccountActive &&
			a.Balance.Equal(decimal.NewFromInt(500)) &&
			a.AvailableBalance.Equal(decimal.NewFromInt(500))
	})).Return(nil).Once()

	account, err := suite.service.CreateAccount(ctx, req, "user-1")

	suite.Require().NoError(err)
	suite.Require().NotNil(account)
	suite.NotEmpty(account.AccountID)
	suite.True(strings.HasPrefix(account.AccountNumber, "USD-"))
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestCreateAccount_UnknownCurrency() {
	req := dto.CreateAccountRequest{HolderID: uuid.NewString(), Currency: "XXX"}

	account, err := suite.service.CreateAccount(context.Background(), req, "user-1")

	suite.Require().Error(err)
	suite.Nil(account)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "SaveAccount")
}

func (suite *AccountServiceTestSuite) TestCreateAccount_NegativeInitialBalance() {
	req := dto.CreateAccountRequest{
		HolderID:       uuid.NewString(),
		Currency:       "USD",
		InitialBalance: decimal.NewFromInt(-1),
	}

	account, err := suite.service.CreateAccount(context.Background(), req, "user-1")

	suite.Require().Error(err)
	suite.Nil(account)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *AccountServiceTestSuite) TestCloseAccount_AlreadyClosed() {
	ctx := context.Background()
	closed := &domain.Account{AccountID: "acc-1", Status: domain.AccountClosed}

	suite.mockAccountRepo.On("FindAccountByID", ctx, "acc-1").Return(closed, nil).Once()

	err := suite.service.CloseAccount(ctx, "acc-1", "user-1")

	suite.Require().NoError(err)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "UpdateAccountStatus")
}

func (suite *AccountServiceTestSuite) TestCloseAccount_Active() {
	ctx := context.Background()
	active := &domain.Account{AccountID: "acc-1", Status: domain.AccountActive}

	suite.mockAccountRepo.On("FindAccountByID", ctx, "acc-1").Return(active, nil).Once()
	suite.mockAccountRepo.On("UpdateAccountStatus", ctx, "acc-1", domain.AccountClosed, "user-1", mock.Anything).
		Return(nil).Once()

	err := suite.service.CloseAccount(ctx, "acc-1", "user-1")

	suite.Require().NoError(err)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestListAccountsByHolder_NilBecomesEmpty() {
	ctx := context.Background()
	holderID := uuid.NewString()

	suite.mockAccountRepo.On("ListAccountsByHolder", ctx, holderID).
		Return([]domain.Account(nil), nil).Once()

	accounts, err := suite.service.ListAccountsByHolder(ctx, holderID)

	suite.Require().NoError(err)
	suite.NotNil(accounts)
	suite.Empty(accounts)
}

func TestAccountService(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}
