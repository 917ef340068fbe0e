package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nvcfund/exchange-platform/internal/apperrors"
	portsrepo "github.com/nvcfund/exchange-platform/internal/core/ports/repositories"
	portssvc "github.com/nvcfund/exchange-platform/internal/core/ports/services"
	"github.com/nvcfund/exchange-platform/internal/core/domain"
	"github.com/nvcfund/exchange-platform/internal/dto"
	"github.com/nvcfund/exchange-platform/internal/utils"
)

// accountService covers the minimal account provisioning the conversion
// engine needs.
type accountService struct {
	accountRepo portsrepo.AccountRepositoryFacade
}

// NewAccountService creates an AccountSvcFacade implementation.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade) portssvc.AccountSvcFacade {
	return &accountService{accountRepo: accountRepo}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// CreateAccount opens a new ledger account for a holder.
func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, creatorUserID string) (*domain.Account, error) {
	currency, ok := domain.ParseCurrency(req.Currency)
	if !ok {
		return nil, fmt.Errorf("%w: unknown currency code %q", apperrors.ErrValidation, req.Currency)
	}
	if req.InitialBalance.IsNegative() {
		return nil, fmt.Errorf("%w: initial balance cannot be negative", apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	number, err := utils.NewAccountNumber(currency.String(), now)
	if err != nil {
		return nil, fmt.Errorf("failed to generate account number: %w", err)
	}

	account := domain.Account{
		AccountID:        uuid.NewString(),
		HolderID:         req.HolderID,
		AccountNumber:    number,
		Currency:         currency,
		Balance:          req.InitialBalance,
		AvailableBalance: req.InitialBalance,
		Status:           domain.AccountActive,
		AuditFields: domain.AuditFields{
			CreatedAt: now, CreatedBy: creatorUserID,
			LastUpdatedAt: now, LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return &account, nil
}

// GetAccountByID retrieves one account.
func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", accountID, err)
	}
	return account, nil
}

// ListAccountsByHolder retrieves every account owned by a holder.
func (s *accountService) ListAccountsByHolder(ctx context.Context, holderID string) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListAccountsByHolder(ctx, holderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts for holder %s: %w", holderID, err)
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	return accounts, nil
}

// CloseAccount marks an account closed. Closed accounts reject further
// debits and credits.
func (s *accountService) CloseAccount(ctx context.Context, accountID string, userID string) error {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to load account %s: %w", accountID, err)
	}
	if account.Status == domain.AccountClosed {
		return nil
	}
	if err := s.accountRepo.UpdateAccountStatus(ctx, accountID, domain.AccountClosed, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to close account %s: %w", accountID, err)
	}
	return nil
}
