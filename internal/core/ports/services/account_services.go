package services

import (
	"context"

	"github.com/nvcfund/exchange-platform/internal/core/domain"
	"github.com/nvcfund/exchange-platform/internal/dto"
)

// AccountSvcFacade covers the minimal account provisioning the conversion
// flow needs. Holder onboarding beyond this is out of scope.
type AccountSvcFacade interface {
	// CreateAccount opens a new ledger account for a holder.
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, creatorUserID string) (*domain.Account, error)

	// GetAccountByID retrieves one account.
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// ListAccountsByHolder retrieves every account owned by a holder.
	ListAccountsByHolder(ctx context.Context, holderID string) ([]domain.Account, error)

	// CloseAccount marks an account closed; closed accounts reject further
	// debits and credits.
	CloseAccount(ctx context.Context, accountID string, userID string) error
}
