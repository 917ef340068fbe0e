package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/nvcfund/exchange-platform/internal/core/domain"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountsByIDs retrieves multiple accounts by their IDs. Missing IDs
	// are simply absent from the returned map.
	FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)

	// ListAccountsByHolder retrieves every account owned by a holder.
	ListAccountsByHolder(ctx context.Context, holderID string) ([]domain.Account, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// SaveAccount persists a new account.
	SaveAccount(ctx context.Context, account domain.Account) error

	// UpdateAccountStatus changes the lifecycle status of an account.
	UpdateAccountStatus(ctx context.Context, accountID string, status domain.AccountStatus, userID string, now time.Time) error
}

// AccountTransactionSupport defines operations used inside a conversion's
// database transaction.
type AccountTransactionSupport interface {
	// FindAccountsByIDsForUpdate selects accounts and locks them FOR UPDATE
	// within tx. IDs are locked in sorted order to keep racing conversions on
	// the same pair from deadlocking.
	FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error)

	// ApplyBalanceChangesInTx applies signed deltas to balance and
	// available_balance and stamps last_transaction_at, all within tx.
	ApplyBalanceChangesInTx(ctx context.Context, tx pgx.Tx, changes map[string]decimal.Decimal, userID string, now time.Time) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
	AccountTransactionSupport
}

// AccountRepositoryWithTx extends AccountRepositoryFacade with transaction capabilities
type AccountRepositoryWithTx interface {
	AccountRepositoryFacade
	TransactionManager
}
