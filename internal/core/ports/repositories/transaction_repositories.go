package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nvcfund/exchange-platform/internal/core/domain"
)

// TransactionReader defines read operations for exchange transaction records
type TransactionReader interface {
	// FindTransactionByID retrieves a transaction by its primary key.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.ExchangeTransaction, error)

	// FindTransactionByReference retrieves a transaction by its unique reference number.
	FindTransactionByReference(ctx context.Context, referenceNumber string) (*domain.ExchangeTransaction, error)

	// ListTransactionsByHolder retrieves transactions for one holder, newest first.
	ListTransactionsByHolder(ctx context.Context, holderID string, limit, offset int) ([]domain.ExchangeTransaction, error)
}

// TransactionWriter defines write operations for exchange transaction records
type TransactionWriter interface {
	// SavePendingTransaction inserts a new transaction row with status PENDING.
	SavePendingTransaction(ctx context.Context, txn domain.ExchangeTransaction) error

	// MarkTransactionFailed flips a pending row to FAILED outside the
	// conversion's transaction scope, so no row is left dangling as pending.
	MarkTransactionFailed(ctx context.Context, transactionID string, userID string, now time.Time) error

	// CompleteTransactionInTx flips a pending row to COMPLETED within tx.
	CompleteTransactionInTx(ctx context.Context, tx pgx.Tx, transactionID string, userID string, now time.Time) error
}

// TransactionRepositoryFacade combines all transaction-related repository interfaces
type TransactionRepositoryFacade interface {
	TransactionReader
	TransactionWriter
}

// TransactionRepositoryWithTx extends TransactionRepositoryFacade with transaction capabilities
type TransactionRepositoryWithTx interface {
	TransactionRepositoryFacade
	TransactionManager
}
