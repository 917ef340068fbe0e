package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nvcfund/exchange-platform/internal/apperrors"
	"github.com/nvcfund/exchange-platform/internal/core/domain"
	portsrepo "github.com/nvcfund/exchange-platform/internal/core/ports/repositories"
	"github.com/nvcfund/exchange-platform/internal/models"
)

// PgxTransactionRepository implements the exchange transaction repository
// using pgxpool.
type PgxTransactionRepository struct {
	BaseRepository
}

// NewPgxTransactionRepository creates a new PgxTransactionRepository.
func NewPgxTransactionRepository(pool *pgxpool.Pool) *PgxTransactionRepository {
	return &PgxTransactionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TransactionRepositoryWithTx = (*PgxTransactionRepository)(nil)

func toModelTransaction(d domain.ExchangeTransaction) models.ExchangeTransaction {
	return models.ExchangeTransaction{
		TransactionID:   d.TransactionID,
		ReferenceNumber: d.ReferenceNumber,
		HolderID:        d.HolderID,
		FromAccountID:   d.FromAccountID,
		ToAccountID:     d.ToAccountID,
		FromCurrency:    d.FromCurrency.String(),
		ToCurrency:      d.ToCurrency.String(),
		FromAmount:      d.FromAmount,
		ToAmount:        d.ToAmount,
		RateApplied:     d.RateApplied,
		RateSource:      string(d.RateSource),
		FeeAmount:       d.FeeAmount,
		FeeCurrency:     d.FeeCurrency.String(),
		ExchangeType:    string(d.ExchangeType),
		Status:          string(d.Status),
		CompletedAt:     d.CompletedAt,
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
	}
}

func toDomainTransaction(m models.ExchangeTransaction) domain.ExchangeTransaction {
	return domain.ExchangeTransaction{
		TransactionID:   m.TransactionID,
		ReferenceNumber: m.ReferenceNumber,
		HolderID:        m.HolderID,
		FromAccountID:   m.FromAccountID,
		ToAccountID:     m.ToAccountID,
		FromCurrency:    domain.Currency(m.FromCurrency),
		ToCurrency:      domain.Currency(m.ToCurrency),
		FromAmount:      m.FromAmount,
		ToAmount:        m.ToAmount,
		RateApplied:     m.RateApplied,
		RateSource:      domain.RateSource(m.RateSource),
		FeeAmount:       m.FeeAmount,
		FeeCurrency:     domain.Currency(m.FeeCurrency),
		ExchangeType:    domain.ExchangeType(m.ExchangeType),
		Status:          domain.TransactionStatus(m.Status),
		CompletedAt:     m.CompletedAt,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

const transactionColumns = `
	transaction_id, reference_number, holder_id, from_account_id, to_account_id,
	from_currency, to_currency, from_amount, to_amount, rate_applied, rate_source,
	fee_amount, fee_currency, exchange_type, status, completed_at,
	created_at, created_by, last_updated_at, last_updated_by`

func scanTransaction(row pgx.Row) (*models.ExchangeTransaction, error) {
	var m models.ExchangeTransaction
	err := row.Scan(
		&m.TransactionID, &m.ReferenceNumber, &m.HolderID, &m.FromAccountID, &m.ToAccountID,
		&m.FromCurrency, &m.ToCurrency, &m.FromAmount, &m.ToAmount, &m.RateApplied, &m.RateSource,
		&m.FeeAmount, &m.FeeCurrency, &m.ExchangeType, &m.Status, &m.CompletedAt,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SavePendingTransaction inserts a new transaction row with status PENDING.
func (r *PgxTransactionRepository) SavePendingTransaction(ctx context.Context, txn domain.ExchangeTransaction) error {
	m := toModelTransaction(txn)
	m.Status = string(domain.StatusPending)

	query := `
		INSERT INTO exchange_transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.TransactionID, m.ReferenceNumber, m.HolderID, m.FromAccountID, m.ToAccountID,
		m.FromCurrency, m.ToCurrency, m.FromAmount, m.ToAmount, m.RateApplied, m.RateSource,
		m.FeeAmount, m.FeeCurrency, m.ExchangeType, m.Status, m.CompletedAt,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: transaction %s or reference %s already exists",
				apperrors.ErrDuplicate, m.TransactionID, m.ReferenceNumber)
		}
		return fmt.Errorf("failed to save pending transaction %s: %w", m.TransactionID, err)
	}
	return nil
}

// CompleteTransactionInTx flips a pending row to COMPLETED within tx.
// The status predicate enforces the forward-only transition.
func (r *PgxTransactionRepository) CompleteTransactionInTx(ctx context.Context, tx pgx.Tx, transactionID string, userID string, now time.Time) error {
	tag, err := tx.Exec(ctx, `
		UPDATE exchange_transactions
		SET status = $1, completed_at = $2, last_updated_at = $2, last_updated_by = $3
		WHERE transaction_id = $4 AND status = $5;`,
		string(domain.StatusCompleted), now, userID, transactionID, string(domain.StatusPending),
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to complete transaction "+transactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s is not pending", transactionID)
	}
	return nil
}

// MarkTransactionFailed flips a pending row to FAILED outside the
// conversion's transaction scope.
func (r *PgxTransactionRepository) MarkTransactionFailed(ctx context.Context, transactionID string, userID string, now time.Time) error {
	tag, err := r.Pool.Exec(ctx, `
		UPDATE exchange_transactions
		SET status = $1, last_updated_at = $2, last_updated_by = $3
		WHERE transaction_id = $4 AND status = $5;`,
		string(domain.StatusFailed), now, userID, transactionID, string(domain.StatusPending),
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to mark transaction failed "+transactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s is not pending", transactionID)
	}
	return nil
}

// FindTransactionByID retrieves a transaction by its primary key.
func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.ExchangeTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM exchange_transactions WHERE transaction_id = $1;`
	m, err := scanTransaction(r.Pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("transaction " + transactionID + " not found")
		}
		return nil, apperrors.NewAppError(500, "failed to find transaction", err)
	}
	d := toDomainTransaction(*m)
	return &d, nil
}

// FindTransactionByReference retrieves a transaction by its unique reference number.
func (r *PgxTransactionRepository) FindTransactionByReference(ctx context.Context, referenceNumber string) (*domain.ExchangeTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM exchange_transactions WHERE reference_number = $1;`
	m, err := scanTransaction(r.Pool.QueryRow(ctx, query, referenceNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("transaction with reference " + referenceNumber + " not found")
		}
		return nil, apperrors.NewAppError(500, "failed to find transaction by reference", err)
	}
	d := toDomainTransaction(*m)
	return &d, nil
}

// ListTransactionsByHolder retrieves transactions for one holder, newest first.
func (r *PgxTransactionRepository) ListTransactionsByHolder(ctx context.Context, holderID string, limit, offset int) ([]domain.ExchangeTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM exchange_transactions
		WHERE holder_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3;
	`
	rows, err := r.Pool.Query(ctx, query, holderID, limit, offset)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list transactions", err)
	}
	defer rows.Close()

	var txns []domain.ExchangeTransaction
	for rows.Next() {
		m, err := scanTransaction(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan transaction", err)
		}
		txns = append(txns, toDomainTransaction(*m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating transactions", err)
	}
	return txns, nil
}
