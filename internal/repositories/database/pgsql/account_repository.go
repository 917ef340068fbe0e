package pgsql

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/nvcfund/exchange-platform/internal/apperrors"
	"github.com/nvcfund/exchange-platform/internal/core/domain"
	portsrepo "github.com/nvcfund/exchange-platform/internal/core/ports/repositories"
	"github.com/nvcfund/exchange-platform/internal/models"
)

// PgxAccountRepository implements the account repository using pgxpool.
type PgxAccountRepository struct {
	BaseRepository
}

// NewPgxAccountRepository creates a new PgxAccountRepository.
func NewPgxAccountRepository(pool *pgxpool.Pool) *PgxAccountRepository {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AccountRepositoryWithTx = (*PgxAccountRepository)(nil)

func toModelAccount(d domain.Account) models.Account {
	return models.Account{
		AccountID:         d.AccountID,
		HolderID:          d.HolderID,
		AccountNumber:     d.AccountNumber,
		Currency:          d.Currency.String(),
		Balance:           d.Balance,
		AvailableBalance:  d.AvailableBalance,
		Status:            string(d.Status),
		LastTransactionAt: d.LastTransactionAt,
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
	}
}

func toDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		AccountID:         m.AccountID,
		HolderID:          m.HolderID,
		AccountNumber:     m.AccountNumber,
		Currency:          domain.Currency(m.Currency),
		Balance:           m.Balance,
		AvailableBalance:  m.AvailableBalance,
		Status:            domain.AccountStatus(m.Status),
		LastTransactionAt: m.LastTransactionAt,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

const accountColumns = `
	account_id, holder_id, account_number, currency, balance, available_balance,
	status, last_transaction_at,
	created_at, created_by, last_updated_at, last_updated_by`

func scanAccount(row pgx.Row) (*models.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.AccountID, &m.HolderID, &m.AccountNumber, &m.Currency, &m.Balance, &m.AvailableBalance,
		&m.Status, &m.LastTransactionAt,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveAccount inserts a new account.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	m := toModelAccount(account)
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.AccountID, m.HolderID, m.AccountNumber, m.Currency, m.Balance, m.AvailableBalance,
		m.Status, m.LastTransactionAt,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: account with ID %s already exists", apperrors.ErrDuplicate, m.AccountID)
		}
		return fmt.Errorf("failed to save account %s: %w", m.AccountID, err)
	}
	return nil
}

// FindAccountByID retrieves a specific account by its unique identifier.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1;`
	m, err := scanAccount(r.Pool.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("account " + accountID + " not found")
		}
		return nil, apperrors.NewAppError(500, "failed to find account", err)
	}
	d := toDomainAccount(*m)
	return &d, nil
}

// FindAccountsByIDs retrieves multiple accounts by their IDs.
func (r *PgxAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = ANY($1);`
	rows, err := r.Pool.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to find accounts", err)
	}
	defer rows.Close()

	accounts := make(map[string]domain.Account, len(accountIDs))
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan account", err)
		}
		accounts[m.AccountID] = toDomainAccount(*m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating accounts", err)
	}
	return accounts, nil
}

// ListAccountsByHolder retrieves every account owned by a holder.
func (r *PgxAccountRepository) ListAccountsByHolder(ctx context.Context, holderID string) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE holder_id = $1 ORDER BY created_at;`
	rows, err := r.Pool.Query(ctx, query, holderID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list accounts", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan account", err)
		}
		accounts = append(accounts, toDomainAccount(*m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating accounts", err)
	}
	return accounts, nil
}

// UpdateAccountStatus changes the lifecycle status of an account.
func (r *PgxAccountRepository) UpdateAccountStatus(ctx context.Context, accountID string, status domain.AccountStatus, userID string, now time.Time) error {
	tag, err := r.Pool.Exec(ctx, `
		UPDATE accounts
		SET status = $1, last_updated_at = $2, last_updated_by = $3
		WHERE account_id = $4;`,
		string(status), now, userID, accountID,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update account status", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("account " + accountID + " not found")
	}
	return nil
}

// FindAccountsByIDsForUpdate selects accounts and locks them FOR UPDATE
// within tx. IDs are locked in sorted order so two conversions racing on the
// same pair acquire locks in the same sequence.
func (r *PgxAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	sorted := make([]string, len(accountIDs))
	copy(sorted, accountIDs)
	sort.Strings(sorted)

	accounts := make(map[string]domain.Account, len(sorted))
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1 FOR UPDATE;`
	for _, id := range sorted {
		m, err := scanAccount(tx.QueryRow(ctx, query, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)
			}
			return nil, apperrors.NewAppError(500, "failed to lock account "+id, err)
		}
		accounts[m.AccountID] = toDomainAccount(*m)
	}
	return accounts, nil
}

// ApplyBalanceChangesInTx applies signed deltas to balance and
// available_balance and stamps last_transaction_at, all within tx.
func (r *PgxAccountRepository) ApplyBalanceChangesInTx(ctx context.Context, tx pgx.Tx, changes map[string]decimal.Decimal, userID string, now time.Time) error {
	query := `
		UPDATE accounts
		SET balance = balance + $1,
			available_balance = available_balance + $1,
			last_transaction_at = $2,
			last_updated_at = $2,
			last_updated_by = $3
		WHERE account_id = $4;
	`
	for accountID, delta := range changes {
		tag, err := tx.Exec(ctx, query, delta, now, userID, accountID)
		if err != nil {
			return apperrors.NewAppError(500, "failed to update balance for account "+accountID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
		}
	}
	return nil
}
