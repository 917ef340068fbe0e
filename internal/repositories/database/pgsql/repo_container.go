package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/nvcfund/exchange-platform/internal/core/ports/repositories"
)

// NewRepositoryProvider wires the pgx-backed repositories into the provider
// consumed by the service container.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	rateRepo := NewPgxRateRepository(dbPool)
	accountRepo := NewPgxAccountRepository(dbPool)
	transactionRepo := NewPgxTransactionRepository(dbPool)
	volumeRepo := NewPgxVolumeRepository(dbPool)

	return portsrepo.RepositoryProvider{
		RateRepo:        rateRepo,
		AccountRepo:     accountRepo,
		TransactionRepo: transactionRepo,
		VolumeRepo:      volumeRepo,
	}
}
