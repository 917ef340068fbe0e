package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/nvcfund/exchange-platform/internal/apperrors"
	"github.com/nvcfund/exchange-platform/internal/core/domain"
	portsrepo "github.com/nvcfund/exchange-platform/internal/core/ports/repositories"
)

// PgxVolumeRepository implements the liquidity volume ledger repository
// using pgxpool. The ledger lives in a single row keyed by ledger_id = 1.
type PgxVolumeRepository struct {
	BaseRepository
}

// NewPgxVolumeRepository creates a new PgxVolumeRepository.
func NewPgxVolumeRepository(pool *pgxpool.Pool) *PgxVolumeRepository {
	return &PgxVolumeRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.VolumeRepositoryFacade = (*PgxVolumeRepository)(nil)

const volumeLedgerID = 1

func scanVolumeLedger(row pgx.Row) (*domain.VolumeLedger, error) {
	var l domain.VolumeLedger
	err := row.Scan(&l.Daily, &l.Monthly, &l.Quarterly, &l.Yearly, &l.Lifetime, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetVolumeLedger retrieves the current period counters. A missing row yields
// a zeroed ledger rather than an error so callers never special-case first use.
func (r *PgxVolumeRepository) GetVolumeLedger(ctx context.Context) (*domain.VolumeLedger, error) {
	query := `
		SELECT daily_volume, monthly_volume, quarterly_volume, yearly_volume, lifetime_volume, updated_at
		FROM liquidity_volume
		WHERE ledger_id = $1;
	`
	l, err := scanVolumeLedger(r.Pool.QueryRow(ctx, query, volumeLedgerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.VolumeLedger{}, nil
		}
		return nil, apperrors.NewAppError(500, "failed to read volume ledger", err)
	}
	return l, nil
}

// AddVolume increments every period counter by the gross amount and returns
// the updated ledger. The upsert keeps the single-row invariant under
// concurrent settlements.
func (r *PgxVolumeRepository) AddVolume(ctx context.Context, gross decimal.Decimal, now time.Time) (*domain.VolumeLedger, error) {
	query := `
		INSERT INTO liquidity_volume (ledger_id, daily_volume, monthly_volume, quarterly_volume, yearly_volume, lifetime_volume, updated_at)
		VALUES ($1, $2, $2, $2, $2, $2, $3)
		ON CONFLICT (ledger_id) DO UPDATE SET
			daily_volume     = liquidity_volume.daily_volume + EXCLUDED.daily_volume,
			monthly_volume   = liquidity_volume.monthly_volume + EXCLUDED.monthly_volume,
			quarterly_volume = liquidity_volume.quarterly_volume + EXCLUDED.quarterly_volume,
			yearly_volume    = liquidity_volume.yearly_volume + EXCLUDED.yearly_volume,
			lifetime_volume  = liquidity_volume.lifetime_volume + EXCLUDED.lifetime_volume,
			updated_at       = EXCLUDED.updated_at
		RETURNING daily_volume, monthly_volume, quarterly_volume, yearly_volume, lifetime_volume, updated_at;
	`
	l, err := scanVolumeLedger(r.Pool.QueryRow(ctx, query, volumeLedgerID, gross, now))
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to add volume", err)
	}
	return l, nil
}

// ResetPeriod zeroes one named period counter. The lifetime counter is never
// reset; the service layer rejects it before reaching here, but guard anyway.
func (r *PgxVolumeRepository) ResetPeriod(ctx context.Context, period domain.VolumePeriod, userID string, now time.Time) error {
	var column string
	switch period {
	case domain.PeriodDaily:
		column = "daily_volume"
	case domain.PeriodMonthly:
		column = "monthly_volume"
	case domain.PeriodQuarterly:
		column = "quarterly_volume"
	case domain.PeriodYearly:
		column = "yearly_volume"
	default:
		return fmt.Errorf("%w: period %s cannot be reset", apperrors.ErrValidation, period)
	}

	query := fmt.Sprintf(`UPDATE liquidity_volume SET %s = 0, updated_at = $1 WHERE ledger_id = $2;`, column)
	if _, err := r.Pool.Exec(ctx, query, now, volumeLedgerID); err != nil {
		return apperrors.NewAppError(500, "failed to reset "+column, err)
	}
	return nil
}
