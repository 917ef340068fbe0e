package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nvcfund/exchange-platform/internal/apperrors"
	"github.com/nvcfund/exchange-platform/internal/core/domain"
	portsrepo "github.com/nvcfund/exchange-platform/internal/core/ports/repositories"
	"github.com/nvcfund/exchange-platform/internal/models"
)

// PgxRateRepository implements the rate repository using pgxpool.
type PgxRateRepository struct {
	BaseRepository
}

// NewPgxRateRepository creates a new PgxRateRepository.
func NewPgxRateRepository(pool *pgxpool.Pool) *PgxRateRepository {
	return &PgxRateRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.RateRepositoryWithTx = (*PgxRateRepository)(nil)

func toModelRate(d domain.ExchangeRate) models.ExchangeRate {
	return models.ExchangeRate{
		ExchangeRateID: d.ExchangeRateID,
		FromCurrency:   d.FromCurrency.String(),
		ToCurrency:     d.ToCurrency.String(),
		Rate:           d.Rate,
		InverseRate:    d.InverseRate,
		Source:         string(d.Source),
		IsActive:       d.IsActive,
		LastUpdated:    d.LastUpdated,
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
	}
}

func toDomainRate(m models.ExchangeRate) domain.ExchangeRate {
	return domain.ExchangeRate{
		ExchangeRateID: m.ExchangeRateID,
		FromCurrency:   domain.Currency(m.FromCurrency),
		ToCurrency:     domain.Currency(m.ToCurrency),
		Rate:           m.Rate,
		InverseRate:    m.InverseRate,
		Source:         domain.RateSource(m.Source),
		IsActive:       m.IsActive,
		LastUpdated:    m.LastUpdated,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

const rateColumns = `
	exchange_rate_id, from_currency, to_currency, rate, inverse_rate,
	source, is_active, last_updated,
	created_at, created_by, last_updated_at, last_updated_by`

func scanRate(row pgx.Row) (*models.ExchangeRate, error) {
	var m models.ExchangeRate
	err := row.Scan(
		&m.ExchangeRateID, &m.FromCurrency, &m.ToCurrency, &m.Rate, &m.InverseRate,
		&m.Source, &m.IsActive, &m.LastUpdated,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindRate retrieves the active rate for a directed currency pair.
func (r *PgxRateRepository) FindRate(ctx context.Context, from, to domain.Currency) (*domain.ExchangeRate, error) {
	query := `
		SELECT ` + rateColumns + `
		FROM exchange_rates
		WHERE from_currency = $1 AND to_currency = $2 AND is_active = TRUE
		ORDER BY last_updated DESC
		LIMIT 1;
	`
	m, err := scanRate(r.Pool.QueryRow(ctx, query, from.String(), to.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("exchange rate not found for " + from.String() + "/" + to.String())
		}
		return nil, apperrors.NewAppError(500, "failed to find exchange rate", err)
	}
	d := toDomainRate(*m)
	return &d, nil
}

// UpsertRatePair persists a rate and its inverse in one database transaction.
// Existing active rows for either direction are deactivated, never deleted.
func (r *PgxRateRepository) UpsertRatePair(ctx context.Context, rate, inverse domain.ExchangeRate) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	for _, row := range []domain.ExchangeRate{rate, inverse} {
		m := toModelRate(row)

		_, err = tx.Exec(ctx, `
			UPDATE exchange_rates
			SET is_active = FALSE, last_updated_at = $1, last_updated_by = $2
			WHERE from_currency = $3 AND to_currency = $4 AND is_active = TRUE;`,
			m.LastUpdatedAt, m.LastUpdatedBy, m.FromCurrency, m.ToCurrency,
		)
		if err != nil {
			return apperrors.NewAppError(500, "failed to supersede exchange rate "+m.FromCurrency+"/"+m.ToCurrency, err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO exchange_rates (`+rateColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`,
			m.ExchangeRateID, m.FromCurrency, m.ToCurrency, m.Rate, m.InverseRate,
			m.Source, m.IsActive, m.LastUpdated,
			m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
		)
		if err != nil {
			return apperrors.NewAppError(500, "failed to insert exchange rate "+m.FromCurrency+"/"+m.ToCurrency, err)
		}
	}

	return r.Commit(ctx, tx)
}

// ListRates retrieves all active rates, optionally filtered by source.
func (r *PgxRateRepository) ListRates(ctx context.Context, source *domain.RateSource) ([]domain.ExchangeRate, error) {
	query := `
		SELECT ` + rateColumns + `
		FROM exchange_rates
		WHERE is_active = TRUE`
	args := []interface{}{}
	if source != nil {
		query += ` AND source = $1`
		args = append(args, string(*source))
	}
	query += ` ORDER BY from_currency, to_currency;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list exchange rates", err)
	}
	defer rows.Close()

	var rates []domain.ExchangeRate
	for rows.Next() {
		m, err := scanRate(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan exchange rate", err)
		}
		rates = append(rates, toDomainRate(*m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating exchange rates", err)
	}
	return rates, nil
}

// DeactivateRatesBySource soft-retires every rate carrying the given source tag.
func (r *PgxRateRepository) DeactivateRatesBySource(ctx context.Context, source domain.RateSource, userID string) error {
	_, err := r.Pool.Exec(ctx, `
		UPDATE exchange_rates
		SET is_active = FALSE, last_updated_at = $1, last_updated_by = $2
		WHERE source = $3 AND is_active = TRUE;`,
		time.Now().UTC(), userID, string(source),
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to deactivate rates for source "+string(source), err)
	}
	return nil
}
