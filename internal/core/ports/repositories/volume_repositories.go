package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nvcfund/exchange-platform/internal/core/domain"
)

// VolumeReader defines read operations for the liquidity volume ledger
type VolumeReader interface {
	// GetVolumeLedger retrieves the current period counters.
	GetVolumeLedger(ctx context.Context) (*domain.VolumeLedger, error)
}

// VolumeWriter defines write operations for the liquidity volume ledger
type VolumeWriter interface {
	// AddVolume increments every period counter by the gross amount.
	AddVolume(ctx context.Context, gross decimal.Decimal, now time.Time) (*domain.VolumeLedger, error)

	// ResetPeriod zeroes one named period counter. Lifetime is not resettable.
	ResetPeriod(ctx context.Context, period domain.VolumePeriod, userID string, now time.Time) error
}

// VolumeRepositoryFacade combines the volume ledger repository interfaces
type VolumeRepositoryFacade interface {
	VolumeReader
	VolumeWriter
}
