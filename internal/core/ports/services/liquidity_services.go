package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/nvcfund/exchange-platform/internal/core/domain"
)

// LiquiditySvcFacade computes tiered fees and tracks volume commitments for
// the external liquidity provisioning relationship.
type LiquiditySvcFacade interface {
	// FeeRateFor returns the fee rate of the tier containing the projected
	// cumulative volume (current + amount). A ceiling is inclusive to the
	// tier it closes; beyond the top tier its rate applies.
	FeeRateFor(amount, currentVolume decimal.Decimal) decimal.Decimal

	// SplitFee divides a fee amount between platform and partner.
	SplitFee(fee decimal.Decimal) (platform, partner decimal.Decimal)

	// ProcessSettlement prices one off-ramp transaction from the current
	// volume ledger, records its gross volume, and hands the net amount to
	// the partner gateway.
	ProcessSettlement(ctx context.Context, gross decimal.Decimal, userID string) (*domain.SettlementResult, error)

	// CommitmentStatus compares the yearly counter to the agreed target.
	CommitmentStatus(ctx context.Context, year int) (*domain.CommitmentStatus, error)

	// CheckQuarterlyBonus compares the quarterly counter to the derived
	// quarterly target. Pure read; the ledger is not touched.
	CheckQuarterlyBonus(ctx context.Context, quarter int) (*domain.QuarterlyBonus, error)

	// GetVolumeLedger returns the current period counters.
	GetVolumeLedger(ctx context.Context) (*domain.VolumeLedger, error)

	// ResetPeriod zeroes one named period counter by explicit operator action.
	ResetPeriod(ctx context.Context, period domain.VolumePeriod, userID string) error
}

// SettlementGateway is the external liquidity partner boundary. The real
// partner API (authentication, endpoints) lives behind this interface and is
// consumed as a black box.
type SettlementGateway interface {
	// Settle executes the off-platform settlement of a fee-adjusted net amount.
	Settle(ctx context.Context, result domain.SettlementResult) error
}
