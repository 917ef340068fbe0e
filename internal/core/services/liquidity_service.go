package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nvcfund/exchange-platform/internal/apperrors"
	portsrepo "github.com/nvcfund/exchange-platform/internal/core/ports/repositories"
	portssvc "github.com/nvcfund/exchange-platform/internal/core/ports/services"
	"github.com/nvcfund/exchange-platform/internal/core/domain"
	"github.com/nvcfund/exchange-platform/internal/middleware"
)

// Quarterly overage thresholds and the bonus percentages they unlock.
var (
	bonusThreshold15 = decimal.NewFromInt(15)
	bonusThreshold25 = decimal.NewFromInt(25)
	bonusPct15       = decimal.NewFromFloat(0.10)
	bonusPct25       = decimal.NewFromFloat(0.25)
)

// liquidityService prices off-ramp transactions against the tiered fee
// schedule, splits fee revenue with the liquidity partner, and tracks
// progress against volume commitments. Commitments are reported, never
// enforced: no transaction is blocked by an unmet target.
type liquidityService struct {
	volumeRepo portsrepo.VolumeRepositoryFacade
	gateway    portssvc.SettlementGateway

	tiers         []domain.FeeTier
	split         domain.FeeSplit
	yearlyTargets map[int]decimal.Decimal
	defaultTarget decimal.Decimal
}

// LiquidityOption customizes a liquidityService.
type LiquidityOption func(*liquidityService)

// WithFeeTiers overrides the fee schedule. Tiers must be ordered by floor.
func WithFeeTiers(tiers []domain.FeeTier) LiquidityOption {
	return func(s *liquidityService) { s.tiers = tiers }
}

// WithFeeSplit overrides the platform/partner revenue split.
func WithFeeSplit(split domain.FeeSplit) LiquidityOption {
	return func(s *liquidityService) { s.split = split }
}

// WithYearlyTarget sets the committed volume for one year.
func WithYearlyTarget(year int, target decimal.Decimal) LiquidityOption {
	return func(s *liquidityService) { s.yearlyTargets[year] = target }
}

// WithDefaultTarget sets the target used for years without an explicit entry.
func WithDefaultTarget(target decimal.Decimal) LiquidityOption {
	return func(s *liquidityService) { s.defaultTarget = target }
}

// WithSettlementGateway attaches the external liquidity partner boundary.
func WithSettlementGateway(gateway portssvc.SettlementGateway) LiquidityOption {
	return func(s *liquidityService) { s.gateway = gateway }
}

// NewLiquidityService creates a LiquiditySvcFacade implementation with the
// default tier schedule, 70/30 split and a 2B yearly commitment.
func NewLiquidityService(volumeRepo portsrepo.VolumeRepositoryFacade, opts ...LiquidityOption) portssvc.LiquiditySvcFacade {
	s := &liquidityService{
		volumeRepo:    volumeRepo,
		tiers:         domain.DefaultFeeTiers,
		split:         domain.DefaultFeeSplit,
		yearlyTargets: make(map[int]decimal.Decimal),
		defaultTarget: decimal.NewFromInt(2_000_000_000),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.LiquiditySvcFacade = (*liquidityService)(nil)

// FeeRateFor returns the rate of the band containing the projected
// cumulative volume (current + amount). A band covers (floor, ceiling], so a
// projected total landing exactly on a ceiling takes the band it closes;
// beyond the highest ceiling the highest band's rate applies.
func (s *liquidityService) FeeRateFor(amount, currentVolume decimal.Decimal) decimal.Decimal {
	if len(s.tiers) == 0 {
		return decimal.Zero
	}
	projected := currentVolume.Add(amount)

	if projected.LessThanOrEqual(s.tiers[0].Floor) {
		return s.tiers[0].Rate
	}
	for _, tier := range s.tiers {
		if projected.GreaterThan(tier.Floor) && projected.LessThanOrEqual(tier.Ceiling) {
			return tier.Rate
		}
	}
	return s.tiers[len(s.tiers)-1].Rate
}

// SplitFee divides a fee between platform and partner. The partner share is
// computed as the remainder so the two always sum to the fee exactly.
func (s *liquidityService) SplitFee(fee decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	platform := fee.Mul(s.split.Platform)
	return platform, fee.Sub(platform)
}

// ProcessSettlement prices one off-ramp transaction against the current
// yearly volume, records its gross amount in the ledger, and hands the net
// amount to the partner gateway.
func (s *liquidityService) ProcessSettlement(ctx context.Context, gross decimal.Decimal, userID string) (*domain.SettlementResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !gross.IsPositive() {
		return nil, fmt.Errorf("%w: settlement amount must be positive", apperrors.ErrValidation)
	}

	ledger, err := s.volumeRepo.GetVolumeLedger(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read volume ledger: %w", err)
	}

	feeRate := s.FeeRateFor(gross, ledger.Yearly)
	fee := gross.Mul(feeRate)
	platformFee, partnerFee := s.SplitFee(fee)
	net := gross.Sub(fee)

	result := domain.SettlementResult{
		GrossAmount: gross,
		FeeRate:     feeRate,
		FeeAmount:   fee,
		PlatformFee: platformFee,
		PartnerFee:  partnerFee,
		NetAmount:   net,
	}

	if s.gateway != nil {
		if err := s.gateway.Settle(ctx, result); err != nil {
			return nil, fmt.Errorf("partner settlement failed: %w", err)
		}
	}

	updated, err := s.volumeRepo.AddVolume(ctx, gross, time.Now().UTC())
	if err != nil {
		// The partner settlement already went through; surface the ledger
		// failure loudly instead of silently under-counting volume.
		logger.Error("Settled but failed to record volume",
			slog.String("gross", gross.String()), slog.String("error", err.Error()))
		return nil, fmt.Errorf("settled but failed to record volume: %w", err)
	}
	result.Ledger = *updated

	logger.Info("Settlement processed",
		slog.String("gross", gross.String()),
		slog.String("fee_rate", feeRate.String()),
		slog.String("net", net.String()),
	)
	return &result, nil
}

// CommitmentStatus compares the yearly counter to the agreed per-year target.
func (s *liquidityService) CommitmentStatus(ctx context.Context, year int) (*domain.CommitmentStatus, error) {
	ledger, err := s.volumeRepo.GetVolumeLedger(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read volume ledger: %w", err)
	}

	target := s.yearlyTarget(year)
	achieved := ledger.Yearly
	status := &domain.CommitmentStatus{
		Year:     year,
		Target:   target,
		Achieved: achieved,
	}
	if achieved.GreaterThanOrEqual(target) {
		status.Met = true
		status.Surplus = achieved.Sub(target)
		status.Shortfall = decimal.Zero
	} else {
		status.Surplus = decimal.Zero
		status.Shortfall = target.Sub(achieved)
	}
	return status, nil
}

// CheckQuarterlyBonus compares the quarterly counter against the derived
// quarterly target (yearly target / 4). Crossing the 15% or 25% overage
// thresholds yields a bonus-percentage signal; the ledger is not touched.
func (s *liquidityService) CheckQuarterlyBonus(ctx context.Context, quarter int) (*domain.QuarterlyBonus, error) {
	if quarter < 1 || quarter > 4 {
		return nil, fmt.Errorf("%w: quarter must be 1..4, got %d", apperrors.ErrValidation, quarter)
	}

	ledger, err := s.volumeRepo.GetVolumeLedger(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read volume ledger: %w", err)
	}

	year := time.Now().UTC().Year()
	target := s.yearlyTarget(year).Div(decimal.NewFromInt(4))
	achieved := ledger.Quarterly

	bonus := &domain.QuarterlyBonus{
		Quarter:  quarter,
		Target:   target,
		Achieved: achieved,
		BonusPct: decimal.Zero,
	}
	if target.IsZero() {
		return bonus, nil
	}

	overage := achieved.Sub(target).Div(target).Mul(decimal.NewFromInt(100))
	bonus.OveragePct = overage

	if overage.GreaterThanOrEqual(bonusThreshold25) {
		bonus.BonusPct = bonusPct25
		bonus.ThresholdsHit = []string{"15%", "25%"}
	} else if overage.GreaterThanOrEqual(bonusThreshold15) {
		bonus.BonusPct = bonusPct15
		bonus.ThresholdsHit = []string{"15%"}
	}
	return bonus, nil
}

// GetVolumeLedger returns the current period counters.
func (s *liquidityService) GetVolumeLedger(ctx context.Context) (*domain.VolumeLedger, error) {
	ledger, err := s.volumeRepo.GetVolumeLedger(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read volume ledger: %w", err)
	}
	return ledger, nil
}

// ResetPeriod zeroes one named period counter. Lifetime volume is never reset.
func (s *liquidityService) ResetPeriod(ctx context.Context, period domain.VolumePeriod, userID string) error {
	switch period {
	case domain.PeriodDaily, domain.PeriodMonthly, domain.PeriodQuarterly, domain.PeriodYearly:
	case domain.PeriodLifetime:
		return fmt.Errorf("%w: lifetime volume cannot be reset", apperrors.ErrValidation)
	default:
		return fmt.Errorf("%w: unknown period %q", apperrors.ErrValidation, period)
	}

	if err := s.volumeRepo.ResetPeriod(ctx, period, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to reset %s volume: %w", period, err)
	}
	return nil
}

func (s *liquidityService) yearlyTarget(year int) decimal.Decimal {
	if target, ok := s.yearlyTargets[year]; ok {
		return target
	}
	return s.defaultTarget
}
