package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeTier is one volume band of the liquidity fee schedule. A band covers
// (Floor, Ceiling]; the ceiling is inclusive to the tier it closes.
type FeeTier struct {
	Floor   decimal.Decimal `json:"floor"`
	Ceiling decimal.Decimal `json:"ceiling"`
	Rate    decimal.Decimal `json:"rate"` // fraction, e.g. 0.004
}

// DefaultFeeTiers is the standard liquidity-partner fee schedule.
var DefaultFeeTiers = []FeeTier{
	{Floor: decimal.Zero, Ceiling: decimal.NewFromInt(500_000_000), Rate: decimal.NewFromFloat(0.004)},
	{Floor: decimal.NewFromInt(500_000_000), Ceiling: decimal.NewFromInt(2_000_000_000), Rate: decimal.NewFromFloat(0.003)},
	{Floor: decimal.NewFromInt(2_000_000_000), Ceiling: decimal.NewFromInt(5_000_000_000), Rate: decimal.NewFromFloat(0.002)},
	{Floor: decimal.NewFromInt(5_000_000_000), Ceiling: decimal.NewFromInt(10_000_000_000), Rate: decimal.NewFromFloat(0.0015)},
}

// FeeSplit is the fixed proportional division of a fee between the platform
// and the liquidity partner. Platform + Partner must sum to 1.
type FeeSplit struct {
	Platform decimal.Decimal `json:"platform"`
	Partner  decimal.Decimal `json:"partner"`
}

// DefaultFeeSplit is 70% platform / 30% partner.
var DefaultFeeSplit = FeeSplit{
	Platform: decimal.NewFromFloat(0.70),
	Partner:  decimal.NewFromFloat(0.30),
}

// VolumePeriod names one rolling counter of the volume ledger.
type VolumePeriod string

const (
	PeriodDaily     VolumePeriod = "DAILY"
	PeriodMonthly   VolumePeriod = "MONTHLY"
	PeriodQuarterly VolumePeriod = "QUARTERLY"
	PeriodYearly    VolumePeriod = "YEARLY"
	PeriodLifetime  VolumePeriod = "LIFETIME"
)

// VolumeLedger carries the running counters of transacted gross volume.
// Counters only grow until an operator explicitly resets a named period.
type VolumeLedger struct {
	Daily     decimal.Decimal `json:"daily"`
	Monthly   decimal.Decimal `json:"monthly"`
	Quarterly decimal.Decimal `json:"quarterly"`
	Yearly    decimal.Decimal `json:"yearly"`
	Lifetime  decimal.Decimal `json:"lifetime"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// CommitmentStatus reports progress of the yearly counter against the agreed
// volume commitment. Reporting only; nothing is blocked on an unmet target.
type CommitmentStatus struct {
	Year      int             `json:"year"`
	Target    decimal.Decimal `json:"target"`
	Achieved  decimal.Decimal `json:"achieved"`
	Met       bool            `json:"met"`
	Surplus   decimal.Decimal `json:"surplus"`   // zero when not met
	Shortfall decimal.Decimal `json:"shortfall"` // zero when met
}

// QuarterlyBonus is the bonus-percentage signal for a quarter that crossed an
// overage threshold against the derived quarterly target (yearly / 4).
type QuarterlyBonus struct {
	Quarter       int             `json:"quarter"`
	Target        decimal.Decimal `json:"target"`
	Achieved      decimal.Decimal `json:"achieved"`
	OveragePct    decimal.Decimal `json:"overagePct"`
	BonusPct      decimal.Decimal `json:"bonusPct"` // zero when no threshold crossed
	ThresholdsHit []string        `json:"thresholdsHit,omitempty"`
}

// SettlementResult is the fee-adjusted outcome handed to the external
// liquidity partner boundary for one off-ramp transaction.
type SettlementResult struct {
	GrossAmount decimal.Decimal `json:"grossAmount"`
	FeeRate     decimal.Decimal `json:"feeRate"`
	FeeAmount   decimal.Decimal `json:"feeAmount"`
	PlatformFee decimal.Decimal `json:"platformFee"`
	PartnerFee  decimal.Decimal `json:"partnerFee"`
	NetAmount   decimal.Decimal `json:"netAmount"`
	Ledger      VolumeLedger    `json:"ledger"`
}
