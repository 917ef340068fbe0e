package dto

import (
	"github.com/shopspring/decimal"

	"github.com/nvcfund/exchange-platform/internal/core/domain"
)

// FeeQuoteResponse prices a prospective off-ramp amount against the current
// volume ledger without recording anything.
type FeeQuoteResponse struct {
	Amount          decimal.Decimal `json:"amount"`
	ProjectedVolume decimal.Decimal `json:"projectedVolume"`
	FeeRate         decimal.Decimal `json:"feeRate"`
	FeeAmount       decimal.Decimal `json:"feeAmount"`
	PlatformFee     decimal.Decimal `json:"platformFee"`
	PartnerFee      decimal.Decimal `json:"partnerFee"`
	NetAmount       decimal.Decimal `json:"netAmount"`
}

// SettlementRequest defines the structure for processing an off-ramp settlement.
type SettlementRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// ResetVolumeRequest names the period counter to zero.
type ResetVolumeRequest struct {
	Period domain.VolumePeriod `json:"period" binding:"required"`
}
