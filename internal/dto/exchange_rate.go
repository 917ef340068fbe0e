package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nvcfund/exchange-platform/internal/core/domain"
)

// SetRateRequest defines the structure for storing a new exchange rate.
type SetRateRequest struct {
	FromCurrency string            `json:"fromCurrency" binding:"required"`
	ToCurrency   string            `json:"toCurrency" binding:"required"`
	Rate         decimal.Decimal   `json:"rate" binding:"required"`
	Source       domain.RateSource `json:"source"`
}

// ResolutionResponse is the API representation of a resolved rate.
type ResolutionResponse struct {
	FromCurrency domain.Currency   `json:"fromCurrency"`
	ToCurrency   domain.Currency   `json:"toCurrency"`
	Rate         decimal.Decimal   `json:"rate"`
	Source       domain.RateSource `json:"source"`
	ResolvedAt   time.Time         `json:"resolvedAt"`
}

// ToResolutionResponse converts a domain.Resolution to its API form.
func ToResolutionResponse(r *domain.Resolution) ResolutionResponse {
	return ResolutionResponse{
		FromCurrency: r.FromCurrency,
		ToCurrency:   r.ToCurrency,
		Rate:         r.Rate,
		Source:       r.Source,
		ResolvedAt:   r.ResolvedAt,
	}
}
