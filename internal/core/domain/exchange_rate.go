package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateSource tags where a rate came from.
type RateSource string

const (
	SourceInternal      RateSource = "INTERNAL"       // computed internally (e.g. cross rate)
	SourceExternalFeed  RateSource = "EXTERNAL_FEED"  // live market-data fetch
	SourceManual        RateSource = "MANUAL"         // operator entry
	SourceFallbackFile  RateSource = "FALLBACK_FILE"  // file-backed fallback table
	SourceUnityFallback RateSource = "UNITY_FALLBACK" // absolute 1.0 fallback, uncorroborated
)

// ExchangeRate is a directed edge (From -> To) with its rate. The inverse
// direction is recomputed and stored alongside on every update; rows are
// never hard-deleted, only deactivated.
type ExchangeRate struct {
	ExchangeRateID string          `json:"exchangeRateID"`
	FromCurrency   Currency        `json:"fromCurrency"`
	ToCurrency     Currency        `json:"toCurrency"`
	Rate           decimal.Decimal `json:"rate"`
	InverseRate    decimal.Decimal `json:"inverseRate"` // 1/Rate, zero when Rate is zero
	Source         RateSource      `json:"source"`
	IsActive       bool            `json:"isActive"`
	LastUpdated    time.Time       `json:"lastUpdated"`
	AuditFields
}

// Inverse returns 1/rate, treating zero as "no inverse".
func Inverse(rate decimal.Decimal) decimal.Decimal {
	if rate.IsZero() {
		return decimal.Zero
	}
	return decimal.NewFromInt(1).Div(rate)
}

// Resolution is the outcome of a successful rate resolution. Source tells the
// caller how trustworthy the rate is; SourceUnityFallback in particular marks
// an uncorroborated 1.0 that high-value flows should treat as suspect.
type Resolution struct {
	FromCurrency Currency        `json:"fromCurrency"`
	ToCurrency   Currency        `json:"toCurrency"`
	Rate         decimal.Decimal `json:"rate"`
	Source       RateSource      `json:"source"`
	ResolvedAt   time.Time       `json:"resolvedAt"`
}
