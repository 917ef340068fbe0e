package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nvcfund/exchange-platform/internal/apperrors"
	"github.com/nvcfund/exchange-platform/internal/core/domain"
)

// ConversionRequest defines the structure for initiating a currency exchange.
type ConversionRequest struct {
	HolderID      string          `json:"holderID" binding:"required"`
	FromAccountID string          `json:"fromAccountID" binding:"required"`
	ToAccountID   string          `json:"toAccountID" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	ApplyFee      bool            `json:"applyFee"`
	FeePercent    decimal.Decimal `json:"feePercent"`
}

// ConversionResult is the structured outcome consumed by calling layers.
// ErrorReason is one of: accounts_not_found, ownership_mismatch,
// account_inactive, insufficient_balance, rate_unavailable.
type ConversionResult struct {
	Success         bool            `json:"success"`
	TransactionID   string          `json:"transactionID,omitempty"`
	ReferenceNumber string          `json:"referenceNumber,omitempty"`
	FromAmount      decimal.Decimal `json:"fromAmount,omitempty"`
	FromCurrency    domain.Currency `json:"fromCurrency,omitempty"`
	ToAmount        decimal.Decimal `json:"toAmount,omitempty"`
	ToCurrency      domain.Currency `json:"toCurrency,omitempty"`
	RateApplied     decimal.Decimal `json:"rateApplied,omitempty"`
	Fee             decimal.Decimal `json:"fee,omitempty"`
	FeeCurrency     domain.Currency `json:"feeCurrency,omitempty"`
	ExchangeType    domain.ExchangeType `json:"exchangeType,omitempty"`
	Status          domain.TransactionStatus `json:"status,omitempty"`
	ErrorReason     string          `json:"errorReason,omitempty"`
}

// FailedConversionResult builds the failure contract from a rejection error.
func FailedConversionResult(err error) ConversionResult {
	return ConversionResult{
		Success:     false,
		Status:      domain.StatusFailed,
		ErrorReason: apperrors.ReasonCode(err),
	}
}

// TransactionResponse is the API representation of an exchange transaction record.
type TransactionResponse struct {
	TransactionID   string                   `json:"transactionID"`
	ReferenceNumber string                   `json:"referenceNumber"`
	HolderID        string                   `json:"holderID"`
	FromAccountID   string                   `json:"fromAccountID"`
	ToAccountID     string                   `json:"toAccountID"`
	FromCurrency    domain.Currency          `json:"fromCurrency"`
	ToCurrency      domain.Currency          `json:"toCurrency"`
	FromAmount      decimal.Decimal          `json:"fromAmount"`
	ToAmount        decimal.Decimal          `json:"toAmount"`
	RateApplied     decimal.Decimal          `json:"rateApplied"`
	FeeAmount       decimal.Decimal          `json:"feeAmount"`
	FeeCurrency     domain.Currency          `json:"feeCurrency"`
	ExchangeType    domain.ExchangeType      `json:"exchangeType"`
	Status          domain.TransactionStatus `json:"status"`
	CreatedAt       time.Time                `json:"createdAt"`
	CompletedAt     *time.Time               `json:"completedAt,omitempty"`
}

// ToTransactionResponse converts a domain.ExchangeTransaction to its API form.
func ToTransactionResponse(t *domain.ExchangeTransaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:   t.TransactionID,
		ReferenceNumber: t.ReferenceNumber,
		HolderID:        t.HolderID,
		FromAccountID:   t.FromAccountID,
		ToAccountID:     t.ToAccountID,
		FromCurrency:    t.FromCurrency,
		ToCurrency:      t.ToCurrency,
		FromAmount:      t.FromAmount,
		ToAmount:        t.ToAmount,
		RateApplied:     t.RateApplied,
		FeeAmount:       t.FeeAmount,
		FeeCurrency:     t.FeeCurrency,
		ExchangeType:    t.ExchangeType,
		Status:          t.Status,
		CreatedAt:       t.CreatedAt,
		CompletedAt:     t.CompletedAt,
	}
}
