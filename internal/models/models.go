package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuditFields holds standard audit columns shared by every table.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
}

// ExchangeRate mirrors the exchange_rates table. The inverse direction is a
// separate row; inverse_rate is stored alongside for audit and consistency
// checks.
type ExchangeRate struct {
	ExchangeRateID string          `json:"exchangeRateID"`
	FromCurrency   string          `json:"fromCurrency"`
	ToCurrency     string          `json:"toCurrency"`
	Rate           decimal.Decimal `json:"rate"`
	InverseRate    decimal.Decimal `json:"inverseRate"`
	Source         string          `json:"source"`
	IsActive       bool            `json:"isActive"`
	LastUpdated    time.Time       `json:"lastUpdated"`
	AuditFields
}

// Account mirrors the accounts table.
type Account struct {
	AccountID         string          `json:"accountID"`
	HolderID          string          `json:"holderID"`
	AccountNumber     string          `json:"accountNumber"`
	Currency          string          `json:"currency"`
	Balance           decimal.Decimal `json:"balance"`
	AvailableBalance  decimal.Decimal `json:"availableBalance"`
	Status            string          `json:"status"`
	LastTransactionAt *time.Time      `json:"lastTransactionAt"`
	AuditFields
}

// ExchangeTransaction mirrors the exchange_transactions table.
type ExchangeTransaction struct {
	TransactionID   string          `json:"transactionID"`
	ReferenceNumber string          `json:"referenceNumber"`
	HolderID        string          `json:"holderID"`
	FromAccountID   string          `json:"fromAccountID"`
	ToAccountID     string          `json:"toAccountID"`
	FromCurrency    string          `json:"fromCurrency"`
	ToCurrency      string          `json:"toCurrency"`
	FromAmount      decimal.Decimal `json:"fromAmount"`
	ToAmount        decimal.Decimal `json:"toAmount"`
	RateApplied     decimal.Decimal `json:"rateApplied"`
	RateSource      string          `json:"rateSource"`
	FeeAmount       decimal.Decimal `json:"feeAmount"`
	FeeCurrency     string          `json:"feeCurrency"`
	ExchangeType    string          `json:"exchangeType"`
	Status          string          `json:"status"`
	CompletedAt     *time.Time      `json:"completedAt"`
	AuditFields
}

// VolumeLedger mirrors the single-row liquidity_volume table.
type VolumeLedger struct {
	Daily     decimal.Decimal `json:"daily"`
	Monthly   decimal.Decimal `json:"monthly"`
	Quarterly decimal.Decimal `json:"quarterly"`
	Yearly    decimal.Decimal `json:"yearly"`
	Lifetime  decimal.Decimal `json:"lifetime"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
