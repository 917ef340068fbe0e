package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus tracks the lifecycle of an exchange transaction.
// Transitions only move pending -> completed or pending -> failed; a
// completed or failed row is frozen.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusFailed    TransactionStatus = "FAILED"
	StatusCancelled TransactionStatus = "CANCELLED"
)

// ExchangeType is a reporting-only classification of a conversion, derived
// purely from the static classes of the two currencies.
type ExchangeType string

const (
	NativeToFiat   ExchangeType = "NATIVE_TO_FIAT"
	FiatToNative   ExchangeType = "FIAT_TO_NATIVE"
	NativeToCrypto ExchangeType = "NATIVE_TO_CRYPTO"
	CryptoToNative ExchangeType = "CRYPTO_TO_NATIVE"
	FiatToCrypto   ExchangeType = "FIAT_TO_CRYPTO"
	CryptoToFiat   ExchangeType = "CRYPTO_TO_FIAT"
	CrossFiat      ExchangeType = "CROSS_FIAT"
	CrossCrypto    ExchangeType = "CROSS_CRYPTO"
	CrossNative    ExchangeType = "CROSS_NATIVE"
)

// ClassifyExchange derives the exchange type for a currency pair.
// Partner tokens classify with the native side for reporting purposes.
func ClassifyExchange(from, to Currency) ExchangeType {
	f, t := normalizeClass(from.Class()), normalizeClass(to.Class())
	switch {
	case f == ClassNative && t == ClassNative:
		return CrossNative
	case f == ClassNative && t == ClassFiat:
		return NativeToFiat
	case f == ClassFiat && t == ClassNative:
		return FiatToNative
	case f == ClassNative && t == ClassCrypto:
		return NativeToCrypto
	case f == ClassCrypto && t == ClassNative:
		return CryptoToNative
	case f == ClassFiat && t == ClassCrypto:
		return FiatToCrypto
	case f == ClassCrypto && t == ClassFiat:
		return CryptoToFiat
	case f == ClassCrypto && t == ClassCrypto:
		return CrossCrypto
	default:
		return CrossFiat
	}
}

func normalizeClass(c CurrencyClass) CurrencyClass {
	if c == ClassPartner {
		return ClassNative
	}
	return c
}

// ExchangeTransaction is the immutable record of one conversion attempt.
// Once Status is COMPLETED the amounts and rate are frozen.
type ExchangeTransaction struct {
	TransactionID   string            `json:"transactionID"` // Primary Key (UUID)
	ReferenceNumber string            `json:"referenceNumber"`
	HolderID        string            `json:"holderID"`
	FromAccountID   string            `json:"fromAccountID"`
	ToAccountID     string            `json:"toAccountID"`
	FromCurrency    Currency          `json:"fromCurrency"`
	ToCurrency      Currency          `json:"toCurrency"`
	FromAmount      decimal.Decimal   `json:"fromAmount"`
	ToAmount        decimal.Decimal   `json:"toAmount"`
	RateApplied     decimal.Decimal   `json:"rateApplied"`
	RateSource      RateSource        `json:"rateSource"`
	FeeAmount       decimal.Decimal   `json:"feeAmount"`
	FeeCurrency     Currency          `json:"feeCurrency"`
	ExchangeType    ExchangeType      `json:"exchangeType"`
	Status          TransactionStatus `json:"status"`
	CompletedAt     *time.Time        `json:"completedAt,omitempty"`
	AuditFields
}
