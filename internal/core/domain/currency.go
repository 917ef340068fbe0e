package domain

import "strings"

// Currency is a supported currency code. The set of valid codes is closed:
// anything outside Registry is rejected at the validation boundary.
type Currency string

// CurrencyClass groups currencies for exchange-type classification and for
// deciding which pairs may hit the external market-data feed.
type CurrencyClass string

const (
	ClassNative  CurrencyClass = "NATIVE"  // platform-issued tokens
	ClassPartner CurrencyClass = "PARTNER" // partner-issued tokens
	ClassFiat    CurrencyClass = "FIAT"
	ClassCrypto  CurrencyClass = "CRYPTO"
)

// Platform and partner tokens.
const (
	NVCT   Currency = "NVCT" // reserve currency, cross-rate intermediary
	AFD1   Currency = "AFD1"
	SFN    Currency = "SFN"
	AKLUMI Currency = "AKLUMI"
	TUV    Currency = "TUV"
)

// Common fiat and crypto codes.
const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
	CHF Currency = "CHF"
	NGN Currency = "NGN"
	ZAR Currency = "ZAR"
	INR Currency = "INR"
	BTC Currency = "BTC"
	ETH Currency = "ETH"
	USDT Currency = "USDT"
	USDC Currency = "USDC"
)

// Regional fiat codes the relational enum cannot represent. Rates for pairs
// touching these route through the file-backed fallback store.
const (
	SLL Currency = "SLL"
	SLE Currency = "SLE"
	GMD Currency = "GMD"
	XOF Currency = "XOF"
	KES Currency = "KES"
	ZMW Currency = "ZMW"
)

// Registry is the closed enumeration of every currency the platform accepts.
var Registry = map[Currency]CurrencyClass{
	NVCT: ClassNative, AFD1: ClassNative, SFN: ClassNative, AKLUMI: ClassNative,
	TUV: ClassPartner,
	USD: ClassFiat, EUR: ClassFiat, GBP: ClassFiat, JPY: ClassFiat,
	CHF: ClassFiat, NGN: ClassFiat, ZAR: ClassFiat, INR: ClassFiat,
	SLL: ClassFiat, SLE: ClassFiat, GMD: ClassFiat, XOF: ClassFiat,
	KES: ClassFiat, ZMW: ClassFiat,
	BTC: ClassCrypto, ETH: ClassCrypto, USDT: ClassCrypto, USDC: ClassCrypto,
}

// FallbackOnlyCurrencies lists the codes unsupported by the relational enum.
// It is the default routing table handed to the rate store constructor;
// deployments can pass a different one.
var FallbackOnlyCurrencies = map[Currency]bool{
	SLL: true, SLE: true, GMD: true, XOF: true, KES: true, ZMW: true,
}

// ParseCurrency normalizes and validates a currency code against the registry.
func ParseCurrency(code string) (Currency, bool) {
	c := Currency(strings.ToUpper(strings.TrimSpace(code)))
	_, ok := Registry[c]
	return c, ok
}

// Class returns the classification of a currency. Unknown codes report as
// fiat, the broadest class; validation upstream should prevent them anyway.
func (c Currency) Class() CurrencyClass {
	if cls, ok := Registry[c]; ok {
		return cls
	}
	return ClassFiat
}

// IsValid reports whether the currency belongs to the closed registry.
func (c Currency) IsValid() bool {
	_, ok := Registry[c]
	return ok
}

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}
