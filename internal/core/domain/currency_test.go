package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nvcfund/exchange-platform/internal/core/domain"
)

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   domain.Currency
		wantOK bool
	}{
		{name: "upper case code", input: "USD", want: domain.USD, wantOK: true},
		{name: "lower case is normalized", input: "eur", want: domain.EUR, wantOK: true},
		{name: "surrounding whitespace is trimmed", input: "  nvct ", want: domain.NVCT, wantOK: true},
		{name: "fallback-only code is still valid", input: "SLL", want: domain.SLL, wantOK: true},
		{name: "unknown code", input: "DOGE", want: "DOGE", wantOK: false},
		{name: "empty string", input: "", want: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := domain.ParseCurrency(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestCurrency_Class(t *testing.T) {
	tests := []struct {
		currency domain.Currency
		want     domain.CurrencyClass
	}{
		{domain.NVCT, domain.ClassNative},
		{domain.AKLUMI, domain.ClassNative},
		{domain.TUV, domain.ClassPartner},
		{domain.USD, domain.ClassFiat},
		{domain.KES, domain.ClassFiat},
		{domain.BTC, domain.ClassCrypto},
		// unknowns default to fiat
		{domain.Currency("XYZ"), domain.ClassFiat},
	}

	for _, tt := range tests {
		t.Run(tt.currency.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.currency.Class())
		})
	}
}

func TestCurrency_IsValid(t *testing.T) {
	assert.True(t, domain.USDT.IsValid())
	assert.True(t, domain.ZMW.IsValid())
	assert.False(t, domain.Currency("usd").IsValid())
	assert.False(t, domain.Currency("").IsValid())
}

func TestFallbackOnlyCurrencies_AreRegisteredFiat(t *testing.T) {
	for code := range domain.FallbackOnlyCurrencies {
		assert.True(t, code.IsValid(), "fallback code %s must be in the registry", code)
		assert.Equal(t, domain.ClassFiat, code.Class())
	}
}
