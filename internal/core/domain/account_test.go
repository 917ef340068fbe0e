package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/nvcfund/exchange-platform/internal/core/domain"
)

func TestAccount_CanDebit(t *testing.T) {
	tests := []struct {
		name      string
		status    domain.AccountStatus
		available string
		amount    string
		want      bool
	}{
		{name: "active with sufficient balance", status: domain.AccountActive, available: "100", amount: "50", want: true},
		{name: "active with exact balance", status: domain.AccountActive, available: "100", amount: "100", want: true},
		{name: "active but insufficient", status: domain.AccountActive, available: "100", amount: "100.01", want: false},
		{name: "suspended account", status: domain.AccountSuspended, available: "100", amount: "50", want: false},
		{name: "closed account", status: domain.AccountClosed, available: "100", amount: "50", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account := domain.Account{
				Status:           tt.status,
				AvailableBalance: decimal.RequireFromString(tt.available),
			}
			assert.Equal(t, tt.want, account.CanDebit(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestAccount_CanTransact(t *testing.T) {
	assert.True(t, domain.Account{Status: domain.AccountActive}.CanTransact())
	assert.False(t, domain.Account{Status: domain.AccountSuspended}.CanTransact())
	assert.False(t, domain.Account{Status: domain.AccountClosed}.CanTransact())
}
