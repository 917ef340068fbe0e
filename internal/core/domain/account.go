package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountStatus is the lifecycle state of a ledger account.
type AccountStatus string

const (
	AccountActive    AccountStatus = "ACTIVE"
	AccountSuspended AccountStatus = "SUSPENDED"
	AccountClosed    AccountStatus = "CLOSED"
)

// Account is a balance ledger entry for one holder in one currency.
// AvailableBalance is Balance minus holds and never exceeds Balance; the
// conversion engine rejects any debit that would drive Balance negative.
type Account struct {
	AccountID         string          `json:"accountID"` // Primary Key (UUID)
	HolderID          string          `json:"holderID"`  // owning account holder
	AccountNumber     string          `json:"accountNumber"`
	Currency          Currency        `json:"currency"`
	Balance           decimal.Decimal `json:"balance"`
	AvailableBalance  decimal.Decimal `json:"availableBalance"`
	Status            AccountStatus   `json:"status"`
	LastTransactionAt *time.Time      `json:"lastTransactionAt,omitempty"`
	AuditFields
}

// CanDebit reports whether the account can fund a debit of amount out of its
// available balance.
func (a Account) CanDebit(amount decimal.Decimal) bool {
	return a.Status == AccountActive && a.AvailableBalance.GreaterThanOrEqual(amount)
}

// CanTransact reports whether the account accepts balance mutations at all.
func (a Account) CanTransact() bool {
	return a.Status == AccountActive
}
