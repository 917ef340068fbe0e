package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nvcfund/exchange-platform/internal/core/domain"
)

// CreateAccountRequest defines the structure for opening a ledger account.
type CreateAccountRequest struct {
	HolderID       string          `json:"holderID" binding:"required"`
	Currency       string          `json:"currency" binding:"required"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
}

// AccountResponse is the API representation of a ledger account.
type AccountResponse struct {
	AccountID         string               `json:"accountID"`
	HolderID          string               `json:"holderID"`
	AccountNumber     string               `json:"accountNumber"`
	Currency          domain.Currency      `json:"currency"`
	Balance           decimal.Decimal      `json:"balance"`
	AvailableBalance  decimal.Decimal      `json:"availableBalance"`
	Status            domain.AccountStatus `json:"status"`
	LastTransactionAt *time.Time           `json:"lastTransactionAt,omitempty"`
	CreatedAt         time.Time            `json:"createdAt"`
}

// ToAccountResponse converts a domain.Account to its API form.
func ToAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:         a.AccountID,
		HolderID:          a.HolderID,
		AccountNumber:     a.AccountNumber,
		Currency:          a.Currency,
		Balance:           a.Balance,
		AvailableBalance:  a.AvailableBalance,
		Status:            a.Status,
		LastTransactionAt: a.LastTransactionAt,
		CreatedAt:         a.CreatedAt,
	}
}
