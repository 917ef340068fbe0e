package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// Conversion rejection reasons. Each precondition failure maps to exactly one
// of these so callers can branch on the cause instead of a generic failure.
var (
	ErrAccountsNotFound    = errors.New("accounts not found")
	ErrOwnershipMismatch   = errors.New("account ownership mismatch")
	ErrAccountInactive     = errors.New("account is not active")
	ErrInsufficientBalance = errors.New("insufficient available balance")
	ErrRateUnavailable     = errors.New("no exchange rate available")
)

// ErrNoRate is returned by the rate resolver when the whole fallback chain is
// exhausted and the unity fallback is disabled. It is deliberately distinct
// from a resolved rate of 1.0.
var ErrNoRate = errors.New("no rate resolved for currency pair")

// AppError carries a status code alongside the wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError wrapping an underlying cause.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates an AppError that matches errors.Is(err, ErrNotFound).
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}

// NewValidationError creates an AppError that matches errors.Is(err, ErrValidation).
func NewValidationError(message string) *AppError {
	return &AppError{Code: 400, Message: message, Err: ErrValidation}
}

// ReasonCode maps a conversion rejection to its wire-level error_reason value.
// Unknown errors map to the empty string.
func ReasonCode(err error) string {
	switch {
	case errors.Is(err, ErrAccountsNotFound):
		return "accounts_not_found"
	case errors.Is(err, ErrOwnershipMismatch):
		return "ownership_mismatch"
	case errors.Is(err, ErrAccountInactive):
		return "account_inactive"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrRateUnavailable), errors.Is(err, ErrNoRate):
		return "rate_unavailable"
	default:
		return ""
	}
}
