package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nvcfund/exchange-platform/internal/apperrors"
	portsrepo "github.com/nvcfund/exchange-platform/internal/core/ports/repositories"
	portssvc "github.com/nvcfund/exchange-platform/internal/core/ports/services"
	"github.com/nvcfund/exchange-platform/internal/core/domain"
	"github.com/nvcfund/exchange-platform/internal/dto"
	"github.com/nvcfund/exchange-platform/internal/middleware"
	"github.com/nvcfund/exchange-platform/internal/utils"
)

// conversionService executes currency exchanges between two accounts of the
// same holder. Balance mutations and the transaction record commit as one
// database transaction; a pending record that cannot complete is marked
// failed rather than left dangling.
type conversionService struct {
	accountRepo portsrepo.AccountRepositoryFacade
	txnRepo     portsrepo.TransactionRepositoryWithTx
	resolver    portssvc.RateResolverSvcFacade
}

// NewConversionService creates a ConversionSvcFacade implementation.
func NewConversionService(accountRepo portsrepo.AccountRepositoryFacade, txnRepo portsrepo.TransactionRepositoryWithTx, resolver portssvc.RateResolverSvcFacade) portssvc.ConversionSvcFacade {
	return &conversionService{
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		resolver:    resolver,
	}
}

var _ portssvc.ConversionSvcFacade = (*conversionService)(nil)

// Convert validates, prices and settles one exchange.
// Preconditions are checked in order, each with its own rejection reason:
// accounts exist, same owner, accounts active, sufficient available balance,
// positive resolved rate.
func (s *conversionService) Convert(ctx context.Context, req dto.ConversionRequest, userID string) (*dto.ConversionResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: conversion amount must be positive", apperrors.ErrValidation)
	}
	if req.FromAccountID == req.ToAccountID {
		return nil, fmt.Errorf("%w: cannot convert an account into itself", apperrors.ErrValidation)
	}
	if req.ApplyFee && req.FeePercent.IsNegative() {
		return nil, fmt.Errorf("%w: fee percent cannot be negative", apperrors.ErrValidation)
	}

	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, []string{req.FromAccountID, req.ToAccountID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}
	fromAcc, okFrom := accounts[req.FromAccountID]
	toAcc, okTo := accounts[req.ToAccountID]
	if !okFrom || !okTo {
		return nil, fmt.Errorf("%w: one or both accounts do not exist", apperrors.ErrAccountsNotFound)
	}

	if fromAcc.HolderID != req.HolderID || toAcc.HolderID != req.HolderID {
		return nil, fmt.Errorf("%w: accounts must belong to holder %s", apperrors.ErrOwnershipMismatch, req.HolderID)
	}

	if !fromAcc.CanTransact() || !toAcc.CanTransact() {
		return nil, fmt.Errorf("%w: conversions require both accounts active", apperrors.ErrAccountInactive)
	}

	if !fromAcc.CanDebit(req.Amount) {
		return nil, fmt.Errorf("%w: available %s, requested %s",
			apperrors.ErrInsufficientBalance, fromAcc.AvailableBalance, req.Amount)
	}

	resolution, err := s.resolver.Resolve(ctx, fromAcc.Currency, toAcc.Currency)
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s", apperrors.ErrRateUnavailable, fromAcc.Currency, toAcc.Currency)
	}
	if !resolution.Rate.IsPositive() {
		return nil, fmt.Errorf("%w: resolved rate is not positive for %s/%s",
			apperrors.ErrRateUnavailable, fromAcc.Currency, toAcc.Currency)
	}

	// Fee is deducted from the source amount before conversion and is
	// denominated in the source currency.
	fee := decimal.Zero
	if req.ApplyFee {
		fee = req.Amount.Mul(req.FeePercent).Div(decimal.NewFromInt(100))
	}
	netAmount := req.Amount.Sub(fee)
	if !netAmount.IsPositive() {
		return nil, fmt.Errorf("%w: fee consumes the whole amount", apperrors.ErrValidation)
	}
	convertedAmount := netAmount.Mul(resolution.Rate)

	now := time.Now().UTC()
	reference, err := utils.NewReferenceNumber(now)
	if err != nil {
		return nil, fmt.Errorf("failed to generate reference number: %w", err)
	}

	txn := domain.ExchangeTransaction{
		TransactionID:   uuid.NewString(),
		ReferenceNumber: reference,
		HolderID:        req.HolderID,
		FromAccountID:   fromAcc.AccountID,
		ToAccountID:     toAcc.AccountID,
		FromCurrency:    fromAcc.Currency,
		ToCurrency:      toAcc.Currency,
		FromAmount:      req.Amount,
		ToAmount:        convertedAmount,
		RateApplied:     resolution.Rate,
		RateSource:      resolution.Source,
		FeeAmount:       fee,
		FeeCurrency:     fromAcc.Currency,
		ExchangeType:    domain.ClassifyExchange(fromAcc.Currency, toAcc.Currency),
		Status:          domain.StatusPending,
		AuditFields: domain.AuditFields{
			CreatedAt: now, CreatedBy: userID,
			LastUpdatedAt: now, LastUpdatedBy: userID,
		},
	}

	if err := s.txnRepo.SavePendingTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record pending transaction: %w", err)
	}

	if err := s.settle(ctx, txn, req.Amount, convertedAmount, userID, now); err != nil {
		// Roll forward the record to FAILED so nothing stays pending.
		if markErr := s.txnRepo.MarkTransactionFailed(ctx, txn.TransactionID, userID, time.Now().UTC()); markErr != nil {
			logger.Error("Failed to mark transaction failed",
				slog.String("transaction_id", txn.TransactionID),
				slog.String("error", markErr.Error()))
		}
		return nil, err
	}

	logger.Info("Conversion completed",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("reference", txn.ReferenceNumber),
		slog.String("from", fromAcc.Currency.String()),
		slog.String("to", toAcc.Currency.String()),
		slog.String("rate_source", string(resolution.Source)),
	)

	return &dto.ConversionResult{
		Success:         true,
		TransactionID:   txn.TransactionID,
		ReferenceNumber: txn.ReferenceNumber,
		FromAmount:      req.Amount,
		FromCurrency:    fromAcc.Currency,
		ToAmount:        convertedAmount,
		ToCurrency:      toAcc.Currency,
		RateApplied:     resolution.Rate,
		Fee:             fee,
		FeeCurrency:     fromAcc.Currency,
		ExchangeType:    txn.ExchangeType,
		Status:          domain.StatusCompleted,
	}, nil
}

// settle performs the atomic unit: lock both accounts, re-check funds under
// the lock, apply both balance legs, and flip the record to COMPLETED.
// Everything commits or nothing does.
func (s *conversionService) settle(ctx context.Context, txn domain.ExchangeTransaction, debit, credit decimal.Decimal, userID string, now time.Time) error {
	tx, err := s.txnRepo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin conversion transaction: %w", err)
	}
	defer s.txnRepo.Rollback(ctx, tx)

	// Stable lock order prevents deadlock between racing conversions on the
	// same account pair.
	ids := []string{txn.FromAccountID, txn.ToAccountID}
	sort.Strings(ids)

	locked, err := s.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return fmt.Errorf("failed to lock accounts: %w", err)
	}

	lockedFrom, ok := locked[txn.FromAccountID]
	if !ok {
		return fmt.Errorf("%w: source account disappeared", apperrors.ErrAccountsNotFound)
	}
	// The precondition check ran outside the lock; re-verify now that the
	// balance cannot move under us.
	if !lockedFrom.CanDebit(debit) {
		return fmt.Errorf("%w: available %s, requested %s",
			apperrors.ErrInsufficientBalance, lockedFrom.AvailableBalance, debit)
	}

	changes := map[string]decimal.Decimal{
		txn.FromAccountID: debit.Neg(),
		txn.ToAccountID:   credit,
	}
	if err := s.accountRepo.ApplyBalanceChangesInTx(ctx, tx, changes, userID, now); err != nil {
		return fmt.Errorf("failed to apply balance changes: %w", err)
	}

	if err := s.txnRepo.CompleteTransactionInTx(ctx, tx, txn.TransactionID, userID, now); err != nil {
		return fmt.Errorf("failed to complete transaction record: %w", err)
	}

	return s.txnRepo.Commit(ctx, tx)
}

// GetTransaction retrieves one exchange transaction record.
func (s *conversionService) GetTransaction(ctx context.Context, transactionID string) (*domain.ExchangeTransaction, error) {
	txn, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %s: %w", transactionID, err)
	}
	return txn, nil
}

// ListTransactions retrieves a holder's exchange history, newest first.
func (s *conversionService) ListTransactions(ctx context.Context, holderID string, limit, offset int) ([]domain.ExchangeTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	txns, err := s.txnRepo.ListTransactionsByHolder(ctx, holderID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for holder %s: %w", holderID, err)
	}
	return txns, nil
}
