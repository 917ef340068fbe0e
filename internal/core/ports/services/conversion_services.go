package services

import (
	"context"

	"github.com/nvcfund/exchange-platform/internal/core/domain"
	"github.com/nvcfund/exchange-platform/internal/dto"
)

// ConversionSvcFacade executes currency exchanges between two accounts of the
// same holder, atomically from the ledger's point of view.
type ConversionSvcFacade interface {
	// Convert validates, prices and settles one exchange. Precondition
	// failures come back as the distinct sentinels in apperrors; the handler
	// layer maps them to wire-level error reasons.
	Convert(ctx context.Context, req dto.ConversionRequest, userID string) (*dto.ConversionResult, error)

	// GetTransaction retrieves one exchange transaction record.
	GetTransaction(ctx context.Context, transactionID string) (*domain.ExchangeTransaction, error)

	// ListTransactions retrieves a holder's exchange history, newest first.
	ListTransactions(ctx context.Context, holderID string, limit, offset int) ([]domain.ExchangeTransaction, error)
}
