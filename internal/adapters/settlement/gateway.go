// Package settlement adapts the external liquidity partner boundary. The
// partner's real API is consumed as a black box; this package provides the
// in-process stand-in used until a partner transport is configured.
package settlement

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nvcfund/exchange-platform/internal/core/domain"
)

// RecordingGateway acknowledges settlements locally and keeps the last
// handed-off result for inspection. It is the default gateway when no
// partner endpoint is configured.
type RecordingGateway struct {
	logger *slog.Logger

	mu   sync.Mutex
	last *domain.SettlementResult
}

// NewRecordingGateway creates a new RecordingGateway.
func NewRecordingGateway(logger *slog.Logger) *RecordingGateway {
	return &RecordingGateway{logger: logger}
}

// Settle acknowledges the fee-adjusted net amount.
func (g *RecordingGateway) Settle(ctx context.Context, result domain.SettlementResult) error {
	g.mu.Lock()
	g.last = &result
	g.mu.Unlock()

	g.logger.InfoContext(ctx, "Settlement handed to liquidity partner",
		slog.Any("gross", result.GrossAmount),
		slog.Any("net", result.NetAmount),
		slog.Any("partner_fee", result.PartnerFee),
	)
	return nil
}

// Last returns the most recently settled result, or nil.
func (g *RecordingGateway) Last() *domain.SettlementResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}
