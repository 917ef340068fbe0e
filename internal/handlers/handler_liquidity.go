package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/nvcfund/exchange-platform/internal/apperrors"
	portssvc "github.com/nvcfund/exchange-platform/internal/core/ports/services"
	"github.com/nvcfund/exchange-platform/internal/dto"
	"github.com/nvcfund/exchange-platform/internal/middleware"
)

// liquidityHandler handles HTTP requests related to liquidity fees, volume
// commitments and off-ramp settlements.
type liquidityHandler struct {
	liquidityService portssvc.LiquiditySvcFacade
}

func newLiquidityHandler(ls portssvc.LiquiditySvcFacade) *liquidityHandler {
	return &liquidityHandler{
		liquidityService: ls,
	}
}

// registerLiquidityRoutes registers routes related to the liquidity program.
func registerLiquidityRoutes(rg *gin.RouterGroup, liquidityService portssvc.LiquiditySvcFacade) {
	h := newLiquidityHandler(liquidityService)

	liquidity := rg.Group("/liquidity")
	{
		liquidity.GET("/fee-quote", h.feeQuote)
		liquidity.POST("/settlements", h.processSettlement)
		liquidity.GET("/volume", h.getVolume)
		liquidity.POST("/volume/reset", h.resetVolume)
		liquidity.GET("/commitment/:year", h.commitmentStatus)
		liquidity.GET("/bonus/:quarter", h.quarterlyBonus)
	}
}

func (h *liquidityHandler) feeQuote(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	amountStr := c.Query("amount")
	amount, err := decimal.NewFromString(amountStr)
	if err != nil || !amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a positive decimal"})
		return
	}

	ledger, err := h.liquidityService.GetVolumeLedger(c.Request.Context())
	if err != nil {
		logger.Error("Failed to read volume ledger", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to quote fee"})
		return
	}

	feeRate := h.liquidityService.FeeRateFor(amount, ledger.Yearly)
	feeAmount := amount.Mul(feeRate)
	platform, partner := h.liquidityService.SplitFee(feeAmount)

	c.JSON(http.StatusOK, dto.FeeQuoteResponse{
		Amount:          amount,
		ProjectedVolume: ledger.Yearly.Add(amount),
		FeeRate:         feeRate,
		FeeAmount:       feeAmount,
		PlatformFee:     platform,
		PartnerFee:      partner,
		NetAmount:       amount.Sub(feeAmount),
	})
}

func (h *liquidityHandler) processSettlement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.SettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ProcessSettlement", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	result, err := h.liquidityService.ProcessSettlement(c.Request.Context(), req.Amount, operatorID(c))
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Settlement failed", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Settlement failed"})
		}
		return
	}

	logger.Info("Settlement processed", slog.Any("gross", result.GrossAmount), slog.Any("net", result.NetAmount))
	c.JSON(http.StatusCreated, result)
}

func (h *liquidityHandler) getVolume(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ledger, err := h.liquidityService.GetVolumeLedger(c.Request.Context())
	if err != nil {
		logger.Error("Failed to read volume ledger", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve volume ledger"})
		return
	}
	c.JSON(http.StatusOK, ledger)
}

func (h *liquidityHandler) resetVolume(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ResetVolumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	if err := h.liquidityService.ResetPeriod(c.Request.Context(), req.Period, operatorID(c)); err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to reset period", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset period"})
		}
		return
	}

	logger.Info("Volume period reset", slog.String("period", string(req.Period)))
	c.Status(http.StatusNoContent)
}

func (h *liquidityHandler) commitmentStatus(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 2000 || year > 2200 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year must be a valid calendar year"})
		return
	}

	status, err := h.liquidityService.CommitmentStatus(c.Request.Context(), year)
	if err != nil {
		logger.Error("Failed to compute commitment status", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute commitment status"})
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *liquidityHandler) quarterlyBonus(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	quarter, err := strconv.Atoi(c.Param("quarter"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quarter must be 1 to 4"})
		return
	}

	bonus, err := h.liquidityService.CheckQuarterlyBonus(c.Request.Context(), quarter)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to compute quarterly bonus", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute quarterly bonus"})
		return
	}
	c.JSON(http.StatusOK, bonus)
}
