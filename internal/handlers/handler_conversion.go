package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nvcfund/exchange-platform/internal/apperrors"
	portssvc "github.com/nvcfund/exchange-platform/internal/core/ports/services"
	"github.com/nvcfund/exchange-platform/internal/dto"
	"github.com/nvcfund/exchange-platform/internal/middleware"
)

// conversionHandler handles HTTP requests related to currency exchanges.
type conversionHandler struct {
	conversionService portssvc.ConversionSvcFacade
}

func newConversionHandler(cs portssvc.ConversionSvcFacade) *conversionHandler {
	return &conversionHandler{
		conversionService: cs,
	}
}

// registerConversionRoutes registers routes related to currency exchanges.
func registerConversionRoutes(rg *gin.RouterGroup, conversionService portssvc.ConversionSvcFacade) {
	h := newConversionHandler(conversionService)

	conversions := rg.Group("/conversions")
	{
		conversions.POST("", h.convert)
		conversions.GET("/:transactionID", h.getTransaction)
		conversions.GET("", h.listTransactions)
	}
}

func (h *conversionHandler) convert(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Convert", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	logger = logger.With(
		slog.String("holder_id", req.HolderID),
		slog.String("from_account_id", req.FromAccountID),
		slog.String("to_account_id", req.ToAccountID),
	)
	logger.Info("Received conversion request", slog.Any("amount", req.Amount))

	result, err := h.conversionService.Convert(c.Request.Context(), req, operatorID(c))
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Validation error on conversion", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case apperrors.ReasonCode(err) != "":
			// Precondition rejections travel as a structured result so
			// callers can branch on the reason without parsing messages.
			failed := dto.FailedConversionResult(err)
			logger.Warn("Conversion rejected", slog.String("reason", failed.ErrorReason))
			c.JSON(http.StatusUnprocessableEntity, failed)
		default:
			logger.Error("Conversion failed", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Conversion failed"})
		}
		return
	}

	logger.Info("Conversion completed",
		slog.String("transaction_id", result.TransactionID),
		slog.String("reference_number", result.ReferenceNumber),
	)
	c.JSON(http.StatusCreated, result)
}

func (h *conversionHandler) getTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")

	txn, err := h.conversionService.GetTransaction(c.Request.Context(), transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		} else {
			logger.Error("Failed to get transaction", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve transaction"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

func (h *conversionHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	holderID := c.Query("holderID")
	if holderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "holderID query parameter is required"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 500 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	txns, err := h.conversionService.ListTransactions(c.Request.Context(), holderID, limit, offset)
	if err != nil {
		logger.Error("Failed to list transactions", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list transactions"})
		return
	}

	responses := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		responses = append(responses, dto.ToTransactionResponse(&txns[i]))
	}
	c.JSON(http.StatusOK, responses)
}
