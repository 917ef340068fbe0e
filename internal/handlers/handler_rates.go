package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nvcfund/exchange-platform/internal/apperrors"
	"github.com/nvcfund/exchange-platform/internal/core/domain"
	portssvc "github.com/nvcfund/exchange-platform/internal/core/ports/services"
	"github.com/nvcfund/exchange-platform/internal/dto"
	"github.com/nvcfund/exchange-platform/internal/middleware"
)

// rateHandler handles HTTP requests related to exchange rates.
type rateHandler struct {
	rateStore    portssvc.RateStoreSvcFacade
	rateResolver portssvc.RateResolverSvcFacade
}

func newRateHandler(store portssvc.RateStoreSvcFacade, resolver portssvc.RateResolverSvcFacade) *rateHandler {
	return &rateHandler{
		rateStore:    store,
		rateResolver: resolver,
	}
}

// registerRateRoutes registers routes related to exchange rates.
func registerRateRoutes(rg *gin.RouterGroup, store portssvc.RateStoreSvcFacade, resolver portssvc.RateResolverSvcFacade) {
	h := newRateHandler(store, resolver)

	rates := rg.Group("/rates")
	{
		rates.POST("", h.setRate)
		rates.GET("/:from/:to", h.getRate)
		rates.GET("/:from/:to/resolve", h.resolveRate)
	}
}

func (h *rateHandler) setRate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.SetRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for SetRate", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	from, ok := domain.ParseCurrency(req.FromCurrency)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown currency code " + req.FromCurrency})
		return
	}
	to, ok := domain.ParseCurrency(req.ToCurrency)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown currency code " + req.ToCurrency})
		return
	}

	source := req.Source
	if source == "" {
		source = domain.SourceManual
	}

	logger = logger.With(slog.String("from", string(from)), slog.String("to", string(to)))
	logger.Info("Received request to set exchange rate", slog.Any("rate", req.Rate))

	if err := h.rateStore.SetRate(c.Request.Context(), from, to, req.Rate, source, operatorID(c)); err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Validation error setting exchange rate", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to set exchange rate in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set exchange rate"})
		}
		return
	}

	logger.Info("Exchange rate stored successfully")
	c.Status(http.StatusCreated)
}

func (h *rateHandler) getRate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	from, ok := domain.ParseCurrency(c.Param("from"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown currency code " + c.Param("from")})
		return
	}
	to, ok := domain.ParseCurrency(c.Param("to"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown currency code " + c.Param("to")})
		return
	}

	rate, ok := h.rateStore.GetRate(c.Request.Context(), from, to)
	if !ok {
		logger.Warn("Exchange rate not found", slog.String("from", string(from)), slog.String("to", string(to)))
		c.JSON(http.StatusNotFound, gin.H{"error": "Exchange rate not found"})
		return
	}

	c.JSON(http.StatusOK, rate)
}

func (h *rateHandler) resolveRate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	from, ok := domain.ParseCurrency(c.Param("from"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown currency code " + c.Param("from")})
		return
	}
	to, ok := domain.ParseCurrency(c.Param("to"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown currency code " + c.Param("to")})
		return
	}

	resolution, err := h.rateResolver.Resolve(c.Request.Context(), from, to)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoRate) {
			logger.Warn("No rate available for pair", slog.String("from", string(from)), slog.String("to", string(to)))
			c.JSON(http.StatusNotFound, gin.H{"error": "No rate available for " + string(from) + "/" + string(to)})
		} else {
			logger.Error("Failed to resolve rate", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve rate"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToResolutionResponse(resolution))
}
