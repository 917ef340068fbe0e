package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	portssvc "github.com/nvcfund/exchange-platform/internal/core/ports/services"
	"github.com/nvcfund/exchange-platform/internal/middleware"
	"github.com/nvcfund/exchange-platform/pkg/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	limiterInstance *limiter.Limiter,
) {
	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})
	r.GET("/", getHome)

	setupAPIV1Routes(r, cfg, services, limiterInstance)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	limiterInstance *limiter.Limiter,
) {
	v1 := r.Group("/api/v1")
	if limiterInstance != nil {
		v1.Use(middleware.RateLimit(limiterInstance))
	}

	registerRateRoutes(v1, services.RateStore, services.RateResolver)
	registerConversionRoutes(v1, services.Conversion)
	registerAccountRoutes(v1, services.Account)
	registerLiquidityRoutes(v1, services.Liquidity)
}
