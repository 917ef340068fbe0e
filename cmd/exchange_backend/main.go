package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/nvcfund/exchange-platform/internal/adapters/filestore"
	"github.com/nvcfund/exchange-platform/internal/adapters/ratefeed"
	"github.com/nvcfund/exchange-platform/internal/adapters/settlement"
	"github.com/nvcfund/exchange-platform/internal/core/domain"
	portssvc "github.com/nvcfund/exchange-platform/internal/core/ports/services"
	"github.com/nvcfund/exchange-platform/internal/core/services"
	"github.com/nvcfund/exchange-platform/internal/handlers"
	"github.com/nvcfund/exchange-platform/internal/middleware"
	"github.com/nvcfund/exchange-platform/internal/repositories/database/pgsql"
	"github.com/nvcfund/exchange-platform/pkg/config"
	"github.com/nvcfund/exchange-platform/pkg/database"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
		logger.Error("Failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// File-backed fallback rate store for currencies the relational enum
	// cannot represent.
	fallbackStore, err := filestore.New(cfg.FallbackFilePath, logger)
	if err != nil {
		logger.Error("Failed to open fallback rate store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var feed portssvc.RateFeed
	if cfg.FeedBaseURL != "" {
		feed = ratefeed.NewWithTimeout(cfg.FeedBaseURL, cfg.FeedTimeout, logger)
		logger.Info("External rate feed enabled", slog.String("base_url", cfg.FeedBaseURL))
	}

	yearlyTarget, err := decimal.NewFromString(cfg.YearlyVolumeTarget)
	if err != nil {
		logger.Error("Invalid YEARLY_VOLUME_TARGET", slog.String("value", cfg.YearlyVolumeTarget))
		os.Exit(1)
	}

	repos := pgsql.NewRepositoryProvider(dbPool)
	txnRepo := pgsql.NewPgxTransactionRepository(dbPool)

	serviceContainer := services.NewServiceContainer(repos, txnRepo, services.ContainerDeps{
		Feed:          feed,
		Fallback:      fallbackStore,
		Gateway:       settlement.NewRecordingGateway(logger),
		Reserve:       domain.Currency(cfg.ReserveCurrency),
		UnityFallback: cfg.UnityFallback,
		RateStoreOpts: []services.RateStoreOption{
			services.WithCacheTTL(cfg.RateCacheTTL),
			services.WithCacheSize(cfg.RateCacheSize),
		},
		LiquidityOpts: []services.LiquidityOption{
			services.WithDefaultTarget(yearlyTarget),
		},
	})

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	limiterInstance := newIPLimiter(cfg.RateLimitSpec, logger)

	handlers.RegisterRoutes(r, cfg, serviceContainer, limiterInstance)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Block until interrupted, then drain in-flight requests and flush the
	// fallback store before exiting.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", slog.String("error", err.Error()))
	}
	if err := fallbackStore.Close(shutdownCtx); err != nil {
		logger.Error("Fallback store shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("Shutdown complete.")
}

func newIPLimiter(spec string, logger *slog.Logger) *limiter.Limiter {
	rate, err := limiter.NewRateFromFormatted(spec)
	if err != nil {
		logger.Warn("Invalid RATE_LIMIT_SPEC, rate limiting disabled", slog.String("spec", spec))
		return nil
	}
	return limiter.New(memory.NewStore(), rate)
}

func runMigrations(databaseURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	// Open a temporary standard sql.DB connection for migrations, using the
	// pgx stdlib driver to stay compatible with the main pool.
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	if err := migrationDB.Ping(); err != nil {
		migrationDB.Close()
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	upErr := m.Up()
	if upErr != nil && upErr != migrate.ErrNoChange {
		return upErr
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if upErr == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
