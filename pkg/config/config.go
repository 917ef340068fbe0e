package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	// Rate store
	RateCacheTTL     time.Duration
	RateCacheSize    int
	FallbackFilePath string `mapstructure:"FALLBACK_RATES_FILE"`

	// Rate resolver
	ReserveCurrency string `mapstructure:"RESERVE_CURRENCY"`
	FeedBaseURL     string `mapstructure:"RATE_FEED_BASE_URL"`
	FeedTimeout     time.Duration
	UnityFallback   bool `mapstructure:"UNITY_FALLBACK"`

	// Liquidity
	YearlyVolumeTarget string `mapstructure:"YEARLY_VOLUME_TARGET"`

	// Rate limiting, ulule/limiter format e.g. "100-M"
	RateLimitSpec string `mapstructure:"RATE_LIMIT_SPEC"`
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("RATE_CACHE_TTL", "600s")
	viper.SetDefault("RATE_CACHE_SIZE", 200)
	viper.SetDefault("FALLBACK_RATES_FILE", "currency_rates.json")
	viper.SetDefault("RESERVE_CURRENCY", "NVCT")
	viper.SetDefault("RATE_FEED_BASE_URL", "")
	viper.SetDefault("RATE_FEED_TIMEOUT", "5s")
	viper.SetDefault("UNITY_FALLBACK", false)
	viper.SetDefault("YEARLY_VOLUME_TARGET", "2000000000")
	viper.SetDefault("RATE_LIMIT_SPEC", "300-M")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cacheTTLStr := viper.GetString("RATE_CACHE_TTL")
	cacheTTL, err := time.ParseDuration(cacheTTLStr)
	if err != nil {
		cacheTTL = 10 * time.Minute
		if cacheTTLStr != "" {
			log.Printf("Warning: Invalid value for RATE_CACHE_TTL ('%s'). Defaulting to %s.\n", cacheTTLStr, cacheTTL)
		}
	}
	cfg.RateCacheTTL = cacheTTL

	cfg.RateCacheSize = viper.GetInt("RATE_CACHE_SIZE")
	if cfg.RateCacheSize <= 0 {
		cfg.RateCacheSize = 200
		log.Printf("Warning: RATE_CACHE_SIZE not set or invalid. Defaulting to %d.\n", cfg.RateCacheSize)
	}

	cfg.FallbackFilePath = viper.GetString("FALLBACK_RATES_FILE")
	cfg.ReserveCurrency = viper.GetString("RESERVE_CURRENCY")
	cfg.FeedBaseURL = viper.GetString("RATE_FEED_BASE_URL")

	feedTimeoutStr := viper.GetString("RATE_FEED_TIMEOUT")
	feedTimeout, err := time.ParseDuration(feedTimeoutStr)
	if err != nil {
		feedTimeout = 5 * time.Second
		if feedTimeoutStr != "" {
			log.Printf("Warning: Invalid value for RATE_FEED_TIMEOUT ('%s'). Defaulting to %s.\n", feedTimeoutStr, feedTimeout)
		}
	}
	cfg.FeedTimeout = feedTimeout

	cfg.UnityFallback = viper.GetBool("UNITY_FALLBACK")
	cfg.YearlyVolumeTarget = viper.GetString("YEARLY_VOLUME_TARGET")
	cfg.RateLimitSpec = viper.GetString("RATE_LIMIT_SPEC")

	return cfg, nil
}
