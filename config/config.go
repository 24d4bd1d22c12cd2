package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Order    OrderConfig
	Currency CurrencyConfig
	Sweeper  SweeperConfig
}

type ServerConfig struct {
	Port          string
	Env           string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	StorefrontURL string
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

// OrderConfig covers the storefront checkout webhook.
type OrderConfig struct {
	WebhookSecret string
}

type CurrencyConfig struct {
	RateURL  string
	RateTTL  time.Duration
	Fallback float64 // JPY -> IDR
}

type SweeperConfig struct {
	Interval time.Duration
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          envStr("PORT", "8088"),
			Env:           envStr("APP_ENV", "development"),
			ReadTimeout:   10 * time.Second,
			WriteTimeout:  10 * time.Second,
			StorefrontURL: envStr("STOREFRONT_URL", "https://injapanfood.com"),
		},
		Database: DatabaseConfig{
			DSN:             envStr("DATABASE_DSN", "root:@tcp(localhost:3306)/affiliate?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  envStr("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: envStr("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "injapan-affiliate",
		},
		Order: OrderConfig{
			WebhookSecret: envStr("ORDER_WEBHOOK_SECRET", ""),
		},
		Currency: CurrencyConfig{
			RateURL:  envStr("RATE_SOURCE_URL", ""),
			RateTTL:  time.Duration(envInt("RATE_TTL_MINUTES", 60)) * time.Minute,
			Fallback: 105.0,
		},
		Sweeper: SweeperConfig{
			Interval: time.Duration(envInt("SWEEP_INTERVAL_MINUTES", 30)) * time.Minute,
		},
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
