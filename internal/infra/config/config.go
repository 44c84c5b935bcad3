package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL        string
	LogLevel           string
	Environment        string
	FetchTimeout       time.Duration // Upper bound for loading the record sets of one computation
	ReportWindowMonths int

	StripeSecretKey         string
	StripeCustomerQuery     string
	StripeRequestsPerSecond float64

	TelegramToken   string
	AdminTelegramID int64

	CronSpecSync   string
	CronSpecDigest string
	MetricsAddr    string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	cfg.FetchTimeout = 30 * time.Second
	if v := os.Getenv("FETCH_TIMEOUT"); v != "" {
		cfg.FetchTimeout, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid FETCH_TIMEOUT: %w", err)
		}
	}

	cfg.ReportWindowMonths = 6
	if v := os.Getenv("REPORT_WINDOW_MONTHS"); v != "" {
		cfg.ReportWindowMonths, err = strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REPORT_WINDOW_MONTHS: %w", err)
		}
		if cfg.ReportWindowMonths < 1 {
			return nil, fmt.Errorf("REPORT_WINDOW_MONTHS must be positive, got %d", cfg.ReportWindowMonths)
		}
	}

	cfg.StripeSecretKey = os.Getenv("STRIPE_SECRET_KEY") // Only required by the sync job
	cfg.StripeCustomerQuery = os.Getenv("STRIPE_CUSTOMER_QUERY")
	if cfg.StripeCustomerQuery == "" {
		cfg.StripeCustomerQuery = "created>=0"
	}
	cfg.StripeRequestsPerSecond = 20
	if v := os.Getenv("STRIPE_REQUESTS_PER_SECOND"); v != "" {
		cfg.StripeRequestsPerSecond, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid STRIPE_REQUESTS_PER_SECOND: %w", err)
		}
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken != "" {
		adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID")
		if adminIDStr == "" {
			return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is not set")
		}
		cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}

	cfg.CronSpecSync = os.Getenv("CRON_SPEC_SYNC")
	if cfg.CronSpecSync == "" {
		cfg.CronSpecSync = "0 3 * * *" // Default: 03:00 daily
	}
	cfg.CronSpecDigest = os.Getenv("CRON_SPEC_DIGEST")
	if cfg.CronSpecDigest == "" {
		cfg.CronSpecDigest = "0 9 1 * *" // Default: 09:00 on the 1st
	}

	// An explicitly empty METRICS_ADDR disables the endpoint.
	addr, ok := os.LookupEnv("METRICS_ADDR")
	if !ok {
		addr = ":9090"
	}
	cfg.MetricsAddr = addr

	return cfg, nil
}

// TelegramEnabled reports whether the bot should be started.
func (c *AppConfig) TelegramEnabled() bool {
	return c.TelegramToken != ""
}
