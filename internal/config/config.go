package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config is the service configuration resolved from the environment.
//
// Values are read once at startup by Load; every variable it consults is named
// there with its default. DynamoDB connection settings are read by the database
// package itself.
type Config struct {
	Port        string
	Environment string

	DonationsTable    string
	DonationKeysTable string

	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string
	GatewayMock           bool
	GatewayTimeout        time.Duration

	Currency          string
	MinDonationAmount decimal.Decimal
	MaxDonationAmount decimal.Decimal
	ReceiptPrefix     string

	ReconcileStaleAfter time.Duration
	ReconcileBatchSize  int
	ReconcileInterval   time.Duration

	RedisURL   string
	CronSecret string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:                  getenvDefault("PORT", "8080"),
		Environment:           getenvDefault("ENVIRONMENT", "production"),
		DonationsTable:        getenvDefault("DONATIONS_TABLE", "donations"),
		DonationKeysTable:     getenvDefault("DONATION_KEYS_TABLE", "donation_keys"),
		RazorpayKeyID:         os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayWebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
		GatewayMock:           IsPaymentGatewayMockEnabled(),
		Currency:              strings.ToUpper(getenvDefault("DONATION_CURRENCY", "INR")),
		ReceiptPrefix:         getenvDefault("RECEIPT_PREFIX", "TRST"),
		RedisURL:              os.Getenv("REDIS_URL"),
		CronSecret:            os.Getenv("CRON_SECRET"),
	}

	var err error
	if cfg.MinDonationAmount, err = getenvDecimal("MIN_DONATION_AMOUNT", "1"); err != nil {
		return nil, err
	}
	if cfg.MaxDonationAmount, err = getenvDecimal("MAX_DONATION_AMOUNT", "1000000"); err != nil {
		return nil, err
	}
	if cfg.MinDonationAmount.GreaterThan(cfg.MaxDonationAmount) {
		return nil, fmt.Errorf("MIN_DONATION_AMOUNT %s exceeds MAX_DONATION_AMOUNT %s", cfg.MinDonationAmount, cfg.MaxDonationAmount)
	}
	if cfg.GatewayTimeout, err = getenvDuration("GATEWAY_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.ReconcileStaleAfter, err = getenvDuration("RECONCILE_STALE_AFTER", "15m"); err != nil {
		return nil, err
	}
	if cfg.ReconcileInterval, err = getenvDuration("RECONCILE_INTERVAL", "0s"); err != nil {
		return nil, err
	}
	if cfg.ReconcileBatchSize, err = getenvInt("RECONCILE_BATCH_SIZE", 50); err != nil {
		return nil, err
	}
	if cfg.ReconcileBatchSize <= 0 {
		return nil, fmt.Errorf("RECONCILE_BATCH_SIZE must be positive, got %d", cfg.ReconcileBatchSize)
	}

	return cfg, nil
}

// IsPaymentGatewayMockEnabled reports whether the in-process fake gateway
// should replace Razorpay.
func IsPaymentGatewayMockEnabled() bool {
	for _, key := range []string{"PAYMENT_GATEWAY_MOCK", "RAZORPAY_MOCK"} {
		v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
		switch v {
		case "1", "true", "yes", "on", "mock":
			return true
		}
	}
	return false
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getenvDecimal(key, def string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(getenvDefault(key, def))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
