package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	HTTPAddr      string
	DashboardAddr string
	PostgresDSN   string // kosong = in-memory store
	RedisAddr     string
	KafkaBrokers  []string
	OrdersTopic   string
	AMQPURL       string
	ServiceName   string
	LogLevel      string
	SeedFile      string

	CommitTimeout      time.Duration
	TaxRate            decimal.Decimal
	RequireFullPayment bool

	PublicRateLimit float64 // requests per second per client IP
	PublicRateBurst int

	DashboardGroup string
}

func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:       getenv("HTTP_ADDR", ":8081"),
		DashboardAddr:  getenv("DASHBOARD_ADDR", ":8082"),
		PostgresDSN:    os.Getenv("POSTGRES_DSN"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		KafkaBrokers:   splitCSV(os.Getenv("KAFKA_BROKERS")),
		OrdersTopic:    getenv("ORDERS_TOPIC", "pos.orders"),
		AMQPURL:        os.Getenv("AMQP_URL"),
		ServiceName:    getenv("SERVICE_NAME", "pos-api"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		SeedFile:       os.Getenv("SEED_FILE"),
		DashboardGroup: getenv("DASHBOARD_GROUP", "pos-dashboard"),
	}

	var err error
	if cfg.CommitTimeout, err = time.ParseDuration(getenv("COMMIT_TIMEOUT", "10s")); err != nil || cfg.CommitTimeout <= 0 {
		return Config{}, fmt.Errorf("COMMIT_TIMEOUT: invalid duration %q", os.Getenv("COMMIT_TIMEOUT"))
	}
	if cfg.TaxRate, err = decimal.NewFromString(getenv("TAX_RATE", "0")); err != nil || cfg.TaxRate.IsNegative() {
		return Config{}, fmt.Errorf("TAX_RATE: invalid rate %q", os.Getenv("TAX_RATE"))
	}
	if cfg.RequireFullPayment, err = strconv.ParseBool(getenv("REQUIRE_FULL_PAYMENT", "false")); err != nil {
		return Config{}, fmt.Errorf("REQUIRE_FULL_PAYMENT: %w", err)
	}
	if cfg.PublicRateLimit, err = strconv.ParseFloat(getenv("PUBLIC_RATE_LIMIT", "1"), 64); err != nil || cfg.PublicRateLimit <= 0 {
		return Config{}, fmt.Errorf("PUBLIC_RATE_LIMIT: invalid rate %q", os.Getenv("PUBLIC_RATE_LIMIT"))
	}
	if cfg.PublicRateBurst, err = strconv.Atoi(getenv("PUBLIC_RATE_BURST", "5")); err != nil || cfg.PublicRateBurst <= 0 {
		return Config{}, fmt.Errorf("PUBLIC_RATE_BURST: invalid burst %q", os.Getenv("PUBLIC_RATE_BURST"))
	}
	return cfg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
