package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"POSTGRES_DSN", "REDIS_ADDR", "KAFKA_BROKERS", "AMQP_URL", "COMMIT_TIMEOUT", "TAX_RATE", "REQUIRE_FULL_PAYMENT"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Empty(t, cfg.PostgresDSN)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "pos.orders", cfg.OrdersTopic)
	assert.Equal(t, 10*time.Second, cfg.CommitTimeout)
	assert.True(t, cfg.TaxRate.IsZero())
	assert.False(t, cfg.RequireFullPayment)
	assert.Equal(t, 5, cfg.PublicRateBurst)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " kafka-1:9092, ,kafka-2:9092 ")
	t.Setenv("COMMIT_TIMEOUT", "3s")
	t.Setenv("TAX_RATE", "0.11")
	t.Setenv("REQUIRE_FULL_PAYMENT", "true")
	t.Setenv("PUBLIC_RATE_LIMIT", "2.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 3*time.Second, cfg.CommitTimeout)
	assert.Equal(t, "0.11", cfg.TaxRate.String())
	assert.True(t, cfg.RequireFullPayment)
	assert.InDelta(t, 2.5, cfg.PublicRateLimit, 1e-9)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"COMMIT_TIMEOUT":       "soon",
		"TAX_RATE":             "-0.1",
		"REQUIRE_FULL_PAYMENT": "maybe",
		"PUBLIC_RATE_BURST":    "0",
	}
	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, v)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
