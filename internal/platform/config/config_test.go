package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	for _, key := range []string{"INTENTGATE_ENV", "JWT_SIGNING_KEY", "KAFKA_BROKERS", "SIGNER_SERVICE_ID", "SIGNER_GAS", "SIGNER_DEPOSIT"} {
		t.Setenv(key, "")
	}

	t.Run("dev defaults", func(t *testing.T) {
		t.Setenv("PROXY_OWNER_ID", "proxy.near")
		t.Setenv("SIGNER_RPC_URL", "http://signer:3030")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Server.Addr)
		assert.Equal(t, devJWTSigningKey, cfg.Server.JWTSigningKey)
		assert.Empty(t, cfg.Proxy.SignerServiceID, "signer id is optional")
		assert.Equal(t, 5*time.Second, cfg.Proxy.TxTimeout)
		assert.Equal(t, "intentgate.activity", cfg.Kafka.Topic)
		assert.Nil(t, cfg.Kafka.Brokers)
	})

	t.Run("lists and durations", func(t *testing.T) {
		t.Setenv("PROXY_OWNER_ID", "proxy.near")
		t.Setenv("SIGNER_RPC_URL", "http://signer:3030")
		t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
		t.Setenv("PENDING_SIGNATURE_TTL", "1h")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
		assert.Equal(t, time.Hour, cfg.Redis.PendingTTL)
	})

	t.Run("missing required values", func(t *testing.T) {
		t.Setenv("INTENTGATE_ENV", "production")
		t.Setenv("PROXY_OWNER_ID", "")

		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PROXY_OWNER_ID")
		assert.Contains(t, err.Error(), "JWT_SIGNING_KEY")
	})

	t.Run("budget override outside dev", func(t *testing.T) {
		t.Setenv("INTENTGATE_ENV", "production")
		t.Setenv("PROXY_OWNER_ID", "proxy.near")
		t.Setenv("JWT_SIGNING_KEY", "secret")
		t.Setenv("SIGNER_RPC_URL", "http://signer:3030")
		t.Setenv("SIGNER_GAS", "1")

		_, err := FromEnv()
		assert.ErrorContains(t, err, "SIGNER_GAS")
	})

	t.Run("malformed value", func(t *testing.T) {
		t.Setenv("PROXY_OWNER_ID", "proxy.near")
		t.Setenv("SIGNER_RPC_URL", "http://signer:3030")
		t.Setenv("SIGNER_TIMEOUT", "soon")

		_, err := FromEnv()
		assert.ErrorContains(t, err, "SIGNER_TIMEOUT")
	})
}
