package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WEALTHGATE_GATEWAY_MODE", "mock")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, GatewayModeMock, cfg.Gateway.Mode)
	assert.Equal(t, 30*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, 4*time.Minute, cfg.Gateway.TokenTTL)
	assert.Equal(t, 55*time.Minute, cfg.Gateway.ServiceTokenTTL)
	assert.Equal(t, 15*time.Minute, cfg.Reconcile.Interval)
	assert.Equal(t, time.Hour, cfg.Reconcile.Threshold)
	assert.Equal(t, "wealthgate.order.events", cfg.Kafka.Topic)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("WEALTHGATE_GATEWAY_MODE", "live")
	t.Setenv("WEALTHGATE_GATEWAY_LEGACY_BASE_URL", "https://legacy.example.com")
	t.Setenv("WEALTHGATE_GATEWAY_REST_BASE_URL", "https://rest.example.com")
	t.Setenv("WEALTHGATE_SERVER_ADDR", ":9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, GatewayModeLive, cfg.Gateway.Mode)
	assert.Equal(t, "https://legacy.example.com", cfg.Gateway.LegacyBaseURL)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestLoadValidation(t *testing.T) {
	t.Run("LiveModeNeedsBaseURLs", func(t *testing.T) {
		t.Setenv("WEALTHGATE_GATEWAY_MODE", "live")
		t.Setenv("WEALTHGATE_GATEWAY_LEGACY_BASE_URL", "")
		t.Setenv("WEALTHGATE_GATEWAY_REST_BASE_URL", "")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("UnknownModeRejected", func(t *testing.T) {
		t.Setenv("WEALTHGATE_GATEWAY_MODE", "sandbox")
		_, err := Load()
		assert.Error(t, err)
	})
}
