package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(viper.New())
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, 24*time.Hour, cfg.JWTTTL)
	require.Equal(t, "host=localhost user=postgres password=postgres dbname=storefront port=5432 sslmode=disable", cfg.DSN())

	rates, err := cfg.Shipping()
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(80).Equal(rates.Inside))
	require.True(t, decimal.NewFromInt(150).Equal(rates.Outside))
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://u:p@db:5432/shop")
	t.Setenv("SHIPPING_OUTSIDE_FEE", "175.50")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "5")

	cfg, err := load(viper.New())
	require.NoError(t, err)
	require.Equal(t, "postgres://u:p@db:5432/shop", cfg.DSN())
	require.Equal(t, 5, cfg.RateLimitPerMinute)

	rates, err := cfg.Shipping()
	require.NoError(t, err)
	require.True(t, decimal.RequireFromString("175.50").Equal(rates.Outside))
}

func TestProxies(t *testing.T) {
	cfg := &Config{TrustedProxies: " 10.1.2.3/8, 192.0.2.10 ,,"}
	proxies, err := cfg.Proxies()
	require.NoError(t, err)
	require.Len(t, proxies, 2)
	require.Equal(t, "10.0.0.0/8", proxies[0].String())
	require.Equal(t, "192.0.2.10/32", proxies[1].String())

	none, err := (&Config{}).Proxies()
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestLoadRejects(t *testing.T) {
	t.Run("bad fee", func(t *testing.T) {
		t.Setenv("SHIPPING_INSIDE_FEE", "eighty")
		_, err := load(viper.New())
		require.Error(t, err)
	})
	t.Run("bad trusted proxy", func(t *testing.T) {
		t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, not-an-ip")
		_, err := load(viper.New())
		require.Error(t, err)
	})
	t.Run("production without secrets", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		_, err := load(viper.New())
		require.Error(t, err)
	})
}
