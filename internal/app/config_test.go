package app

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	_ "github.com/odyssey-erp/storefront/internal/testing/guard"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, "INR", cfg.PricingCurrency)
	require.False(t, cfg.IsProduction())

	policy, err := cfg.StockPolicy()
	require.NoError(t, err)
	require.True(t, policy.MinCoverage.Equal(decimal.RequireFromString("0.5")))
	require.True(t, policy.OneTimeShortfallIsOutOfStock)
}

func TestLoadConfigReadsStockPolicy(t *testing.T) {
	t.Setenv("FULFILLMENT_MIN_COVERAGE", "0.25")
	t.Setenv("FULFILLMENT_ONE_TIME_SHORTFALL_OUT_OF_STOCK", "false")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	policy, err := cfg.StockPolicy()
	require.NoError(t, err)
	require.True(t, policy.MinCoverage.Equal(decimal.RequireFromString("0.25")))
	require.False(t, policy.OneTimeShortfallIsOutOfStock)

	t.Setenv("FULFILLMENT_MIN_COVERAGE", "1.5")
	_, err = LoadConfig()
	require.Error(t, err)
}

func TestInTestModeFromGuard(t *testing.T) {
	RefreshTestMode()
	require.True(t, InTestMode())
}
