package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ValidateConfig(t *testing.T) {
	t.Parallel()

	t.Run("invalid listen address", func(t *testing.T) {
		t.Parallel()

		cfg := DefaultConfig()
		cfg.ListenAddress = "rando-address" // doesn't follow the format

		assert.ErrorIs(t, ValidateConfig(cfg), ErrInvalidListenAddress)
	})

	t.Run("invalid window", func(t *testing.T) {
		t.Parallel()

		cfg := DefaultConfig()
		cfg.Engine.Window = 0

		assert.ErrorIs(t, ValidateConfig(cfg), ErrInvalidWindow)
	})

	t.Run("invalid cache TTL", func(t *testing.T) {
		t.Parallel()

		cfg := DefaultConfig()
		cfg.Engine.CacheTTLSeconds = -1

		assert.ErrorIs(t, ValidateConfig(cfg), ErrInvalidCacheTTL)
	})

	t.Run("invalid default amount", func(t *testing.T) {
		t.Parallel()

		cfg := DefaultConfig()
		cfg.Engine.DefaultAmount = "a lot"

		assert.ErrorIs(t, ValidateConfig(cfg), ErrInvalidAmount)
	})

	t.Run("negative card premium", func(t *testing.T) {
		t.Parallel()

		cfg := DefaultConfig()
		cfg.CardPremiums = map[string]CardPremiumConfig{
			"Wise": {DebitPct: -1, CreditPct: 2},
		}

		assert.ErrorIs(t, ValidateConfig(cfg), ErrInvalidPremium)
	})

	t.Run("valid configuration", func(t *testing.T) {
		t.Parallel()

		assert.NoError(t, ValidateConfig(DefaultConfig()))
	})
}

func TestConfig_Read(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := Read(filepath.Join(t.TempDir(), "missing.toml"))

		assert.Error(t, err)
	})

	t.Run("partial file keeps defaults", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, `listen_address = "127.0.0.1:9000"`)

		cfg, err := Read(path)
		require.NoError(t, err)

		assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddress)
		assert.Equal(t, DefaultEngineConfig(), cfg.Engine)
		assert.Equal(t, DefaultInsightConfig(), cfg.Insight)
		assert.NotNil(t, cfg.CORSConfig)
		assert.NoError(t, ValidateConfig(cfg))
	})

	t.Run("full file", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, `
listen_address = "0.0.0.0:8080"

[engine]
window = 50
cache_ttl_seconds = 60
default_amount = "750"

[insight]
model = "claude-test"
max_tokens = 512
timeout_seconds = 10

[currencies]
SV = "btc"

[card_premiums."Western Union"]
debit_pct = 2.5
credit_pct = 4.0
`)

		cfg, err := Read(path)
		require.NoError(t, err)
		require.NoError(t, ValidateConfig(cfg))

		assert.Equal(t, 50, cfg.Window())
		assert.Equal(t, time.Minute, cfg.CacheTTL())
		assert.True(t, decimal.NewFromInt(750).Equal(cfg.DefaultAmount()))
		assert.Len(t, cfg.InsightOptions(), 3)

		currency, ok := cfg.CurrencyTable().Currency("SV")
		require.True(t, ok)
		assert.Equal(t, "BTC", currency)

		premiums := cfg.Premiums()
		require.Contains(t, premiums, "Western Union")
		assert.True(t, decimal.RequireFromString("2.5").Equal(premiums["Western Union"].DebitPct))
		assert.True(t, decimal.NewFromInt(4).Equal(premiums["Western Union"].CreditPct))

		// Untouched providers keep their defaults
		assert.Contains(t, premiums, "Wise")
	})
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}
