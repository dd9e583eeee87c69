package config

import (
	"errors"
	"os"
	"regexp"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/shopspring/decimal"

	"github.com/sig-0/remitrates/analysis"
	"github.com/sig-0/remitrates/cache"
	"github.com/sig-0/remitrates/engine"
	"github.com/sig-0/remitrates/insight"
	"github.com/sig-0/remitrates/provider/currencies"
)

const (
	DefaultListenAddress = "0.0.0.0:8545"
	DefaultAmount        = "1000"
)

var (
	ErrInvalidListenAddress = errors.New("invalid listen address")
	ErrInvalidWindow        = errors.New("invalid analysis window")
	ErrInvalidCacheTTL      = errors.New("invalid cache TTL")
	ErrInvalidAmount        = errors.New("invalid default amount")
	ErrInvalidMaxTokens     = errors.New("invalid insight max tokens")
	ErrInvalidPremium       = errors.New("invalid card premium")
)

var listenAddressRegex = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}:\d+$`)

// Config defines the base-level server configuration
type Config struct {
	// The associated CORS config, if any
	CORSConfig *CORS `toml:"cors_config"`

	// The analysis engine config
	Engine *EngineConfig `toml:"engine"`

	// The narrative collaborator config
	Insight *InsightConfig `toml:"insight"`

	// Destination country -> payout currency overrides
	Currencies map[string]string `toml:"currencies"`

	// Provider -> card funding premium overrides
	CardPremiums map[string]CardPremiumConfig `toml:"card_premiums"`

	// The address at which the server will be served.
	// Format should be: <IP>:<PORT>
	ListenAddress string `toml:"listen_address"`
}

// EngineConfig defines the analysis engine configuration
type EngineConfig struct {
	// The comparison amount (USD) used when the request has none
	DefaultAmount string `toml:"default_amount"`

	// The number of freshest quotes analyzed per destination
	Window int `toml:"window"`

	// How long computed results are served from the cache
	CacheTTLSeconds int `toml:"cache_ttl_seconds"`
}

// InsightConfig defines the narrative collaborator configuration
type InsightConfig struct {
	Model          string `toml:"model"`
	MaxTokens      int    `toml:"max_tokens"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// CardPremiumConfig is a card funding premium, in percent of the amount
type CardPremiumConfig struct {
	DebitPct  float64 `toml:"debit_pct"`
	CreditPct float64 `toml:"credit_pct"`
}

// DefaultConfig returns the default server configuration
func DefaultConfig() *Config {
	return &Config{
		ListenAddress: DefaultListenAddress,
		CORSConfig:    DefaultCORSConfig(),
		Engine:        DefaultEngineConfig(),
		Insight:       DefaultInsightConfig(),
	}
}

// DefaultEngineConfig returns the default engine configuration
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		DefaultAmount:   DefaultAmount,
		Window:          engine.DefaultWindow,
		CacheTTLSeconds: int(cache.DefaultTTL / time.Second),
	}
}

// DefaultInsightConfig returns the default narrative collaborator configuration
func DefaultInsightConfig() *InsightConfig {
	return &InsightConfig{
		Model:          insight.DefaultModel,
		MaxTokens:      insight.DefaultMaxTokens,
		TimeoutSeconds: int(insight.DefaultTimeout / time.Second),
	}
}

// ValidateConfig validates the server configuration
func ValidateConfig(config *Config) error {
	// Validate the listen address
	if !listenAddressRegex.MatchString(config.ListenAddress) {
		return ErrInvalidListenAddress
	}

	if config.Engine != nil {
		if config.Engine.Window <= 0 {
			return ErrInvalidWindow
		}

		if config.Engine.CacheTTLSeconds <= 0 {
			return ErrInvalidCacheTTL
		}

		amount, err := decimal.NewFromString(config.Engine.DefaultAmount)
		if err != nil || !amount.IsPositive() {
			return ErrInvalidAmount
		}
	}

	if config.Insight != nil && config.Insight.MaxTokens <= 0 {
		return ErrInvalidMaxTokens
	}

	for _, premium := range config.CardPremiums {
		if premium.DebitPct < 0 || premium.CreditPct < 0 {
			return ErrInvalidPremium
		}
	}

	return nil
}

// Read reads the configuration from the given path.
// Sections missing from the file keep their defaults
func Read(path string) (*Config, error) {
	// Read the config file
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Parse it
	var cfg Config

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return nil, err
	}

	defaults := DefaultConfig()

	if cfg.ListenAddress == "" {
		cfg.ListenAddress = defaults.ListenAddress
	}

	if cfg.CORSConfig == nil {
		cfg.CORSConfig = defaults.CORSConfig
	}

	if cfg.Engine == nil {
		cfg.Engine = defaults.Engine
	}

	if cfg.Insight == nil {
		cfg.Insight = defaults.Insight
	}

	return &cfg, nil
}

// DefaultAmount returns the default comparison amount
func (c *Config) DefaultAmount() decimal.Decimal {
	if c.Engine != nil {
		if amount, err := decimal.NewFromString(c.Engine.DefaultAmount); err == nil {
			return amount
		}
	}

	return decimal.RequireFromString(DefaultAmount)
}

// CacheTTL returns how long computed results are cached
func (c *Config) CacheTTL() time.Duration {
	if c.Engine == nil || c.Engine.CacheTTLSeconds <= 0 {
		return cache.DefaultTTL
	}

	return time.Duration(c.Engine.CacheTTLSeconds) * time.Second
}

// Window returns the number of freshest quotes analyzed per destination
func (c *Config) Window() int {
	if c.Engine == nil || c.Engine.Window <= 0 {
		return engine.DefaultWindow
	}

	return c.Engine.Window
}

// InsightOptions returns the narrative collaborator options
func (c *Config) InsightOptions() []insight.Option {
	if c.Insight == nil {
		return nil
	}

	opts := make([]insight.Option, 0, 3)

	if c.Insight.Model != "" {
		opts = append(opts, insight.WithModel(c.Insight.Model))
	}

	if c.Insight.MaxTokens > 0 {
		opts = append(opts, insight.WithMaxTokens(c.Insight.MaxTokens))
	}

	if c.Insight.TimeoutSeconds > 0 {
		opts = append(
			opts,
			insight.WithTimeout(time.Duration(c.Insight.TimeoutSeconds)*time.Second),
		)
	}

	return opts
}

// CurrencyTable returns the default payout currencies, with the configured overrides
func (c *Config) CurrencyTable() currencies.Table {
	return currencies.Default().With(c.Currencies)
}

// Premiums returns the default card premiums, with the configured overrides
func (c *Config) Premiums() map[string]analysis.CardPremium {
	premiums := analysis.DefaultCardPremiums()

	for provider, premium := range c.CardPremiums {
		premiums[provider] = analysis.CardPremium{
			DebitPct:  decimal.NewFromFloat(premium.DebitPct),
			CreditPct: decimal.NewFromFloat(premium.CreditPct),
		}
	}

	return premiums
}
