package engine

import (
	"log/slog"
	"time"

	"github.com/sig-0/remitrates/analysis"
	"github.com/sig-0/remitrates/cache"
	"github.com/sig-0/remitrates/insight"
	"github.com/sig-0/remitrates/provider/currencies"
)

type Option func(e *Engine)

// WithLogger specifies the logger for the engine
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithCache specifies the result cache shared by the engine operations
func WithCache(c *cache.Cache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithCacheTTL specifies how long computed results are served from the cache
func WithCacheTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.ttl = ttl
	}
}

// WithWindow specifies how many of the freshest quotes are analyzed
func WithWindow(window int) Option {
	return func(e *Engine) {
		e.window = window
	}
}

// WithAlternativeRateSource specifies the alternative channel pricing
func WithAlternativeRateSource(s AlternativeRateSource) Option {
	return func(e *Engine) {
		e.alternative = s
	}
}

// WithCurrencies specifies the destination payout currencies
func WithCurrencies(t currencies.Table) Option {
	return func(e *Engine) {
		e.currencies = t
	}
}

// WithSummarizer specifies the narrative collaborator
func WithSummarizer(s insight.Summarizer) Option {
	return func(e *Engine) {
		e.summarizer = s
	}
}

// WithCardPremiums specifies the per-provider card funding premiums
func WithCardPremiums(premiums map[string]analysis.CardPremium) Option {
	return func(e *Engine) {
		e.premiums = premiums
	}
}
