package serve

import (
	"log/slog"
	"os"

	"github.com/sig-0/remitrates/cmd/env"
	"github.com/sig-0/remitrates/engine"
	"github.com/sig-0/remitrates/insight"
	"github.com/sig-0/remitrates/provider/p2p"
	"github.com/sig-0/remitrates/server/config"
	"github.com/sig-0/remitrates/storage"
)

// newEngine creates the analysis engine over the store.
// The alternative channel is priced on Binance P2P, and narratives
// are enabled only when an Anthropic API key is set
func newEngine(store storage.Storage, cfg *config.Config, logger *slog.Logger) *engine.Engine {
	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithWindow(cfg.Window()),
		engine.WithCacheTTL(cfg.CacheTTL()),
		engine.WithCurrencies(cfg.CurrencyTable()),
		engine.WithCardPremiums(cfg.Premiums()),
		engine.WithAlternativeRateSource(p2p.NewBinanceProvider(providerTimeout)),
	}

	key := os.Getenv(env.Prefix + env.AnthropicKeySuffix)
	if key == "" {
		logger.Warn(
			"no Anthropic API key set, insight narratives are disabled",
			"env", env.Prefix+env.AnthropicKeySuffix,
		)

		return engine.New(store, opts...)
	}

	summarizer := insight.NewAnthropicSummarizer(
		key,
		append(cfg.InsightOptions(), insight.WithLogger(logger))...,
	)

	return engine.New(store, append(opts, engine.WithSummarizer(summarizer))...)
}
