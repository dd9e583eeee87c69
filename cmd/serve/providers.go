package serve

import (
	"log/slog"
	"os"
	"time"

	"github.com/sig-0/remitrates/cache"
	"github.com/sig-0/remitrates/cmd/env"
	"github.com/sig-0/remitrates/ingest"
	"github.com/sig-0/remitrates/provider/currencies"
	"github.com/sig-0/remitrates/provider/midmarket"
	"github.com/sig-0/remitrates/provider/remit"
	"github.com/sig-0/remitrates/server/config"
	"github.com/sig-0/remitrates/storage/types"
)

const (
	// providerTimeout bounds every outbound provider request
	providerTimeout = 30 * time.Second

	// quoteInterval is how often every provider is quoted
	quoteInterval = time.Hour

	// midmarketTTL keeps a mid-market rate for a whole quoting round
	midmarketTTL = 15 * time.Minute

	originCountry = "US"
)

// defaultProviders returns the default ingestion providers,
// quoting every configured corridor out of the US
func defaultProviders(cfg *config.Config, logger *slog.Logger) []ingest.Provider {
	var (
		table  = cfg.CurrencyTable()
		source = midmarketSource(logger)
		opts   = []remit.Option{remit.WithCurrencies(table)}
	)

	corridors := make([]types.Corridor, 0, len(table))
	for _, country := range table.Countries() {
		corridors = append(corridors, types.Corridor{
			Origin:      originCountry,
			Destination: country,
		})
	}

	estimators := []remit.Estimator{
		remit.NewWise(source, opts...),
		remit.NewWesternUnion(source, opts...),
		remit.NewIntermex(source, opts...),
		remit.NewRemitly(source, opts...),
		remit.NewXoom(opts...),
	}

	providers := make([]ingest.Provider, 0, len(estimators))
	for _, estimator := range estimators {
		providers = append(providers, remit.NewCorridorProvider(
			estimator,
			corridors,
			remit.DefaultAmounts,
			quoteInterval,
			remit.WithLogger(logger),
		))
	}

	return providers
}

// midmarketSource returns the mid-market rates the estimators price from.
// VES follows the official BCV rate, other currencies use ExchangeRate-API if a key is set
func midmarketSource(logger *slog.Logger) midmarket.Source {
	routed := midmarket.Routed{
		Targets: map[string]midmarket.Source{
			currencies.VES: midmarket.NewBCV(midmarket.BCVURL, providerTimeout),
		},
	}

	if key := os.Getenv(env.Prefix + env.ExchangeRateKeySuffix); key != "" {
		routed.Fallback = midmarket.NewExchangeRateAPI(key, providerTimeout)
	} else {
		logger.Warn(
			"no ExchangeRate-API key set, only VES corridors are estimated from mid-market rates",
			"env", env.Prefix+env.ExchangeRateKeySuffix,
		)
	}

	return midmarket.NewCached(
		routed,
		cache.New(cache.WithLogger(logger)),
		midmarketTTL,
	)
}
