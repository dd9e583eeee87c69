package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sig-0/remitrates/analysis"
	"github.com/sig-0/remitrates/cache"
	"github.com/sig-0/remitrates/insight"
	"github.com/sig-0/remitrates/provider/currencies"
	"github.com/sig-0/remitrates/storage"
	"github.com/sig-0/remitrates/storage/types"
)

const (
	// DefaultWindow is the number of freshest quotes analyzed per destination
	DefaultWindow = 100

	opAnalyze         = "analyze"
	opAlternativeRate = "alternative-rate"
)

var (
	errNoAlternativeSource = errors.New("no alternative rate source configured")
	errUnknownCurrency     = errors.New("no payout currency for destination")
)

// AlternativeRateSource prices the alternative (stablecoin) channel
type AlternativeRateSource interface {
	// Rate returns how many units of the fiat one unit of the channel buys
	Rate(ctx context.Context, fiat string) (decimal.Decimal, error)
}

// StorageError is a failure of the underlying quote store
type StorageError struct {
	Err error
	Op  string
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("unable to %s: %s", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Engine serves the competitive analysis of stored quotes.
// Snapshots and alternative rates are cached per destination
type Engine struct {
	store       storage.Storage
	cache       *cache.Cache
	logger      *slog.Logger
	alternative AlternativeRateSource
	summarizer  insight.Summarizer
	usage       *insight.Metered

	currencies currencies.Table
	premiums   map[string]analysis.CardPremium

	window int
	ttl    time.Duration
}

// New creates a new analysis engine over the store
func New(store storage.Storage, opts ...Option) *Engine {
	e := &Engine{
		store:      store,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		currencies: currencies.Default(),
		premiums:   analysis.DefaultCardPremiums(),
		window:     DefaultWindow,
		ttl:        cache.DefaultTTL,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.cache == nil {
		e.cache = cache.New(cache.WithLogger(e.logger))
	}

	if e.summarizer != nil {
		e.usage = insight.NewMetered(e.summarizer)
		e.summarizer = e.usage
	}

	return e
}

// InsightUsage returns the narrative usage tally, empty without a summarizer
func (e *Engine) InsightUsage() insight.Usage {
	if e.usage == nil {
		return insight.Usage{}
	}

	return e.usage.Usage()
}

// Analyze returns the competitive snapshot of the destination,
// computed over its freshest quotes.
// The store read is shared by concurrent callers, so it outlives the caller's cancellation
func (e *Engine) Analyze(ctx context.Context, destination string) (*analysis.Snapshot, error) {
	destination = types.NormalizeCode(destination)
	ctx = context.WithoutCancel(ctx)

	return cache.GetOrCompute(
		e.cache,
		cache.Key(opAnalyze, destination),
		e.ttl,
		func() (*analysis.Snapshot, error) {
			quotes, err := e.store.Quotes(ctx, &types.QuoteQuery{
				Destination: destination,
				Limit:       e.window,
			})
			if err != nil {
				return nil, &StorageError{Op: "fetch quotes", Err: err}
			}

			snapshot, err := analysis.Analyze(destination, quotes)
			if err != nil {
				return nil, err
			}

			e.logger.Debug(
				"computed snapshot",
				"destination", destination,
				"data_points", snapshot.DataPoints,
				"most_competitive", snapshot.MostCompetitive.Provider,
			)

			return snapshot, nil
		},
	)
}

// AlternativeRate returns the alternative channel rate for the destination
func (e *Engine) AlternativeRate(ctx context.Context, destination string) (decimal.Decimal, error) {
	destination = types.NormalizeCode(destination)
	ctx = context.WithoutCancel(ctx)

	return cache.GetOrCompute(
		e.cache,
		cache.Key(opAlternativeRate, destination),
		e.ttl,
		func() (decimal.Decimal, error) {
			if e.alternative == nil {
				return decimal.Zero, &analysis.MissingRateError{
					Destination: destination,
					Err:         errNoAlternativeSource,
				}
			}

			fiat, ok := e.currencies.Currency(destination)
			if !ok {
				return decimal.Zero, &analysis.MissingRateError{
					Destination: destination,
					Err:         fmt.Errorf("%w: %s", errUnknownCurrency, destination),
				}
			}

			rate, err := e.alternative.Rate(ctx, fiat)
			if err != nil {
				return decimal.Zero, &analysis.MissingRateError{
					Destination: destination,
					Err:         err,
				}
			}

			return rate, nil
		},
	)
}

// Compare contrasts the most competitive provider of the destination
// with the alternative channel, for the given USD amount
func (e *Engine) Compare(
	ctx context.Context,
	destination string,
	amount decimal.Decimal,
) (*analysis.Comparison, error) {
	if !amount.IsPositive() {
		return nil, &types.ValidationError{Field: "amount", Reason: "must be positive"}
	}

	destination = types.NormalizeCode(destination)

	snapshot, err := e.Analyze(ctx, destination)
	if err != nil {
		return nil, err
	}

	rate, err := e.AlternativeRate(ctx, destination)
	if err != nil {
		e.logger.Warn(
			"alternative rate unavailable",
			"destination", destination,
			"err", err,
		)

		return nil, err
	}

	return analysis.Compare(destination, amount, snapshot.StatsByProvider, &rate)
}

// CardPremiums estimates card funding costs on the destination, for the given USD amount
func (e *Engine) CardPremiums(
	ctx context.Context,
	destination string,
	amount decimal.Decimal,
) (*analysis.CardReport, error) {
	if !amount.IsPositive() {
		return nil, &types.ValidationError{Field: "amount", Reason: "must be positive"}
	}

	snapshot, err := e.Analyze(ctx, destination)
	if err != nil {
		return nil, err
	}

	return analysis.CardPremiums(snapshot, amount, e.premiums), nil
}
