package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/remitrates/analysis"
	"github.com/sig-0/remitrates/cache"
	"github.com/sig-0/remitrates/clock"
	"github.com/sig-0/remitrates/insight"
	"github.com/sig-0/remitrates/storage/memory"
	"github.com/sig-0/remitrates/storage/mock"
	"github.com/sig-0/remitrates/storage/storagetest"
	"github.com/sig-0/remitrates/storage/types"
)

var start = time.Date(2026, time.May, 10, 8, 0, 0, 0, time.UTC)

type rateDelegate func(context.Context, string) (decimal.Decimal, error)

type mockRateSource struct {
	rateFn rateDelegate
}

func (m *mockRateSource) Rate(ctx context.Context, fiat string) (decimal.Decimal, error) {
	if m.rateFn != nil {
		return m.rateFn(ctx, fiat)
	}

	return decimal.Zero, nil
}

type summarizeDelegate func(context.Context, *insight.Request) (*insight.Response, error)

type mockSummarizer struct {
	summarizeFn summarizeDelegate
}

func (m *mockSummarizer) Summarize(ctx context.Context, req *insight.Request) (*insight.Response, error) {
	if m.summarizeFn != nil {
		return m.summarizeFn(ctx, req)
	}

	return nil, nil
}

func fixedRate(rate string) *mockRateSource {
	return &mockRateSource{
		rateFn: func(context.Context, string) (decimal.Decimal, error) {
			return decimal.RequireFromString(rate), nil
		},
	}
}

// seed stores the quotes, failing the test on error
func seed(t *testing.T, store *memory.Storage, quotes ...*types.Quote) {
	t.Helper()

	for _, q := range quotes {
		_, err := store.SaveQuote(context.Background(), q)
		require.NoError(t, err)
	}
}

func TestEngine_Analyze(t *testing.T) {
	t.Parallel()

	t.Run("unknown destination", func(t *testing.T) {
		t.Parallel()

		e := New(memory.NewStorage())

		_, err := e.Analyze(context.Background(), "ZZ")

		var notFound *analysis.NotFoundError

		require.True(t, errors.As(err, &notFound))
		assert.Equal(t, "ZZ", notFound.Destination)
	})

	t.Run("lowest total cost wins", func(t *testing.T) {
		t.Parallel()

		store := memory.NewStorage()
		seed(
			t,
			store,
			storagetest.NewQuote("A", "MX", "5", "20", start),
			storagetest.NewQuote("B", "MX", "10", "20", start),
		)

		snapshot, err := New(store).Analyze(context.Background(), "mx")
		require.NoError(t, err)

		assert.Equal(t, "MX", snapshot.Destination)
		assert.Equal(t, "A", snapshot.MostCompetitive.Provider)
		assert.Equal(t, "25", snapshot.MostCompetitive.TotalCost.String())
		assert.Equal(t, "30", snapshot.StatsByProvider["B"].TotalCost.String())
	})

	t.Run("only the freshest window is analyzed", func(t *testing.T) {
		t.Parallel()

		store := memory.NewStorage()
		seed(
			t,
			store,
			storagetest.NewQuote("Stale", "MX", "1", "20", start),
			storagetest.NewQuote("Fresh", "MX", "5", "20", start.Add(time.Hour)),
			storagetest.NewQuote("Fresh", "MX", "5", "20", start.Add(2*time.Hour)),
		)

		snapshot, err := New(store, WithWindow(2)).Analyze(context.Background(), "MX")
		require.NoError(t, err)

		assert.Equal(t, []string{"Fresh"}, snapshot.ProvidersAnalyzed)
		assert.Equal(t, 2, snapshot.DataPoints)
	})

	t.Run("storage failure", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("connection reset")

		e := New(&mock.Storage{
			QuotesFn: func(context.Context, *types.QuoteQuery) ([]*types.Quote, error) {
				return nil, boom
			},
		})

		_, err := e.Analyze(context.Background(), "MX")

		var storageErr *StorageError

		require.True(t, errors.As(err, &storageErr))
		assert.ErrorIs(t, err, boom)
	})

	t.Run("cancelled caller does not fail the shared read", func(t *testing.T) {
		t.Parallel()

		store := memory.NewStorage()
		seed(t, store, storagetest.NewQuote("Wise", "MX", "4", "20", start))

		e := New(&mock.Storage{
			QuotesFn: func(ctx context.Context, query *types.QuoteQuery) ([]*types.Quote, error) {
				if err := ctx.Err(); err != nil {
					return nil, err
				}

				return store.Quotes(ctx, query)
			},
		})

		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		snapshot, err := e.Analyze(cancelled, "MX")
		require.NoError(t, err)

		assert.Equal(t, "Wise", snapshot.MostCompetitive.Provider)
	})
}

func TestEngine_Caching(t *testing.T) {
	t.Parallel()

	t.Run("repeat within TTL skips the store", func(t *testing.T) {
		t.Parallel()

		var (
			calls atomic.Int32
			store = memory.NewStorage()
		)

		seed(t, store, storagetest.NewQuote("A", "MX", "5", "20", start))

		counting := &mock.Storage{
			QuotesFn: func(ctx context.Context, query *types.QuoteQuery) ([]*types.Quote, error) {
				calls.Add(1)

				return store.Quotes(ctx, query)
			},
		}

		cl := clock.NewManual(start)
		e := New(
			counting,
			WithCache(cache.New(cache.WithClock(cl))),
			WithCacheTTL(time.Minute),
		)

		first, err := e.Analyze(context.Background(), "MX")
		require.NoError(t, err)

		cl.Advance(30 * time.Second)

		second, err := e.Analyze(context.Background(), "MX")
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("expiry reflects new quotes", func(t *testing.T) {
		t.Parallel()

		var (
			store = memory.NewStorage()
			cl    = clock.NewManual(start)
			e     = New(
				store,
				WithCache(cache.New(cache.WithClock(cl))),
				WithCacheTTL(time.Minute),
			)
		)

		seed(t, store, storagetest.NewQuote("A", "MX", "5", "20", start))

		first, err := e.Analyze(context.Background(), "MX")
		require.NoError(t, err)
		assert.Equal(t, "A", first.MostCompetitive.Provider)

		seed(t, store, storagetest.NewQuote("B", "MX", "1", "20", start.Add(time.Second)))

		// Still served from the cache
		cached, err := e.Analyze(context.Background(), "MX")
		require.NoError(t, err)
		assert.Equal(t, "A", cached.MostCompetitive.Provider)

		cl.Advance(time.Minute)

		fresh, err := e.Analyze(context.Background(), "MX")
		require.NoError(t, err)
		assert.Equal(t, "B", fresh.MostCompetitive.Provider)
	})

	t.Run("not found is not cached", func(t *testing.T) {
		t.Parallel()

		var (
			store = memory.NewStorage()
			e     = New(store, WithCacheTTL(time.Hour))
		)

		_, err := e.Analyze(context.Background(), "MX")
		require.Error(t, err)

		seed(t, store, storagetest.NewQuote("A", "MX", "5", "20", start))

		snapshot, err := e.Analyze(context.Background(), "MX")
		require.NoError(t, err)
		assert.Equal(t, 1, snapshot.DataPoints)
	})
}

func TestEngine_Compare(t *testing.T) {
	t.Parallel()

	t.Run("alternative wins", func(t *testing.T) {
		t.Parallel()

		store := memory.NewStorage()
		seed(t, store, storagetest.NewQuote("A", "MX", "10", "20", start))

		var requested string

		e := New(store, WithAlternativeRateSource(&mockRateSource{
			rateFn: func(_ context.Context, fiat string) (decimal.Decimal, error) {
				requested = fiat

				return decimal.RequireFromString("20.5"), nil
			},
		}))

		cmp, err := e.Compare(context.Background(), "MX", decimal.NewFromInt(1000))
		require.NoError(t, err)

		assert.Equal(t, "MXN", requested)
		assert.Equal(t, "19800", cmp.Traditional.RecipientReceives.String())
		assert.Equal(t, "20500", cmp.Alternative.RecipientReceives.String())
		assert.Equal(t, "700", cmp.Difference.Amount.String())
		assert.Equal(t, analysis.WinnerAlternative, cmp.Winner)
	})

	t.Run("no alternative source", func(t *testing.T) {
		t.Parallel()

		store := memory.NewStorage()
		seed(t, store, storagetest.NewQuote("A", "MX", "10", "20", start))

		_, err := New(store).Compare(context.Background(), "MX", decimal.NewFromInt(1000))

		var missing *analysis.MissingRateError

		require.True(t, errors.As(err, &missing))
		assert.ErrorIs(t, err, errNoAlternativeSource)
	})

	t.Run("unknown payout currency", func(t *testing.T) {
		t.Parallel()

		store := memory.NewStorage()
		seed(t, store, storagetest.NewQuote("A", "XK", "10", "20", start))

		_, err := New(store, WithAlternativeRateSource(fixedRate("1"))).
			Compare(context.Background(), "XK", decimal.NewFromInt(1000))

		var missing *analysis.MissingRateError

		require.True(t, errors.As(err, &missing))
		assert.ErrorIs(t, err, errUnknownCurrency)
	})

	t.Run("source failure is not cached", func(t *testing.T) {
		t.Parallel()

		var (
			store = memory.NewStorage()
			fail  atomic.Bool
		)

		seed(t, store, storagetest.NewQuote("A", "MX", "10", "20", start))
		fail.Store(true)

		e := New(store, WithAlternativeRateSource(&mockRateSource{
			rateFn: func(context.Context, string) (decimal.Decimal, error) {
				if fail.Load() {
					return decimal.Zero, errors.New("binance down")
				}

				return decimal.RequireFromString("19"), nil
			},
		}))

		_, err := e.Compare(context.Background(), "MX", decimal.NewFromInt(1000))

		var missing *analysis.MissingRateError

		require.True(t, errors.As(err, &missing))

		fail.Store(false)

		cmp, err := e.Compare(context.Background(), "MX", decimal.NewFromInt(1000))
		require.NoError(t, err)
		assert.Equal(t, analysis.WinnerTraditional, cmp.Winner)
	})

	t.Run("no quotes", func(t *testing.T) {
		t.Parallel()

		_, err := New(memory.NewStorage(), WithAlternativeRateSource(fixedRate("20"))).
			Compare(context.Background(), "MX", decimal.NewFromInt(1000))

		var notFound *analysis.NotFoundError

		assert.True(t, errors.As(err, &notFound))
	})

	t.Run("invalid amount", func(t *testing.T) {
		t.Parallel()

		_, err := New(memory.NewStorage()).Compare(context.Background(), "MX", decimal.Zero)

		var validationErr *types.ValidationError

		assert.True(t, errors.As(err, &validationErr))
	})
}

func TestEngine_CardPremiums(t *testing.T) {
	t.Parallel()

	store := memory.NewStorage()
	seed(
		t,
		store,
		storagetest.NewQuote("Wise", "MX", "4", "20", start),
		storagetest.NewQuote("Boutique", "MX", "2", "20", start),
	)

	report, err := New(store).CardPremiums(context.Background(), "MX", decimal.NewFromInt(500))
	require.NoError(t, err)

	require.Len(t, report.Providers, 1)
	assert.Equal(t, "Wise", report.Providers[0].Provider)
	assert.Equal(t, "9", report.Providers[0].Debit.CostUSD.String())
	assert.Equal(t, []string{"Boutique"}, report.Unpriced)
}

func TestEngine_Insight(t *testing.T) {
	t.Parallel()

	newStore := func(t *testing.T) *memory.Storage {
		t.Helper()

		store := memory.NewStorage()
		seed(t, store, storagetest.NewQuote("Wise", "MX", "4", "20", start))

		return store
	}

	t.Run("narrated", func(t *testing.T) {
		t.Parallel()

		var question string

		e := New(newStore(t), WithSummarizer(&mockSummarizer{
			summarizeFn: func(_ context.Context, req *insight.Request) (*insight.Response, error) {
				question = req.Question

				assert.Contains(t, string(req.Payload), `"context"`)
				assert.Contains(t, string(req.Payload), "Wise")

				return &insight.Response{
					Text:         "Wise leads",
					Model:        "m",
					InputTokens:  120,
					OutputTokens: 30,
				}, nil
			},
		}))

		out, err := e.Insight(context.Background(), "MX", "", nil)
		require.NoError(t, err)

		assert.Equal(t, "MX", out.Destination)
		assert.Equal(t, "Wise leads", out.StrategicAnalysis)
		assert.Empty(t, out.InsightError)
		assert.Contains(t, question, "US to MX")
		require.NotNil(t, out.NumericalAnalysis)
		assert.Equal(t, 120, out.InputTokens)
		assert.Equal(t, 30, out.OutputTokens)

		usage := e.InsightUsage()

		assert.Equal(t, 1, usage.Queries)
		assert.Equal(t, 150, usage.TotalTokens)
		assert.True(t, usage.EstimatedCostUSD.IsPositive())
	})

	t.Run("narrowed to providers", func(t *testing.T) {
		t.Parallel()

		store := newStore(t)
		seed(
			t,
			store,
			storagetest.NewQuote("Remitly", "MX", "2", "20", start),
			storagetest.NewQuote("Xoom", "MX", "9", "20", start),
		)

		var question string

		e := New(store, WithSummarizer(&mockSummarizer{
			summarizeFn: func(_ context.Context, req *insight.Request) (*insight.Response, error) {
				question = req.Question

				assert.NotContains(t, string(req.Payload), "Remitly")

				return &insight.Response{Text: "Wise beats Xoom"}, nil
			},
		}))

		out, err := e.Insight(context.Background(), "MX", "", []string{"Xoom", "Wise"})
		require.NoError(t, err)

		require.NotNil(t, out.NumericalAnalysis)
		assert.Equal(t, []string{"Wise", "Xoom"}, out.NumericalAnalysis.ProvidersAnalyzed)
		assert.Equal(t, "Wise", out.NumericalAnalysis.MostCompetitive.Provider)
		assert.Contains(t, question, "Compare Wise, Xoom")

		// The cached full snapshot is left intact
		snapshot, err := e.Analyze(context.Background(), "MX")
		require.NoError(t, err)

		assert.Equal(t, "Remitly", snapshot.MostCompetitive.Provider)
		assert.Len(t, snapshot.ProvidersAnalyzed, 3)
	})

	t.Run("no requested provider quoted", func(t *testing.T) {
		t.Parallel()

		_, err := New(newStore(t)).Insight(context.Background(), "MX", "", []string{"Xoom"})

		var notFound *analysis.NotFoundError

		require.True(t, errors.As(err, &notFound))
		assert.Equal(t, []string{"Xoom"}, notFound.Providers)
	})

	t.Run("narrative failure keeps the numbers", func(t *testing.T) {
		t.Parallel()

		e := New(newStore(t), WithSummarizer(&mockSummarizer{
			summarizeFn: func(context.Context, *insight.Request) (*insight.Response, error) {
				return nil, context.DeadlineExceeded
			},
		}))

		out, err := e.Insight(context.Background(), "MX", "who leads?", nil)
		require.NoError(t, err)

		assert.Empty(t, out.StrategicAnalysis)
		assert.NotEmpty(t, out.InsightError)
		require.NotNil(t, out.NumericalAnalysis)
		assert.Equal(t, "Wise", out.NumericalAnalysis.MostCompetitive.Provider)
	})

	t.Run("no summarizer", func(t *testing.T) {
		t.Parallel()

		e := New(newStore(t))

		out, err := e.Insight(context.Background(), "MX", "q", nil)
		require.NoError(t, err)

		assert.NotEmpty(t, out.InsightError)
		assert.Zero(t, e.InsightUsage().Queries)
	})

	t.Run("unknown destination", func(t *testing.T) {
		t.Parallel()

		_, err := New(memory.NewStorage()).Insight(context.Background(), "ZZ", "q", nil)

		var notFound *analysis.NotFoundError

		assert.True(t, errors.As(err, &notFound))
	})
}
