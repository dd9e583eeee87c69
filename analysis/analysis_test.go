package analysis

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/remitrates/storage/types"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func quote(provider, fee, rate string) *types.Quote {
	return &types.Quote{
		Provider:     provider,
		Origin:       "US",
		Destination:  "MX",
		SendAmount:   dec("500"),
		Fee:          dec(fee),
		ExchangeRate: dec(rate),
		Timestamp:    time.Date(2026, time.April, 2, 10, 0, 0, 0, time.UTC),
	}
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()

	assert.Truef(t, dec(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	t.Run("no quotes", func(t *testing.T) {
		t.Parallel()

		snapshot, err := Analyze("ZZ", nil)
		require.Nil(t, snapshot)

		var notFound *NotFoundError

		require.True(t, errors.As(err, &notFound))
		assert.Equal(t, "ZZ", notFound.Destination)
	})

	t.Run("cheapest provider wins", func(t *testing.T) {
		t.Parallel()

		snapshot, err := Analyze("MX", []*types.Quote{
			quote("A", "5", "20"),
			quote("B", "10", "20"),
		})
		require.NoError(t, err)

		assert.Equal(t, "MX", snapshot.Destination)
		assert.Equal(t, []string{"A", "B"}, snapshot.ProvidersAnalyzed)
		assert.Equal(t, "A", snapshot.MostCompetitive.Provider)
		assertDecimal(t, "25", snapshot.MostCompetitive.TotalCost)
		assertDecimal(t, "30", snapshot.StatsByProvider["B"].TotalCost)
		assert.Equal(t, 2, snapshot.DataPoints)
	})

	t.Run("group aggregates", func(t *testing.T) {
		t.Parallel()

		snapshot, err := Analyze("MX", []*types.Quote{
			quote("Wise", "4", "17.1"),
			quote("Wise", "6", "17.5"),
			quote("Wise", "5", "17.3"),
			quote("Remitly", "3.99", "16.9"),
		})
		require.NoError(t, err)

		wise := snapshot.StatsByProvider["Wise"]
		require.NotNil(t, wise)

		assertDecimal(t, "17.3", wise.AvgRate)
		assertDecimal(t, "17.1", wise.MinRate)
		assertDecimal(t, "17.5", wise.MaxRate)
		assertDecimal(t, "5", wise.AvgFee)
		assertDecimal(t, "22.3", wise.TotalCost)
		assert.Equal(t, 3, wise.SampleSize)

		for provider, stats := range snapshot.StatsByProvider {
			assert.True(t, stats.MinRate.LessThanOrEqual(stats.AvgRate), provider)
			assert.True(t, stats.AvgRate.LessThanOrEqual(stats.MaxRate), provider)
		}

		assert.Equal(t, 4, snapshot.DataPoints)
	})

	t.Run("single sample is eligible", func(t *testing.T) {
		t.Parallel()

		snapshot, err := Analyze("MX", []*types.Quote{
			quote("Solo", "1", "20"),
			quote("Pair", "5", "20"),
			quote("Pair", "5", "20"),
		})
		require.NoError(t, err)

		assert.Equal(t, "Solo", snapshot.MostCompetitive.Provider)
	})
}

func TestSnapshot_Subset(t *testing.T) {
	t.Parallel()

	full := func(t *testing.T) *Snapshot {
		t.Helper()

		snapshot, err := Analyze("MX", []*types.Quote{
			quote("Wise", "4", "20"),
			quote("Wise", "6", "20"),
			quote("Remitly", "3", "20"),
			quote("Xoom", "9", "20"),
		})
		require.NoError(t, err)

		return snapshot
	}

	t.Run("re-ranks requested providers", func(t *testing.T) {
		t.Parallel()

		snapshot := full(t)

		subset, err := snapshot.Subset([]string{"Xoom", "Wise", "Unknown"})
		require.NoError(t, err)

		assert.Equal(t, "MX", subset.Destination)
		assert.Equal(t, []string{"Wise", "Xoom"}, subset.ProvidersAnalyzed)
		assert.Equal(t, "Wise", subset.MostCompetitive.Provider)
		assertDecimal(t, "25", subset.MostCompetitive.TotalCost)
		assert.Equal(t, 3, subset.DataPoints)
		assert.NotContains(t, subset.StatsByProvider, "Remitly")

		// The source snapshot is shared through the cache
		assert.Equal(t, "Remitly", snapshot.MostCompetitive.Provider)
		assert.Len(t, snapshot.StatsByProvider, 3)
		assert.Equal(t, 4, snapshot.DataPoints)
	})

	t.Run("duplicates are counted once", func(t *testing.T) {
		t.Parallel()

		subset, err := full(t).Subset([]string{"Wise", "Wise"})
		require.NoError(t, err)

		assert.Equal(t, []string{"Wise"}, subset.ProvidersAnalyzed)
		assert.Equal(t, 2, subset.DataPoints)
	})

	t.Run("no matching providers", func(t *testing.T) {
		t.Parallel()

		subset, err := full(t).Subset([]string{"Unknown"})
		require.Nil(t, subset)

		var notFound *NotFoundError

		require.True(t, errors.As(err, &notFound))
		assert.Equal(t, "MX", notFound.Destination)
		assert.Equal(t, []string{"Unknown"}, notFound.Providers)
		assert.Contains(t, err.Error(), "Unknown")
	})
}

func TestRank(t *testing.T) {
	t.Parallel()

	t.Run("larger sample breaks cost ties", func(t *testing.T) {
		t.Parallel()

		ranked := Rank(map[string]*ProviderStats{
			"A": {TotalCost: dec("25"), SampleSize: 1},
			"B": {TotalCost: dec("25"), SampleSize: 4},
			"C": {TotalCost: dec("24.99"), SampleSize: 1},
		})

		assert.Equal(t, []string{"C", "B", "A"}, ranked)
	})

	t.Run("name breaks full ties", func(t *testing.T) {
		t.Parallel()

		stats := map[string]*ProviderStats{
			"Zeta":  {TotalCost: dec("10"), SampleSize: 2},
			"Alpha": {TotalCost: dec("10"), SampleSize: 2},
			"Mid":   {TotalCost: dec("10.0"), SampleSize: 2},
		}

		for range 10 {
			assert.Equal(t, []string{"Alpha", "Mid", "Zeta"}, Rank(stats))
		}
	})

	t.Run("best of empty stats", func(t *testing.T) {
		t.Parallel()

		_, ok := Best(nil)
		assert.False(t, ok)
	})
}

func TestCompare(t *testing.T) {
	t.Parallel()

	stats := map[string]*ProviderStats{
		"A": {AvgRate: dec("20"), AvgFee: dec("10"), TotalCost: dec("30"), SampleSize: 1},
		"B": {AvgRate: dec("19"), AvgFee: dec("12"), TotalCost: dec("31"), SampleSize: 1},
	}

	t.Run("alternative wins", func(t *testing.T) {
		t.Parallel()

		rate := dec("20.5")

		cmp, err := Compare("MX", dec("1000"), stats, &rate)
		require.NoError(t, err)

		assert.Equal(t, "MX", cmp.Destination)
		assert.Equal(t, "A", cmp.Traditional.BestProvider)
		assertDecimal(t, "19800", cmp.Traditional.RecipientReceives)
		assertDecimal(t, "20500", cmp.Alternative.RecipientReceives)
		assertDecimal(t, "0", cmp.Alternative.FeeUSD)
		assertDecimal(t, "700", cmp.Difference.Amount)
		assert.Equal(t, "3.54", cmp.Difference.Percentage.StringFixed(2))
		assert.Equal(t, WinnerAlternative, cmp.Winner)
	})

	t.Run("tie goes to traditional", func(t *testing.T) {
		t.Parallel()

		// 19800 / 1000
		rate := dec("19.8")

		cmp, err := Compare("MX", dec("1000"), stats, &rate)
		require.NoError(t, err)

		assertDecimal(t, "0", cmp.Difference.Amount)
		assert.Equal(t, WinnerTraditional, cmp.Winner)
	})

	t.Run("traditional wins", func(t *testing.T) {
		t.Parallel()

		rate := dec("18")

		cmp, err := Compare("MX", dec("1000"), stats, &rate)
		require.NoError(t, err)

		assertDecimal(t, "-1800", cmp.Difference.Amount)
		assert.Equal(t, WinnerTraditional, cmp.Winner)
	})

	t.Run("missing alternative rate", func(t *testing.T) {
		t.Parallel()

		cmp, err := Compare("MX", dec("1000"), stats, nil)
		require.Nil(t, cmp)

		var missing *MissingRateError

		require.True(t, errors.As(err, &missing))
		assert.Equal(t, "MX", missing.Destination)
	})

	t.Run("no stats", func(t *testing.T) {
		t.Parallel()

		rate := dec("20")

		_, err := Compare("MX", dec("1000"), map[string]*ProviderStats{}, &rate)

		var notFound *NotFoundError

		assert.True(t, errors.As(err, &notFound))
	})

	t.Run("zero traditional payout", func(t *testing.T) {
		t.Parallel()

		rate := dec("20")

		cmp, err := Compare("MX", dec("1000"), map[string]*ProviderStats{
			"Broken": {AvgRate: dec("0"), AvgFee: dec("0"), TotalCost: dec("0"), SampleSize: 1},
		}, &rate)
		require.NoError(t, err)

		assertDecimal(t, "0", cmp.Traditional.RecipientReceives)
		assertDecimal(t, "0", cmp.Difference.Percentage)
		assert.Equal(t, WinnerAlternative, cmp.Winner)
	})
}

func TestCardPremiums(t *testing.T) {
	t.Parallel()

	snapshot, err := Analyze("MX", []*types.Quote{
		quote("Wise", "4", "17.2"),
		quote("Unknown", "2", "17.0"),
		quote("Free", "0", "17.0"),
	})
	require.NoError(t, err)

	report := CardPremiums(snapshot, dec("500"), map[string]CardPremium{
		"Wise": {DebitPct: dec("1"), CreditPct: dec("2.5")},
		"Free": {DebitPct: dec("1"), CreditPct: dec("2")},
	})

	assert.Equal(t, "MX", report.Destination)
	assert.Equal(t, []string{"Unknown"}, report.Unpriced)
	require.Len(t, report.Providers, 2)

	byProvider := make(map[string]ProviderCardCosts)
	for _, p := range report.Providers {
		byProvider[p.Provider] = p
	}

	wise := byProvider["Wise"]
	assertDecimal(t, "4", wise.BankTransfer)
	assertDecimal(t, "9", wise.Debit.CostUSD)
	assertDecimal(t, "125", wise.Debit.VsBankPct)
	assertDecimal(t, "16.5", wise.Credit.CostUSD)
	assertDecimal(t, "312.5", wise.Credit.VsBankPct)

	free := byProvider["Free"]
	assertDecimal(t, "5", free.Debit.CostUSD)
	assertDecimal(t, "0", free.Debit.VsBankPct)
}
