package analysis

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/sig-0/remitrates/storage/types"
)

// ProviderStats are the aggregate figures of a single provider
type ProviderStats struct {
	AvgRate    decimal.Decimal `json:"avg_rate"`
	MinRate    decimal.Decimal `json:"min_rate"`
	MaxRate    decimal.Decimal `json:"max_rate"`
	AvgFee     decimal.Decimal `json:"avg_fee"`
	TotalCost  decimal.Decimal `json:"total_cost"`
	SampleSize int             `json:"sample_size"`
}

// Leader is the most competitive provider of a snapshot
type Leader struct {
	Provider  string          `json:"provider"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// Snapshot is the competitive picture of a single destination
type Snapshot struct {
	StatsByProvider   map[string]*ProviderStats `json:"stats_by_provider"`
	Destination       string                    `json:"destination"`
	ProvidersAnalyzed []string                  `json:"providers_analyzed"`
	MostCompetitive   Leader                    `json:"most_competitive"`
	DataPoints        int                       `json:"data_points"`
}

// Analyze groups the given quotes by provider and ranks the providers
// by their total cost. The quotes are expected to belong to the destination
func Analyze(destination string, quotes []*types.Quote) (*Snapshot, error) {
	if len(quotes) == 0 {
		return nil, &NotFoundError{Destination: destination}
	}

	grouped := make(map[string][]*types.Quote)

	for _, q := range quotes {
		grouped[q.Provider] = append(grouped[q.Provider], q)
	}

	stats := make(map[string]*ProviderStats, len(grouped))

	for provider, group := range grouped {
		stats[provider] = aggregate(group)
	}

	ranked := Rank(stats)
	best := ranked[0]

	return &Snapshot{
		Destination:       destination,
		ProvidersAnalyzed: ranked,
		StatsByProvider:   stats,
		MostCompetitive: Leader{
			Provider:  best,
			TotalCost: stats[best].TotalCost,
		},
		DataPoints: len(quotes),
	}, nil
}

// Subset narrows the snapshot down to the given providers, re-ranking them.
// Unknown providers are skipped; the snapshot itself is left untouched
func (s *Snapshot) Subset(providers []string) (*Snapshot, error) {
	var (
		stats      = make(map[string]*ProviderStats, len(providers))
		dataPoints int
	)

	for _, provider := range providers {
		ps, ok := s.StatsByProvider[provider]
		if !ok {
			continue
		}

		if _, seen := stats[provider]; !seen {
			dataPoints += ps.SampleSize
		}

		stats[provider] = ps
	}

	if len(stats) == 0 {
		return nil, &NotFoundError{
			Destination: s.Destination,
			Providers:   providers,
		}
	}

	ranked := Rank(stats)
	best := ranked[0]

	return &Snapshot{
		Destination:       s.Destination,
		ProvidersAnalyzed: ranked,
		StatsByProvider:   stats,
		MostCompetitive: Leader{
			Provider:  best,
			TotalCost: stats[best].TotalCost,
		},
		DataPoints: dataPoints,
	}, nil
}

// Rank orders the providers from the most to the least competitive.
// Lower total cost wins, then the larger sample, then the provider name
func Rank(stats map[string]*ProviderStats) []string {
	providers := make([]string, 0, len(stats))
	for provider := range stats {
		providers = append(providers, provider)
	}

	sort.Slice(providers, func(i, j int) bool {
		a, b := stats[providers[i]], stats[providers[j]]

		if c := a.TotalCost.Cmp(b.TotalCost); c != 0 {
			return c < 0
		}

		if a.SampleSize != b.SampleSize {
			return a.SampleSize > b.SampleSize
		}

		return providers[i] < providers[j]
	})

	return providers
}

// Best returns the most competitive provider, if any
func Best(stats map[string]*ProviderStats) (string, bool) {
	ranked := Rank(stats)
	if len(ranked) == 0 {
		return "", false
	}

	return ranked[0], true
}

// aggregate computes the stats of a non-empty group of quotes
func aggregate(group []*types.Quote) *ProviderStats {
	var (
		rateSum = decimal.Zero
		feeSum  = decimal.Zero
		minRate = group[0].ExchangeRate
		maxRate = group[0].ExchangeRate
	)

	for _, q := range group {
		rateSum = rateSum.Add(q.ExchangeRate)
		feeSum = feeSum.Add(q.Fee)

		if q.ExchangeRate.LessThan(minRate) {
			minRate = q.ExchangeRate
		}

		if q.ExchangeRate.GreaterThan(maxRate) {
			maxRate = q.ExchangeRate
		}
	}

	n := decimal.NewFromInt(int64(len(group)))

	avgRate := rateSum.Div(n)
	avgFee := feeSum.Div(n)

	return &ProviderStats{
		AvgRate:    avgRate,
		MinRate:    minRate,
		MaxRate:    maxRate,
		AvgFee:     avgFee,
		TotalCost:  avgRate.Add(avgFee),
		SampleSize: len(group),
	}
}
