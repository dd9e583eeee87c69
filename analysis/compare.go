package analysis

import (
	"github.com/shopspring/decimal"
)

const (
	WinnerTraditional = "traditional"
	WinnerAlternative = "alternative"
)

var hundred = decimal.NewFromInt(100)

// TraditionalOption is the best provider's offer for the amount
type TraditionalOption struct {
	BestProvider      string          `json:"best_provider"`
	ExchangeRate      decimal.Decimal `json:"exchange_rate"`
	FeeUSD            decimal.Decimal `json:"fee_usd"`
	RecipientReceives decimal.Decimal `json:"recipient_receives"`
}

// AlternativeOption is the fee-less alternative channel offer for the amount
type AlternativeOption struct {
	Rate              decimal.Decimal `json:"rate"`
	FeeUSD            decimal.Decimal `json:"fee_usd"`
	RecipientReceives decimal.Decimal `json:"recipient_receives"`
}

// Difference is the alternative payout minus the traditional payout
type Difference struct {
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
}

// Comparison is the head-to-head of the best traditional provider
// and the alternative channel for a given send amount
type Comparison struct {
	Destination string            `json:"destination"`
	Winner      string            `json:"winner"`
	AmountUSD   decimal.Decimal   `json:"amount_usd"`
	Traditional TraditionalOption `json:"traditional"`
	Alternative AlternativeOption `json:"alternative"`
	Difference  Difference        `json:"difference"`
}

// Compare contrasts what a recipient gets from the most competitive provider
// with what they get from the alternative channel at the given rate.
// A nil alternative rate fails the whole comparison
func Compare(
	destination string,
	amount decimal.Decimal,
	stats map[string]*ProviderStats,
	alternativeRate *decimal.Decimal,
) (*Comparison, error) {
	best, ok := Best(stats)
	if !ok {
		return nil, &NotFoundError{Destination: destination}
	}

	if alternativeRate == nil {
		return nil, &MissingRateError{Destination: destination}
	}

	var (
		bestStats   = stats[best]
		traditional = decimal.Zero
	)

	if bestStats.AvgRate.IsPositive() {
		traditional = amount.Sub(bestStats.AvgFee).Mul(bestStats.AvgRate)
	}

	var (
		alternative = amount.Mul(*alternativeRate)
		diff        = alternative.Sub(traditional)
		pct         = decimal.Zero
		winner      = WinnerTraditional
	)

	if !traditional.IsZero() {
		pct = diff.Div(traditional).Mul(hundred)
	}

	if diff.IsPositive() {
		winner = WinnerAlternative
	}

	return &Comparison{
		Destination: destination,
		AmountUSD:   amount,
		Traditional: TraditionalOption{
			BestProvider:      best,
			ExchangeRate:      bestStats.AvgRate,
			FeeUSD:            bestStats.AvgFee,
			RecipientReceives: traditional,
		},
		Alternative: AlternativeOption{
			Rate:              *alternativeRate,
			FeeUSD:            decimal.Zero,
			RecipientReceives: alternative,
		},
		Winner: winner,
		Difference: Difference{
			Amount:     diff,
			Percentage: pct,
		},
	}, nil
}
