package analysis

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CardPremium is the surcharge a provider applies when funding
// a transfer by card instead of a bank transfer, in percent of the amount
type CardPremium struct {
	DebitPct  decimal.Decimal `json:"debit_pct"`
	CreditPct decimal.Decimal `json:"credit_pct"`
}

// DefaultCardPremiums returns the card premiums of the well-known providers
func DefaultCardPremiums() map[string]CardPremium {
	return map[string]CardPremium{
		"Remitly": {
			DebitPct:  decimal.RequireFromString("1.5"),
			CreditPct: decimal.RequireFromString("3"),
		},
		"Wise": {
			DebitPct:  decimal.RequireFromString("1"),
			CreditPct: decimal.RequireFromString("2.5"),
		},
		"Western Union": {
			DebitPct:  decimal.RequireFromString("2"),
			CreditPct: decimal.RequireFromString("3.5"),
		},
		"Intermex": {
			DebitPct:  decimal.RequireFromString("1.5"),
			CreditPct: decimal.RequireFromString("3"),
		},
	}
}

// FundingCost is the cost of a single funding method
type FundingCost struct {
	CostUSD   decimal.Decimal `json:"cost_usd"`
	VsBankPct decimal.Decimal `json:"vs_bank_pct"`
}

// ProviderCardCosts are the funding costs of a provider for the amount
type ProviderCardCosts struct {
	Provider     string          `json:"provider"`
	BankTransfer decimal.Decimal `json:"bank_transfer_usd"`
	Debit        FundingCost     `json:"debit_card"`
	Credit       FundingCost     `json:"credit_card"`
}

// CardReport holds the card funding costs of every priced provider
type CardReport struct {
	Destination string              `json:"destination"`
	AmountUSD   decimal.Decimal     `json:"amount_usd"`
	Providers   []ProviderCardCosts `json:"providers"`
	Unpriced    []string            `json:"unpriced"`
}

// CardPremiums estimates what funding a transfer by debit or credit card costs
// relative to a bank transfer, for every analyzed provider with a known premium.
// Providers without a known premium are reported as unpriced
func CardPremiums(snapshot *Snapshot, amount decimal.Decimal, premiums map[string]CardPremium) *CardReport {
	report := &CardReport{
		Destination: snapshot.Destination,
		AmountUSD:   amount,
		Providers:   make([]ProviderCardCosts, 0, len(snapshot.ProvidersAnalyzed)),
		Unpriced:    make([]string, 0),
	}

	for _, provider := range snapshot.ProvidersAnalyzed {
		premium, ok := premiums[provider]
		if !ok {
			report.Unpriced = append(report.Unpriced, provider)

			continue
		}

		bank := snapshot.StatsByProvider[provider].AvgFee

		report.Providers = append(report.Providers, ProviderCardCosts{
			Provider:     provider,
			BankTransfer: bank,
			Debit:        fundingCost(bank, amount, premium.DebitPct),
			Credit:       fundingCost(bank, amount, premium.CreditPct),
		})
	}

	sort.Strings(report.Unpriced)

	return report
}

func fundingCost(bank, amount, pct decimal.Decimal) FundingCost {
	cost := bank.Add(amount.Mul(pct).Div(hundred))

	vsBank := decimal.Zero
	if !bank.IsZero() {
		vsBank = cost.Sub(bank).Div(bank).Mul(hundred)
	}

	return FundingCost{
		CostUSD:   cost,
		VsBankPct: vsBank,
	}
}
