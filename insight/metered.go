package insight

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// costPerMillionTokens is the flat USD rate used to estimate spend
var costPerMillionTokens = decimal.NewFromInt(3)

// Usage is the running tally of a metered summarizer
type Usage struct {
	EstimatedCostUSD decimal.Decimal `json:"estimated_cost_usd"`
	Queries          int             `json:"total_queries"`
	Failures         int             `json:"failed_queries"`
	InputTokens      int             `json:"input_tokens"`
	OutputTokens     int             `json:"output_tokens"`
	TotalTokens      int             `json:"total_tokens"`
}

// Metered counts the queries and tokens that pass through a summarizer
type Metered struct {
	next Summarizer

	mux   sync.Mutex
	usage Usage
}

// NewMetered wraps the summarizer with usage accounting
func NewMetered(next Summarizer) *Metered {
	return &Metered{
		next: next,
	}
}

// Summarize forwards the request, recording its outcome
func (m *Metered) Summarize(ctx context.Context, req *Request) (*Response, error) {
	resp, err := m.next.Summarize(ctx, req)

	m.mux.Lock()
	defer m.mux.Unlock()

	m.usage.Queries++

	if err != nil {
		m.usage.Failures++

		return nil, err
	}

	if resp != nil {
		m.usage.InputTokens += resp.InputTokens
		m.usage.OutputTokens += resp.OutputTokens
	}

	return resp, nil
}

// Usage returns a copy of the current tally
func (m *Metered) Usage() Usage {
	m.mux.Lock()
	defer m.mux.Unlock()

	usage := m.usage
	usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	usage.EstimatedCostUSD = decimal.NewFromInt(int64(usage.TotalTokens)).
		Div(decimal.NewFromInt(1_000_000)).
		Mul(costPerMillionTokens)

	return usage
}
