package types

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Corridor is an (origin, destination) pair. It is only a grouping key,
// and is never stored on its own
type Corridor struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

func (c Corridor) String() string {
	return c.Origin + "-" + c.Destination
}

// Quote is a single observed or estimated money-transfer price quote
type Quote struct {
	Timestamp         time.Time       `json:"timestamp"`
	Provider          string          `json:"provider"`
	Origin            string          `json:"origin"`
	Destination       string          `json:"destination"`
	EstimatedDelivery string          `json:"estimated_delivery,omitempty"`
	DeliveryMethod    string          `json:"delivery_method,omitempty"`
	DataSource        string          `json:"data_source,omitempty"`
	Note              string          `json:"note,omitempty"`
	SendAmount        decimal.Decimal `json:"send_amount"`
	Fee               decimal.Decimal `json:"fee"`
	ExchangeRate      decimal.Decimal `json:"exchange_rate"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	RecipientReceives decimal.Decimal `json:"recipient_receives"`
	ID                uint64          `json:"id"`
}

// Corridor returns the quote's corridor
func (q *Quote) Corridor() Corridor {
	return Corridor{
		Origin:      q.Origin,
		Destination: q.Destination,
	}
}

// QuoteQuery filters the quote log. Empty fields match everything,
// and a zero Limit returns all matching quotes
type QuoteQuery struct {
	Provider    string          `json:"provider"`
	Origin      string          `json:"origin"`
	Destination string          `json:"destination"`
	SendAmount  decimal.Decimal `json:"send_amount"`
	Limit       int             `json:"limit"`
}

// Matches returns a flag indicating if the quote passes the query filters
func (q *QuoteQuery) Matches(quote *Quote) bool {
	if q.Provider != "" && quote.Provider != q.Provider {
		return false
	}

	if q.Origin != "" && quote.Origin != NormalizeCode(q.Origin) {
		return false
	}

	if q.Destination != "" && quote.Destination != NormalizeCode(q.Destination) {
		return false
	}

	if !q.SendAmount.IsZero() && !quote.SendAmount.Equal(q.SendAmount) {
		return false
	}

	return true
}

// NormalizeCode normalizes a country / currency code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Newer reports whether a sorts before b in newest-first order.
// Timestamps decide first, with the store-assigned ID as the tiebreaker
func Newer(a, b *Quote) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.After(b.Timestamp)
	}

	return a.ID > b.ID
}

// SortNewestFirst sorts the quotes newest first, and truncates them
// to the limit, if any
func SortNewestFirst(quotes []*Quote, limit int) []*Quote {
	sort.SliceStable(quotes, func(i, j int) bool {
		return Newer(quotes[i], quotes[j])
	})

	if limit > 0 && len(quotes) > limit {
		quotes = quotes[:limit]
	}

	return quotes
}
