package midmarket

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sig-0/remitrates/storage/types"
)

var ErrUnsupportedPair = errors.New("unsupported currency pair")

// Source provides mid-market exchange rates
type Source interface {
	// Rate returns how many units of target one unit of base buys
	Rate(ctx context.Context, base, target string) (decimal.Decimal, error)
}

// Static is a fixed table of rates, keyed by "BASE/TARGET"
type Static map[string]decimal.Decimal

// Pair composes the key of a currency pair
func Pair(base, target string) string {
	return types.NormalizeCode(base) + "/" + types.NormalizeCode(target)
}

func (s Static) Rate(_ context.Context, base, target string) (decimal.Decimal, error) {
	rate, ok := s[Pair(base, target)]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnsupportedPair, Pair(base, target))
	}

	return rate, nil
}

// Routed dispatches lookups by target currency,
// falling back to a default source for the remaining targets
type Routed struct {
	Targets  map[string]Source
	Fallback Source
}

func (r Routed) Rate(ctx context.Context, base, target string) (decimal.Decimal, error) {
	if s, ok := r.Targets[types.NormalizeCode(target)]; ok {
		return s.Rate(ctx, base, target)
	}

	if r.Fallback == nil {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnsupportedPair, Pair(base, target))
	}

	return r.Fallback.Rate(ctx, base, target)
}
