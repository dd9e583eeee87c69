package remit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sig-0/remitrates/storage/types"
)

// DefaultAmounts are the USD send amounts quoted on every corridor
var DefaultAmounts = []decimal.Decimal{
	decimal.NewFromInt(100),
	decimal.NewFromInt(500),
	decimal.NewFromInt(1000),
}

// CorridorProvider quotes an estimator over a fixed set
// of corridors and amounts, on every fetch
type CorridorProvider struct {
	estimator Estimator
	logger    *slog.Logger

	corridors []types.Corridor
	amounts   []decimal.Decimal
	interval  time.Duration
}

// NewCorridorProvider creates a new corridor provider for the estimator
func NewCorridorProvider(
	estimator Estimator,
	corridors []types.Corridor,
	amounts []decimal.Decimal,
	interval time.Duration,
	opts ...CorridorOption,
) *CorridorProvider {
	p := &CorridorProvider{
		estimator: estimator,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		corridors: corridors,
		amounts:   amounts,
		interval:  interval,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *CorridorProvider) Name() string {
	return p.estimator.Name()
}

func (p *CorridorProvider) Interval() time.Duration {
	return p.interval
}

// Fetch quotes every corridor and amount.
// Corridors the estimator does not serve are skipped
func (p *CorridorProvider) Fetch(ctx context.Context) ([]*types.Quote, error) {
	quotes := make([]*types.Quote, 0, len(p.corridors)*len(p.amounts))

	for _, corridor := range p.corridors {
		for _, amount := range p.amounts {
			q, err := p.estimator.Quote(ctx, corridor, amount)
			if errors.Is(err, ErrUnavailable) {
				p.logger.Debug(
					"corridor unavailable",
					"provider", p.estimator.Name(),
					"corridor", corridor.String(),
					"err", err,
				)

				break
			}

			if err != nil {
				return nil, fmt.Errorf("unable to quote %s: %w", corridor, err)
			}

			quotes = append(quotes, q)
		}
	}

	return quotes, nil
}
