package remit

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sig-0/remitrates/clock"
	"github.com/sig-0/remitrates/provider/currencies"
	"github.com/sig-0/remitrates/provider/midmarket"
	"github.com/sig-0/remitrates/storage/types"
)

// ErrUnavailable is returned when an estimator does not serve a corridor
var ErrUnavailable = errors.New("corridor unavailable")

// originCountry is the only origin the estimators price
const originCountry = "US"

// Estimator produces a provider quote for sending an amount over a corridor
type Estimator interface {
	// Name returns the provider name the quotes are recorded under
	Name() string

	// Quote prices sending the USD amount over the corridor
	Quote(ctx context.Context, corridor types.Corridor, amount decimal.Decimal) (*types.Quote, error)
}

// feeSchedule returns the USD fee charged for sending the amount
type feeSchedule func(amount decimal.Decimal) decimal.Decimal

// rateSource returns the provider rate for a payout currency
type rateSource func(ctx context.Context, destination, currency string) (decimal.Decimal, error)

// delivery describes how and when the recipient gets the funds
type delivery func(amount decimal.Decimal) (estimated, method string)

// estimator is the shared pricing pipeline of every provider:
// a provider rate, a fee schedule and a payout policy
type estimator struct {
	clock      clock.Clock
	currencies currencies.Table

	rate     rateSource
	fees     feeSchedule
	delivery delivery

	name       string
	dataSource string
	note       string
	policy     types.PayoutPolicy
}

func (e *estimator) Name() string {
	return e.name
}

func (e *estimator) Quote(
	ctx context.Context,
	corridor types.Corridor,
	amount decimal.Decimal,
) (*types.Quote, error) {
	origin := types.NormalizeCode(corridor.Origin)
	destination := types.NormalizeCode(corridor.Destination)

	if origin != originCountry {
		return nil, fmt.Errorf("%w: %s does not serve origin %s", ErrUnavailable, e.name, origin)
	}

	currency, ok := e.currencies.Currency(destination)
	if !ok {
		return nil, fmt.Errorf("%w: no payout currency for %s", ErrUnavailable, destination)
	}

	rate, err := e.rate(ctx, destination, currency)
	if err != nil {
		return nil, err
	}

	var (
		fee               = e.fees(amount).Round(2)
		estimated, method = e.delivery(amount)
		recipientReceives = types.Payout(e.policy, amount, fee, rate).Round(2)
	)

	return &types.Quote{
		Timestamp:         e.clock.Now(),
		Provider:          e.name,
		Origin:            origin,
		Destination:       destination,
		SendAmount:        amount,
		Fee:               fee,
		ExchangeRate:      rate,
		TotalCost:         amount.Add(fee),
		RecipientReceives: recipientReceives,
		EstimatedDelivery: estimated,
		DeliveryMethod:    method,
		DataSource:        e.dataSource,
		Note:              e.note,
	}, nil
}

// markedUp prices at the mid-market rate, worsened by the provider markup
func markedUp(source midmarket.Source, factor decimal.Decimal) rateSource {
	return func(ctx context.Context, _, currency string) (decimal.Decimal, error) {
		mid, err := source.Rate(ctx, currencies.USD, currency)
		if err != nil {
			if errors.Is(err, midmarket.ErrUnsupportedPair) {
				return decimal.Zero, fmt.Errorf("%w: %w", ErrUnavailable, err)
			}

			return decimal.Zero, fmt.Errorf("unable to fetch mid-market rate: %w", err)
		}

		return mid.Mul(factor).Round(4), nil
	}
}

// tier is a fee that applies to amounts below a bound
type tier struct {
	below decimal.Decimal
	fee   decimal.Decimal
}

// flatTiers charges the fee of the first tier the amount falls below,
// or the top fee when it exceeds every tier
func flatTiers(top decimal.Decimal, tiers ...tier) feeSchedule {
	return func(amount decimal.Decimal) decimal.Decimal {
		for _, t := range tiers {
			if amount.LessThan(t.below) {
				return t.fee
			}
		}

		return top
	}
}

// fixedDelivery reports the same delivery details for every amount
func fixedDelivery(estimated, method string) delivery {
	return func(decimal.Decimal) (string, string) {
		return estimated, method
	}
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
