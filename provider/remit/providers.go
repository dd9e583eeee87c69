package remit

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sig-0/remitrates/clock"
	"github.com/sig-0/remitrates/provider/currencies"
	"github.com/sig-0/remitrates/provider/midmarket"
	"github.com/sig-0/remitrates/storage/types"
)

const (
	methodBank   = "Bank transfer"
	methodCash   = "Cash pickup"
	methodMixed  = "Bank deposit / Cash pickup"
	deliveryFast = "Minutes"
	deliverySlow = "Hours"
	deliveryDays = "1-2 days"
)

func newEstimator(name string, opts []Option) *estimator {
	e := &estimator{
		clock:      clock.System{},
		currencies: currencies.Default(),
		name:       name,
		policy:     types.PayoutGross,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// NewWise prices transfers at the mid-market rate,
// with a percentage fee that shrinks as the amount grows
func NewWise(source midmarket.Source, opts ...Option) Estimator {
	e := newEstimator("Wise", opts)

	e.rate = markedUp(source, decimal.NewFromInt(1))
	e.fees = wiseFees
	e.delivery = func(amount decimal.Decimal) (string, string) {
		if amount.LessThan(d("5000")) {
			return deliveryDays, methodBank
		}

		return "2-3 days", methodBank
	}
	e.dataSource = "mid-market rate"
	e.note = "Mid-market rate plus Wise tiered fee"

	return e
}

// wiseFees is a percentage of the amount plus a flat fee, per tier
func wiseFees(amount decimal.Decimal) decimal.Decimal {
	switch {
	case amount.LessThanOrEqual(d("100")):
		return amount.Mul(d("0.015")).Add(d("1.50"))
	case amount.LessThanOrEqual(d("1000")):
		return amount.Mul(d("0.01")).Add(d("2"))
	case amount.LessThanOrEqual(d("5000")):
		return amount.Mul(d("0.008")).Add(d("3"))
	default:
		return amount.Mul(d("0.006")).Add(d("5"))
	}
}

// NewWesternUnion prices transfers 3% below the mid-market rate, with flat fee tiers
func NewWesternUnion(source midmarket.Source, opts ...Option) Estimator {
	e := newEstimator("Western Union", opts)

	e.rate = markedUp(source, d("0.97"))
	e.fees = flatTiers(
		d("30"),
		tier{below: d("100"), fee: d("5")},
		tier{below: d("500"), fee: d("8")},
		tier{below: d("1000"), fee: d("12")},
		tier{below: d("5000"), fee: d("20")},
	)
	e.delivery = fixedDelivery(deliveryFast, methodCash)
	e.dataSource = "mid-market rate with Western Union markup"
	e.note = "Mid-market rate with a 3% markup plus flat fee"

	return e
}

// NewIntermex prices transfers 1.5% below the mid-market rate, with flat fee tiers
func NewIntermex(source midmarket.Source, opts ...Option) Estimator {
	e := newEstimator("Intermex", opts)

	e.rate = markedUp(source, d("0.985"))
	e.fees = flatTiers(
		d("14.99"),
		tier{below: d("1000"), fee: d("4.99")},
		tier{below: d("3000"), fee: d("9.99")},
	)
	e.delivery = fixedDelivery(deliveryFast, methodMixed)
	e.dataSource = "mid-market rate with Intermex markup"
	e.note = "Mid-market rate with a 1.5% markup plus flat fee"

	return e
}

// NewRemitly prices transfers 2.5% below the mid-market rate.
// The flat fee is deducted before conversion
func NewRemitly(source midmarket.Source, opts ...Option) Estimator {
	e := newEstimator("Remitly", opts)

	e.rate = markedUp(source, d("0.975"))
	e.fees = flatTiers(d("3.99"))
	e.policy = types.PayoutNetOfFee
	e.delivery = func(amount decimal.Decimal) (string, string) {
		if amount.LessThan(d("1000")) {
			return deliveryFast, methodMixed
		}

		return deliverySlow, methodMixed
	}
	e.dataSource = "mid-market rate with Remitly markup"
	e.note = "Mid-market rate with a 2.5% markup, fee deducted from the amount"

	return e
}

// xoomRates is the published Xoom rate table, per destination
var xoomRates = map[string]decimal.Decimal{
	"MX": d("20.25"),
	"VE": d("36.60"),
	"CO": d("4120"),
	"PE": d("3.76"),
	"BR": d("5.12"),
}

// NewXoom prices transfers from the published Xoom rate table
func NewXoom(opts ...Option) Estimator {
	e := newEstimator("Xoom", opts)

	e.rate = func(_ context.Context, destination, _ string) (decimal.Decimal, error) {
		rate, ok := xoomRates[destination]
		if !ok {
			return decimal.Zero, fmt.Errorf("%w: Xoom does not publish a rate for %s", ErrUnavailable, destination)
		}

		return rate, nil
	}
	e.fees = flatTiers(
		d("14.99"),
		tier{below: d("1000"), fee: d("4.99")},
		tier{below: d("3000"), fee: d("9.99")},
	)
	e.delivery = func(amount decimal.Decimal) (string, string) {
		if amount.LessThan(d("2000")) {
			return deliveryFast, methodMixed
		}

		return deliverySlow, methodMixed
	}
	e.dataSource = "published rate table"
	e.note = "Based on Xoom public pricing"

	return e
}
