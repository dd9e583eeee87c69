package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PayoutPolicy is the provider convention for deriving what the recipient receives
type PayoutPolicy string

const (
	// PayoutGross converts the full send amount; the fee is charged on top
	PayoutGross PayoutPolicy = "gross"

	// PayoutNetOfFee deducts the fee before conversion
	PayoutNetOfFee PayoutPolicy = "net_of_fee"
)

func (p PayoutPolicy) String() string {
	return string(p)
}

// ParsePayoutPolicy parses a payout policy name
func ParsePayoutPolicy(v string) (PayoutPolicy, error) {
	switch p := PayoutPolicy(v); p {
	case PayoutGross, PayoutNetOfFee:
		return p, nil
	default:
		return "", fmt.Errorf("unknown payout policy %q", v)
	}
}

// Payout derives the recipient amount for the given policy.
// Net-of-fee payouts are clamped at zero
func Payout(
	policy PayoutPolicy,
	sendAmount,
	fee,
	rate decimal.Decimal,
) decimal.Decimal {
	if policy == PayoutNetOfFee {
		net := sendAmount.Sub(fee)
		if net.IsNegative() {
			return decimal.Zero
		}

		return net.Mul(rate)
	}

	return sendAmount.Mul(rate)
}
