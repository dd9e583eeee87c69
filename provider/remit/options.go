package remit

import (
	"log/slog"

	"github.com/sig-0/remitrates/clock"
	"github.com/sig-0/remitrates/provider/currencies"
)

type Option func(e *estimator)

// WithClock specifies the clock used to timestamp quotes
func WithClock(c clock.Clock) Option {
	return func(e *estimator) {
		e.clock = c
	}
}

// WithCurrencies specifies the destination payout currencies
func WithCurrencies(t currencies.Table) Option {
	return func(e *estimator) {
		e.currencies = t
	}
}

type CorridorOption func(p *CorridorProvider)

// WithLogger specifies the logger for the corridor provider
func WithLogger(l *slog.Logger) CorridorOption {
	return func(p *CorridorProvider) {
		p.logger = l
	}
}
