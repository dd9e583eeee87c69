package ingest

import (
	"context"
	"time"

	"github.com/sig-0/remitrates/storage/types"
)

// Provider is a single source of remittance quotes
type Provider interface {
	// Name returns the human-readable name of the provider
	Name() string

	// Interval returns the interval at which the provider should be called
	Interval() time.Duration

	// Fetch is the provider's main fetch job, yielding quotes
	Fetch(context.Context) ([]*types.Quote, error)
}
