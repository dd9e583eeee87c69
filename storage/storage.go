package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/sig-0/remitrates/storage/types"
)

// Storage is an append-only log of provider quotes
type Storage interface {
	// SaveQuote validates and appends the given quote, returning its assigned ID.
	// Malformed quotes are rejected with a *types.ValidationError
	SaveQuote(context.Context, *types.Quote) (uint64, error)

	// Quotes fetches the quotes matching the query, newest first.
	// The limit is applied after ordering
	Quotes(context.Context, *types.QuoteQuery) ([]*types.Quote, error)

	// ListProviders lists all providers present in the log
	ListProviders(context.Context) ([]string, error)

	// ListDestinations lists all destinations present in the log
	ListDestinations(context.Context) ([]string, error)
}

// LatestByProvider returns the freshest quote of every provider matching
// the query (its Provider and Limit are ignored), ordered by provider name.
// Providers without a matching quote are left out
func LatestByProvider(ctx context.Context, s Storage, query *types.QuoteQuery) ([]*types.Quote, error) {
	if query == nil {
		query = &types.QuoteQuery{}
	}

	providers, err := s.ListProviders(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to list providers: %w", err)
	}

	out := make([]*types.Quote, 0, len(providers))

	for _, provider := range providers {
		q := *query
		q.Provider = provider
		q.Limit = 1

		quotes, err := s.Quotes(ctx, &q)
		if err != nil {
			return nil, fmt.Errorf("unable to fetch %s quotes: %w", provider, err)
		}

		if len(quotes) > 0 {
			out = append(out, quotes[0])
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Provider < out[j].Provider
	})

	return out, nil
}
