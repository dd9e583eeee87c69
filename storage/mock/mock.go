package mock

import (
	"context"

	"github.com/sig-0/remitrates/storage/types"
)

type (
	SaveQuoteDelegate        func(context.Context, *types.Quote) (uint64, error)
	QuotesDelegate           func(context.Context, *types.QuoteQuery) ([]*types.Quote, error)
	ListProvidersDelegate    func(context.Context) ([]string, error)
	ListDestinationsDelegate func(context.Context) ([]string, error)
)

type Storage struct {
	SaveQuoteFn        SaveQuoteDelegate
	QuotesFn           QuotesDelegate
	ListProvidersFn    ListProvidersDelegate
	ListDestinationsFn ListDestinationsDelegate
}

func (m *Storage) SaveQuote(ctx context.Context, quote *types.Quote) (uint64, error) {
	if m.SaveQuoteFn != nil {
		return m.SaveQuoteFn(ctx, quote)
	}

	return 0, nil
}

func (m *Storage) Quotes(ctx context.Context, query *types.QuoteQuery) ([]*types.Quote, error) {
	if m.QuotesFn != nil {
		return m.QuotesFn(ctx, query)
	}

	return nil, nil
}

func (m *Storage) ListProviders(ctx context.Context) ([]string, error) {
	if m.ListProvidersFn != nil {
		return m.ListProvidersFn(ctx)
	}

	return nil, nil
}

func (m *Storage) ListDestinations(ctx context.Context) ([]string, error) {
	if m.ListDestinationsFn != nil {
		return m.ListDestinationsFn(ctx)
	}

	return nil, nil
}
