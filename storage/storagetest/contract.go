// Package storagetest holds the behavioral contract every quote store
// adapter must satisfy. Adapter packages run it from their own tests
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/remitrates/storage"
	"github.com/sig-0/remitrates/storage/types"
)

// Factory creates a fresh, empty store for a single contract case
type Factory func(t *testing.T) storage.Storage

var baseTime = time.Date(2026, time.February, 1, 10, 0, 0, 0, time.UTC)

// NewQuote returns a valid quote for the given provider and destination
func NewQuote(provider, destination string, fee, rate string, at time.Time) *types.Quote {
	return &types.Quote{
		Provider:          provider,
		Origin:            "US",
		Destination:       destination,
		SendAmount:        decimal.NewFromInt(500),
		Fee:               decimal.RequireFromString(fee),
		ExchangeRate:      decimal.RequireFromString(rate),
		RecipientReceives: decimal.NewFromInt(500).Mul(decimal.RequireFromString(rate)),
		Timestamp:         at,
		DataSource:        "contract",
	}
}

// Run runs the full store contract
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("insert then query latest", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		in := NewQuote("Wise", "MX", "5", "20.0", baseTime)
		in.DeliveryMethod = "Bank transfer"
		in.EstimatedDelivery = "1-2 days"
		in.Note = "note"

		id, err := store.SaveQuote(ctx, in)
		require.NoError(t, err)
		assert.NotZero(t, id)

		out, err := store.Quotes(ctx, &types.QuoteQuery{
			Provider:    "Wise",
			Destination: "MX",
			Limit:       1,
		})
		require.NoError(t, err)
		require.Len(t, out, 1)

		got := out[0]
		assert.Equal(t, id, got.ID)
		assert.Equal(t, "Wise", got.Provider)
		assert.Equal(t, "US", got.Origin)
		assert.Equal(t, "MX", got.Destination)
		assert.True(t, in.SendAmount.Equal(got.SendAmount))
		assert.True(t, in.Fee.Equal(got.Fee))
		assert.True(t, in.ExchangeRate.Equal(got.ExchangeRate))
		assert.True(t, in.RecipientReceives.Equal(got.RecipientReceives))
		assert.True(t, decimal.NewFromInt(505).Equal(got.TotalCost))
		assert.True(t, baseTime.Equal(got.Timestamp))
		assert.Equal(t, "Bank transfer", got.DeliveryMethod)
		assert.Equal(t, "1-2 days", got.EstimatedDelivery)
		assert.Equal(t, "contract", got.DataSource)
		assert.Equal(t, "note", got.Note)
	})

	t.Run("timestamps round trip at microsecond precision", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		at := baseTime.Add(123456789 * time.Nanosecond)

		_, err := store.SaveQuote(ctx, NewQuote("Wise", "MX", "5", "20.0", at))
		require.NoError(t, err)

		out, err := store.Quotes(ctx, &types.QuoteQuery{Limit: 1})
		require.NoError(t, err)
		require.Len(t, out, 1)

		assert.True(t, at.Truncate(time.Microsecond).Equal(out[0].Timestamp))
	})

	t.Run("rejects malformed quotes", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		in := NewQuote("Wise", "MX", "-1", "20.0", baseTime)

		_, err := store.SaveQuote(ctx, in)

		var vErr *types.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "fee", vErr.Field)

		out, err := store.Quotes(ctx, &types.QuoteQuery{})
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("ids are monotonic", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		var last uint64

		for i := 0; i < 5; i++ {
			id, err := store.SaveQuote(ctx, NewQuote("Wise", "MX", "5", "20.0", baseTime))
			require.NoError(t, err)

			assert.Greater(t, id, last)
			last = id
		}
	})

	t.Run("ordered by recency, not insertion", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		// Inserted out of timestamp order
		offsets := []int{3, 1, 4, 0, 2}
		for _, off := range offsets {
			_, err := store.SaveQuote(
				ctx,
				NewQuote("Wise", "MX", fmt.Sprintf("%d", off), "20.0", baseTime.Add(time.Duration(off)*time.Hour)),
			)
			require.NoError(t, err)
		}

		out, err := store.Quotes(ctx, &types.QuoteQuery{})
		require.NoError(t, err)
		require.Len(t, out, len(offsets))

		for i := 1; i < len(out); i++ {
			assert.True(t, out[i-1].Timestamp.After(out[i].Timestamp))
		}

		// The limit truncates after ordering
		limited, err := store.Quotes(ctx, &types.QuoteQuery{Limit: 2})
		require.NoError(t, err)
		require.Len(t, limited, 2)

		assert.True(t, baseTime.Add(4*time.Hour).Equal(limited[0].Timestamp))
		assert.True(t, baseTime.Add(3*time.Hour).Equal(limited[1].Timestamp))
	})

	t.Run("equal timestamps fall back to insertion order", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		first, err := store.SaveQuote(ctx, NewQuote("Wise", "MX", "1", "20.0", baseTime))
		require.NoError(t, err)

		second, err := store.SaveQuote(ctx, NewQuote("Wise", "MX", "2", "20.0", baseTime))
		require.NoError(t, err)

		out, err := store.Quotes(ctx, &types.QuoteQuery{})
		require.NoError(t, err)
		require.Len(t, out, 2)

		assert.Equal(t, second, out[0].ID)
		assert.Equal(t, first, out[1].ID)
	})

	t.Run("filters", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		for _, q := range []*types.Quote{
			NewQuote("Wise", "MX", "5", "20.0", baseTime),
			NewQuote("Wise", "CO", "5", "4000", baseTime),
			NewQuote("Xoom", "MX", "4.99", "20.1", baseTime),
		} {
			_, err := store.SaveQuote(ctx, q)
			require.NoError(t, err)
		}

		byDest, err := store.Quotes(ctx, &types.QuoteQuery{Destination: "mx"})
		require.NoError(t, err)
		assert.Len(t, byDest, 2)

		byProvider, err := store.Quotes(ctx, &types.QuoteQuery{Provider: "Wise"})
		require.NoError(t, err)
		assert.Len(t, byProvider, 2)

		both, err := store.Quotes(ctx, &types.QuoteQuery{Provider: "Xoom", Destination: "MX"})
		require.NoError(t, err)
		require.Len(t, both, 1)
		assert.Equal(t, "Xoom", both[0].Provider)

		large := NewQuote("Wise", "MX", "9", "20.0", baseTime)
		large.SendAmount = decimal.NewFromInt(1000)

		_, err = store.SaveQuote(ctx, large)
		require.NoError(t, err)

		byAmount, err := store.Quotes(ctx, &types.QuoteQuery{
			Provider:    "Wise",
			Destination: "MX",
			SendAmount:  decimal.RequireFromString("1000.00"),
		})
		require.NoError(t, err)
		require.Len(t, byAmount, 1)
		assert.True(t, decimal.NewFromInt(9).Equal(byAmount[0].Fee))

		none, err := store.Quotes(ctx, &types.QuoteQuery{Destination: "BR"})
		require.NoError(t, err)
		assert.Empty(t, none)

		providers, err := store.ListProviders(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Wise", "Xoom"}, providers)

		destinations, err := store.ListDestinations(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"CO", "MX"}, destinations)
	})

	t.Run("stored quotes are immutable", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		in := NewQuote("Wise", "MX", "5", "20.0", baseTime)

		_, err := store.SaveQuote(ctx, in)
		require.NoError(t, err)

		// Mutating the input or a read result leaves the log untouched
		in.Provider = "Changed"

		out, err := store.Quotes(ctx, &types.QuoteQuery{})
		require.NoError(t, err)
		require.Len(t, out, 1)

		out[0].Fee = decimal.NewFromInt(999)

		again, err := store.Quotes(ctx, &types.QuoteQuery{})
		require.NoError(t, err)
		require.Len(t, again, 1)

		assert.Equal(t, "Wise", again[0].Provider)
		assert.True(t, decimal.NewFromInt(5).Equal(again[0].Fee))
	})

	t.Run("concurrent inserts", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		const writers = 8

		var (
			wg  sync.WaitGroup
			ids sync.Map
		)

		wg.Add(writers)

		for i := 0; i < writers; i++ {
			go func() {
				defer wg.Done()

				id, err := store.SaveQuote(ctx, NewQuote("Wise", "MX", "5", "20.0", baseTime))
				if assert.NoError(t, err) {
					ids.Store(id, struct{}{})
				}
			}()
		}

		wg.Wait()

		var count int

		ids.Range(func(_, _ any) bool {
			count++

			return true
		})

		assert.Equal(t, writers, count)

		out, err := store.Quotes(ctx, &types.QuoteQuery{})
		require.NoError(t, err)
		assert.Len(t, out, writers)
	})
}
