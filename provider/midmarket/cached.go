package midmarket

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sig-0/remitrates/cache"
)

// Cached memoizes the rates of a source for a fixed period,
// so quoting many amounts on a corridor costs a single lookup
type Cached struct {
	source Source
	cache  *cache.Cache
	ttl    time.Duration
}

// NewCached wraps the source with the given result cache
func NewCached(source Source, c *cache.Cache, ttl time.Duration) *Cached {
	return &Cached{
		source: source,
		cache:  c,
		ttl:    ttl,
	}
}

func (s *Cached) Rate(ctx context.Context, base, target string) (decimal.Decimal, error) {
	return cache.GetOrCompute(
		s.cache,
		cache.Key("midmarket", Pair(base, target)),
		s.ttl,
		func() (decimal.Decimal, error) {
			return s.source.Rate(ctx, base, target)
		},
	)
}
