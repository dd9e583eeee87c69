package cache

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sig-0/remitrates/clock"
)

// DefaultTTL is the default freshness window for cached results
const DefaultTTL = 5 * time.Minute

// entry is a single computed result
type entry struct {
	computedAt time.Time
	value      any
}

// Cache is a time-bounded memoization of computed results.
//
// Entries are never evicted proactively, and are only replaced once
// they expire and get recomputed. Failed computations are never stored.
// Concurrent misses for the same key share a single computation, unless
// deduplication is disabled, in which case each caller recomputes and
// the last one to finish overwrites the entry
type Cache struct {
	clock  clock.Clock
	logger *slog.Logger

	entries map[string]entry
	group   singleflight.Group
	dedup   bool

	mu sync.RWMutex
}

// New creates a new result cache
func New(opts ...Option) *Cache {
	c := &Cache{
		clock:   clock.System{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		entries: make(map[string]entry),
		dedup:   true,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Key composes the cache key for an operation and its destination argument
func Key(operation, destination string) string {
	return operation + ":" + destination
}

// GetOrCompute returns the cached value for the key, if it was computed
// less than ttl ago. Otherwise, fn is invoked synchronously and its result
// is stored and returned.
//
// A shared computation runs once on behalf of every waiter, so fn should
// not capture a context that a single caller can cancel
func GetOrCompute[T any](
	c *Cache,
	key string,
	ttl time.Duration,
	fn func() (T, error),
) (T, error) {
	if v, ok := c.lookup(key, ttl); ok {
		return cast[T](key, v)
	}

	compute := func() (any, error) {
		// Another flight may have filled the entry meanwhile
		if v, ok := c.lookup(key, ttl); ok {
			return v, nil
		}

		result, err := fn()
		if err != nil {
			return nil, err
		}

		c.store(key, result)

		return result, nil
	}

	var (
		v   any
		err error
	)

	if c.dedup {
		v, err, _ = c.group.Do(key, compute)
	} else {
		v, err = compute()
	}

	if err != nil {
		var zero T

		return zero, err
	}

	return cast[T](key, v)
}

// Invalidate drops the entry for the key, if any
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// lookup returns the stored value for the key, if it is still fresh
func (c *Cache) lookup(key string, ttl time.Duration) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if c.clock.Now().Sub(e.computedAt) >= ttl {
		c.logger.Debug("cache entry expired", "key", key)

		return nil, false
	}

	return e.value, true
}

// store replaces the entry for the key
func (c *Cache) store(key string, value any) {
	c.mu.Lock()
	c.entries[key] = entry{
		computedAt: c.clock.Now(),
		value:      value,
	}
	c.mu.Unlock()

	c.logger.Debug("cache entry stored", "key", key)
}

func cast[T any](key string, v any) (T, error) {
	typed, ok := v.(T)
	if !ok {
		var zero T

		return zero, fmt.Errorf("cache entry %q holds %T", key, v)
	}

	return typed, nil
}
