package cache

import (
	"log/slog"

	"github.com/sig-0/remitrates/clock"
)

type Option func(c *Cache)

// WithLogger specifies the logger for the cache
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = l
	}
}

// WithClock specifies the clock used to timestamp and expire entries
func WithClock(cl clock.Clock) Option {
	return func(c *Cache) {
		c.clock = cl
	}
}

// WithoutDeduplication disables per-key single-flight, so every
// concurrent miss runs its own computation
func WithoutDeduplication() Option {
	return func(c *Cache) {
		c.dedup = false
	}
}
