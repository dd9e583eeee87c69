package clock

import (
	"sync"
	"time"
)

// Clock provides time to the engine.
// Using an interface enables deterministic tests via a controllable implementation
type Clock interface {
	Now() time.Time
}

// System returns the current wall-clock time
type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }

// Manual is a clock that only moves when told to
type Manual struct {
	now time.Time
	mu  sync.Mutex
}

// NewManual creates a manual clock set to the given time
func NewManual(now time.Time) *Manual {
	return &Manual{
		now: now,
	}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.now
}

// Advance moves the clock forward by d
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.now = m.now.Add(d)
}
