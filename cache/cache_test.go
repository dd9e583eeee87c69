package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/remitrates/clock"
)

func TestCache_GetOrCompute(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	t.Run("hit within TTL", func(t *testing.T) {
		t.Parallel()

		var (
			cl    = clock.NewManual(start)
			c     = New(WithClock(cl))
			calls = 0
		)

		compute := func() (int, error) {
			calls++

			return calls, nil
		}

		first, err := GetOrCompute(c, Key("analyze", "MX"), time.Minute, compute)
		require.NoError(t, err)

		cl.Advance(59 * time.Second)

		second, err := GetOrCompute(c, Key("analyze", "MX"), time.Minute, compute)
		require.NoError(t, err)

		assert.Equal(t, 1, first)
		assert.Equal(t, 1, second)
		assert.Equal(t, 1, calls)
	})

	t.Run("expired entry is recomputed", func(t *testing.T) {
		t.Parallel()

		var (
			cl    = clock.NewManual(start)
			c     = New(WithClock(cl))
			calls = 0
		)

		compute := func() (int, error) {
			calls++

			return calls, nil
		}

		_, err := GetOrCompute(c, "k", time.Minute, compute)
		require.NoError(t, err)

		cl.Advance(time.Minute)

		v, err := GetOrCompute(c, "k", time.Minute, compute)
		require.NoError(t, err)

		assert.Equal(t, 2, v)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("failures are not cached", func(t *testing.T) {
		t.Parallel()

		var (
			c       = New(WithClock(clock.NewManual(start)))
			boom    = errors.New("boom")
			calls   = 0
			failing = true
		)

		compute := func() (string, error) {
			calls++

			if failing {
				return "", boom
			}

			return "ok", nil
		}

		_, err := GetOrCompute(c, "k", time.Minute, compute)
		require.ErrorIs(t, err, boom)
		assert.Equal(t, 0, c.Len())

		failing = false

		v, err := GetOrCompute(c, "k", time.Minute, compute)
		require.NoError(t, err)

		assert.Equal(t, "ok", v)
		assert.Equal(t, 2, calls)
	})

	t.Run("keys are independent", func(t *testing.T) {
		t.Parallel()

		c := New(WithClock(clock.NewManual(start)))

		mx, err := GetOrCompute(c, Key("analyze", "MX"), time.Minute, func() (string, error) {
			return "mx", nil
		})
		require.NoError(t, err)

		co, err := GetOrCompute(c, Key("analyze", "CO"), time.Minute, func() (string, error) {
			return "co", nil
		})
		require.NoError(t, err)

		assert.Equal(t, "mx", mx)
		assert.Equal(t, "co", co)
		assert.Equal(t, 2, c.Len())
	})

	t.Run("invalidate forces recompute", func(t *testing.T) {
		t.Parallel()

		var (
			c     = New(WithClock(clock.NewManual(start)))
			calls = 0
		)

		compute := func() (int, error) {
			calls++

			return calls, nil
		}

		_, err := GetOrCompute(c, "k", time.Hour, compute)
		require.NoError(t, err)

		c.Invalidate("k")

		v, err := GetOrCompute(c, "k", time.Hour, compute)
		require.NoError(t, err)

		assert.Equal(t, 2, v)
	})

	t.Run("mismatched type", func(t *testing.T) {
		t.Parallel()

		c := New(WithClock(clock.NewManual(start)))

		_, err := GetOrCompute(c, "k", time.Hour, func() (int, error) {
			return 1, nil
		})
		require.NoError(t, err)

		_, err = GetOrCompute(c, "k", time.Hour, func() (string, error) {
			return "", nil
		})
		assert.Error(t, err)
	})
}

func TestCache_Deduplication(t *testing.T) {
	t.Parallel()

	t.Run("concurrent misses share one computation", func(t *testing.T) {
		t.Parallel()

		var (
			c       = New()
			calls   atomic.Int32
			release = make(chan struct{})
			started = make(chan struct{})
			once    sync.Once
			wg      sync.WaitGroup
		)

		compute := func() (int, error) {
			calls.Add(1)
			once.Do(func() { close(started) })

			<-release

			return 42, nil
		}

		results := make([]int, 8)

		for i := range results {
			wg.Add(1)

			go func(i int) {
				defer wg.Done()

				v, err := GetOrCompute(c, "k", time.Minute, compute)
				assert.NoError(t, err)

				results[i] = v
			}(i)
		}

		<-started

		// Give the remaining callers a chance to join the flight
		time.Sleep(50 * time.Millisecond)
		close(release)

		wg.Wait()

		assert.Equal(t, int32(1), calls.Load())

		for _, v := range results {
			assert.Equal(t, 42, v)
		}
	})

	t.Run("disabled deduplication recomputes", func(t *testing.T) {
		t.Parallel()

		var (
			c       = New(WithoutDeduplication())
			calls   atomic.Int32
			arrived sync.WaitGroup
			wg      sync.WaitGroup
		)

		const callers = 4

		arrived.Add(callers)

		compute := func() (int, error) {
			calls.Add(1)
			arrived.Done()

			// Hold every caller inside the computation until all have missed
			arrived.Wait()

			return 1, nil
		}

		for range callers {
			wg.Add(1)

			go func() {
				defer wg.Done()

				_, err := GetOrCompute(c, "k", time.Minute, compute)
				assert.NoError(t, err)
			}()
		}

		wg.Wait()

		assert.Equal(t, int32(callers), calls.Load())
		assert.Equal(t, 1, c.Len())
	})
}
