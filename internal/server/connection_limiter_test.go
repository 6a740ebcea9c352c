package server

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobalConnectionLimiter(t *testing.T) {
	l := NewGlobalConnectionLimiter(2)

	assert.True(t, l.Acquire())
	assert.True(t, l.Acquire())
	assert.False(t, l.Acquire())
	assert.Equal(t, int64(2), l.Current())

	l.Release()
	assert.True(t, l.Acquire())
	assert.Equal(t, int64(2), l.Max())
}

func TestGlobalConnectionLimiter_Concurrent(t *testing.T) {
	const max = 50
	l := NewGlobalConnectionLimiter(max)

	var acquired sync.WaitGroup
	results := make(chan bool, 200)
	for i := 0; i < 200; i++ {
		acquired.Add(1)
		go func() {
			defer acquired.Done()
			results <- l.Acquire()
		}()
	}
	acquired.Wait()
	close(results)

	granted := 0
	for ok := range results {
		if ok {
			granted++
		}
	}
	assert.Equal(t, max, granted)
	assert.Equal(t, int64(max), l.Current())
}

func TestIPConnectionLimiter(t *testing.T) {
	l := NewIPConnectionLimiter(2)

	assert.True(t, l.Acquire("1.1.1.1"))
	assert.True(t, l.Acquire("1.1.1.1"))
	assert.False(t, l.Acquire("1.1.1.1"))

	// Other IPs are unaffected.
	assert.True(t, l.Acquire("2.2.2.2"))
	assert.Equal(t, 2, l.Count("1.1.1.1"))
	assert.Equal(t, 1, l.Count("2.2.2.2"))
	assert.Equal(t, 2, l.UniqueIPs())

	l.Release("1.1.1.1")
	assert.True(t, l.Acquire("1.1.1.1"))
}

func TestIPConnectionLimiter_ReleaseDropsEmptyEntries(t *testing.T) {
	l := NewIPConnectionLimiter(5)

	l.Acquire("1.1.1.1")
	l.Release("1.1.1.1")
	assert.Equal(t, 0, l.UniqueIPs())

	// Releasing an unknown IP is a no-op.
	l.Release("9.9.9.9")
	assert.Equal(t, 0, l.Count("9.9.9.9"))
}

func TestConnectionRateLimiter(t *testing.T) {
	// Tiny sustained rate so only the burst tokens are spendable.
	l := NewConnectionRateLimiter(0.001, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("1.1.1.1"), "burst attempt %d", i)
	}
	assert.False(t, l.Allow("1.1.1.1"))

	// Separate token bucket per IP.
	assert.True(t, l.Allow("2.2.2.2"))
}

func TestConnectionLimits_Acquire(t *testing.T) {
	l := NewConnectionLimits(2, 1, 1000, 1000)

	ok, reason := l.Acquire("1.1.1.1")
	require.True(t, ok)
	assert.Empty(t, reason)

	// Second connection from the same IP hits the per-IP ceiling, and the
	// provisionally taken global slot is rolled back.
	ok, reason = l.Acquire("1.1.1.1")
	assert.False(t, ok)
	assert.Equal(t, LimitReasonPerIP, reason)
	assert.Equal(t, int64(1), l.Global().Current())

	ok, _ = l.Acquire("2.2.2.2")
	require.True(t, ok)

	ok, reason = l.Acquire("3.3.3.3")
	assert.False(t, ok)
	assert.Equal(t, LimitReasonGlobal, reason)

	l.Release("1.1.1.1")
	ok, _ = l.Acquire("3.3.3.3")
	assert.True(t, ok)
}

func TestConnectionLimits_RateRejection(t *testing.T) {
	l := NewConnectionLimits(100, 100, 0.001, 1)

	ok, _ := l.Acquire("1.1.1.1")
	require.True(t, ok)

	ok, reason := l.Acquire("1.1.1.1")
	assert.False(t, ok)
	assert.Equal(t, LimitReasonRate, reason)
	// The rate rejection must not consume a global slot.
	assert.Equal(t, int64(1), l.Global().Current())
}
