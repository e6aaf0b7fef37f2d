package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_Allow(t *testing.T) {
	l := NewLimiter(NewMemoryCounter(), 3, time.Hour)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("1.2.3.4"), "request %d should pass", i+1)
	}
	assert.False(t, l.Allow("1.2.3.4"))

	// independent key unaffected
	assert.True(t, l.Allow("5.6.7.8"))
}

func TestLimiter_NilCounterAllowsEverything(t *testing.T) {
	l := NewLimiter(nil, 1, time.Hour)

	assert.False(t, l.Enabled())
	for i := 0; i < 10; i++ {
		assert.True(t, l.Allow("k"))
	}
}

func TestMemoryCounter_WindowExpiry(t *testing.T) {
	c := NewMemoryCounter()
	base := time.Now()
	c.now = func() time.Time { return base }

	n, err := c.Incr("k", time.Hour)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, _ = c.Incr("k", time.Hour)
	assert.Equal(t, int64(2), n)

	// move past the window: count resets
	c.now = func() time.Time { return base.Add(2 * time.Hour) }
	n, _ = c.Incr("k", time.Hour)
	assert.Equal(t, int64(1), n)
}
