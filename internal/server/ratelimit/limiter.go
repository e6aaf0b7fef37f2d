package ratelimit

import "time"

// Limiter answers "may this key do one more of these this hour". With a nil
// counter every call is allowed. Counter errors also allow: limiting is a
// guard, not a dependency.
type Limiter struct {
	counter Counter
	max     int64
	window  time.Duration
}

// NewLimiter builds a limiter allowing max events per key per window.
func NewLimiter(counter Counter, max int64, window time.Duration) *Limiter {
	return &Limiter{counter: counter, max: max, window: window}
}

// Enabled reports whether a counter backend is present.
func (l *Limiter) Enabled() bool {
	return l != nil && l.counter != nil
}

// Allow counts one event for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	if !l.Enabled() || l.max <= 0 {
		return true
	}
	count, err := l.counter.Incr(key, l.window)
	if err != nil {
		return true
	}
	return count <= l.max
}
