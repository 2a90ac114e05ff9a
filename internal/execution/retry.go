package execution

import (
	"math/rand"
	"time"
)

// RetryPolicy is an explicit bounded-attempt backoff policy: max attempts,
// base delay, multiplier and jitter. Only transient failures are retried;
// classification lives in pkg/types.
type RetryPolicy struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	Multiplier    float64
	JitterPercent float64 // 0.2 = 20%
}

// Delay returns the backoff before the given retry attempt (attempt 1 is
// the first retry, i.e. the second submission).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := float64(p.BaseDelay)
	for i := 1; i < attempt; i++ {
		delay *= p.Multiplier
	}

	if max := float64(p.MaxDelay); delay > max {
		delay = max
	}

	// Apply jitter: delay * (1.0 + random(0, jitterPercent))
	delay *= 1.0 + rand.Float64()*p.JitterPercent

	return time.Duration(delay)
}
