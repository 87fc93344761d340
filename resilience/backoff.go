package resilience

import (
	"math"
	"time"
)

// BackoffFunc returns the delay to wait before the given retry. Attempts are
// numbered from 1.
type BackoffFunc func(attempt int) time.Duration

// LinearBackoff waits step*attempt: step, 2*step, 3*step...
func LinearBackoff(step time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		return step * time.Duration(attempt)
	}
}

// ExponentialBackoff waits base*factor^(attempt-1), capped at max. A
// non-positive max disables the cap.
func ExponentialBackoff(base time.Duration, factor float64, max time.Duration) BackoffFunc {
	if factor <= 0 {
		factor = 2.0
	}
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		d := float64(base) * math.Pow(factor, float64(attempt-1))
		if max > 0 && d > float64(max) {
			return max
		}
		return time.Duration(d)
	}
}

// ConstantBackoff always waits d.
func ConstantBackoff(d time.Duration) BackoffFunc {
	return func(int) time.Duration { return d }
}
