package scout

import (
	"context"
	"math/rand"
	"time"
)

// JitterFraction is the share of the base delay a sleep may deviate by.
const JitterFraction = 0.3

// Jitter returns base moved by up to ±30%, never negative.
func Jitter(base time.Duration) time.Duration {
	spread := float64(base) * JitterFraction
	delay := float64(base) + (rand.Float64()*2-1)*spread
	if delay < 0 {
		return 0
	}
	return time.Duration(delay)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
