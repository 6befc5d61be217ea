package pipeline

import (
	"context"
	"time"
)

// DefaultMaxRetries is the per-chunk retry budget.
const DefaultMaxRetries = 3

// Policy holds the fixed cooldowns inserted around provider calls to stay
// under the provider's rate limit.
type Policy struct {
	InitialDelay  time.Duration // before every completion call
	RetryDelay    time.Duration // before retrying after a generic failure
	BatchCooldown time.Duration // between consecutive batches
}

func DefaultPolicy() Policy {
	return Policy{
		InitialDelay:  1 * time.Second,
		RetryDelay:    2 * time.Second,
		BatchCooldown: 2 * time.Second,
	}
}

// ZeroPolicy never waits.
func ZeroPolicy() Policy {
	return Policy{}
}

// SleepFunc waits for d or until ctx is done, whichever comes first.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
