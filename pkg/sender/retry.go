package sender

import (
	"context"
	"time"
)

const (
	DefaultMaxRetries     = 3
	DefaultInitialBackoff = time.Second
	DefaultMaxBackoff     = 30 * time.Second
)

// RetryPolicy bounds the delivery loop: at most MaxRetries+1 attempts,
// waiting InitialBackoff after the first failure and doubling up to MaxBackoff.
type RetryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     DefaultMaxRetries,
		InitialBackoff: DefaultInitialBackoff,
		MaxBackoff:     DefaultMaxBackoff,
	}
}

func (p RetryPolicy) normalize() RetryPolicy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = DefaultInitialBackoff
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = DefaultMaxBackoff
	}
	if p.MaxBackoff < p.InitialBackoff {
		p.MaxBackoff = p.InitialBackoff
	}
	return p
}

// Delay returns the wait before retry n (1-based).
func (p RetryPolicy) Delay(n int) time.Duration {
	p = p.normalize()
	d := p.InitialBackoff
	for i := 1; i < n; i++ {
		d *= 2
		if d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	return d
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		if !t.Stop() {
			<-t.C
		}
		return ctx.Err()
	}
}

// AttemptFunc performs delivery attempt n (1-based).
type AttemptFunc func(ctx context.Context, n int) error

// RetryHook is called before each wait with the failed attempt number, its error and the delay.
type RetryHook func(n int, err error, delay time.Duration)

// Retry runs attempt until it succeeds, fails with an error retriable rejects,
// or the policy's retries are spent. It returns the number of attempts made and
// the last error. If ctx ends, the context error is returned.
func Retry(ctx context.Context, p RetryPolicy, sleep SleepFunc, retriable func(error) bool, onRetry RetryHook, attempt AttemptFunc) (int, error) {
	p = p.normalize()
	if sleep == nil {
		sleep = Sleep
	}

	attempts := 0
	for {
		attempts++
		err := attempt(ctx, attempts)
		if err == nil {
			return attempts, nil
		}
		if ctx.Err() != nil {
			return attempts, ctx.Err()
		}
		if attempts > p.MaxRetries || retriable == nil || !retriable(err) {
			return attempts, err
		}

		delay := p.Delay(attempts)
		if onRetry != nil {
			onRetry(attempts, err, delay)
		}
		if serr := sleep(ctx, delay); serr != nil {
			return attempts, serr
		}
	}
}
