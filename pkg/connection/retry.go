package connection

import (
	"context"
	"time"

	"github.com/tapo-protocol/tapo-go/pkg/errs"
)

// Retry calls fn until it succeeds, fails with anything other than a network
// error, or has been called attempts times. Delays between calls come from
// b, which is reset first; a nil b uses the defaults. The last error is
// returned. When ctx ends during a delay the result is a network error that
// wraps ctx's error.
func Retry(ctx context.Context, b *Backoff, attempts int, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	if b == nil {
		b = NewBackoff()
	}
	b.Reset()

	var err error
	for attempt := range attempts {
		if attempt > 0 {
			timer := time.NewTimer(b.Next())
			select {
			case <-ctx.Done():
				timer.Stop()
				return errs.New(errs.KindNetwork, "retry", ctx.Err())
			case <-timer.C:
			}
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		if errs.KindOf(err) != errs.KindNetwork {
			return err
		}
	}
	return err
}
