package retry

import (
	"context"
	"fmt"
	"time"
)

// Do runs fn until it succeeds, returns a non-transient error, or the backoff runs out
// of attempts. onRetry, when non-nil, is called before each wait.
func Do(ctx context.Context, b *Backoff, onRetry func(attempt int, err error, delay time.Duration), fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < b.MaxAttempts(); attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if !IsTransient(err) || attempt == b.MaxAttempts()-1 {
			break
		}

		delay := b.Delay(attempt)
		if onRetry != nil {
			onRetry(attempt+1, err, delay)
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry cancelled after %d attempts: %w", attempt+1, ctx.Err())
		case <-timer.C:
		}
	}
	return err
}
