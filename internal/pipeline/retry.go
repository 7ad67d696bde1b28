package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/olist-insights/olist-etl/internal/logging"
)

// Retry is the policy applied around retryable pipeline stages (extraction
// and sink connection). Attempts counts total tries, not re-tries.
type Retry struct {
	Attempts int
	Delay    time.Duration
}

// Do invokes fn up to r.Attempts times, waiting r.Delay between attempts.
// Context cancellation stops retrying immediately and is returned as-is.
func (r Retry) Do(ctx context.Context, stage string, fn func(context.Context) error) error {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			break
		}
		if attempt == attempts {
			break
		}

		logging.Warn().
			Str("stage", stage).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Dur("retry_delay", r.Delay).
			Err(lastErr).
			Msg("Stage failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.Delay):
		}
	}

	return fmt.Errorf("stage %s: %w", stage, lastErr)
}
