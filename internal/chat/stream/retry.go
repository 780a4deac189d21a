package stream

import (
	"context"
	"net/http"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/behindthegarage/kidsclubplans-conversational/internal/chat/types"
)

// openWithRetry dials the backend with bounded exponential backoff. Only
// transport failures and gateway statuses are retried; everything else is
// permanent. The retry governs the dial exclusively: a stream that has
// begun delivering events is never re-issued, so a retried turn can never
// duplicate partial content in the transcript.
func (c *Client) openWithRetry(ctx context.Context, req types.ChatRequest) (*http.Response, error) {
	var resp *http.Response
	attempt := 0

	operation := func() error {
		r, err := c.open(ctx, req)
		if err != nil {
			if !types.IsRetryable(err) {
				return backoff.Permanent(err)
			}
			c.log.Warn("chat dial failed, will retry",
				zap.Int("attempt", attempt),
				zap.Int("max_retries", c.maxRetries),
				zap.Error(err))
			attempt++
			return err
		}
		resp = r
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryBaseDelay
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.MaxElapsedTime = 0

	// Cancellation wins over backoff: a triggered context aborts the wait
	// immediately and propagates without a further attempt.
	err := backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(policy, uint64(c.maxRetries)), ctx))
	if err != nil {
		return nil, err
	}
	return resp, nil
}
