package kaiawallet

import (
	"context"
	"time"

	"github.com/da1suk8/donation-demo/pkg/log"
)

// PollResult polls the result endpoint until the operation reaches a
// terminal status or the attempt budget runs out.
//
// A pending status, an unknown status and a transport or decode error
// all consume exactly one attempt and retry after the poll interval.
// When the budget is exhausted without a terminal status the call
// returns (nil, nil): the outcome is unknown and callers must not read
// it as a cancellation. A canceled context aborts the wait between
// attempts and returns the context error.
func (c *Client) PollResult(ctx context.Context, requestKey string) (*Result, error) {
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		result, err := c.Result(ctx, requestKey)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warnf("poll wallet result attempt %v for key %v: %v", attempt, requestKey, err)
		} else {
			log.Debugf("poll wallet result attempt %v for key %v: status %v", attempt, requestKey, result.Status)
			if result.Status.Terminal() {
				return result, nil
			}
		}
		if attempt == c.maxAttempts {
			break
		}
		if err := sleep(ctx, c.interval); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// sleep suspends for d unless ctx is canceled first.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
