package bot

import (
	"context"
	"time"

	"go.uber.org/atomic"

	"github.com/da1suk8/donation-demo/pkg/errors"
	"github.com/da1suk8/donation-demo/pkg/log"
)

type connectOutcome int

const (
	outcomeSuccess connectOutcome = iota + 1
	outcomeCanceled
	outcomeError
	outcomeTimeout
)

func (o connectOutcome) String() string {
	switch o {
	case outcomeSuccess:
		return "success"
	case outcomeCanceled:
		return "canceled"
	case outcomeError:
		return "error"
	case outcomeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// connectPath is one connection attempt in the race. It returns its
// outcome and, on success, a commit that writes the winning wallet
// binding. Commit runs only for the path that wins the race, so a late
// finisher can never overwrite an already-reported outcome.
type connectPath func(ctx context.Context) (connectOutcome, func() error)

// raceConnect runs the paths concurrently against a wall-clock timeout
// and resolves to exactly one outcome: the first path to settle, or
// timeout. The race context is canceled on resolution so losing paths
// stop polling; their in-flight network calls are not aborted, their
// results are simply discarded.
func raceConnect(ctx context.Context, timeout time.Duration, paths ...connectPath) connectOutcome {
	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var resolved atomic.Bool
	claim := func() bool { return resolved.CAS(false, true) }
	winner := make(chan connectOutcome, len(paths))

	for _, path := range paths {
		go func(path connectPath) {
			outcome, commit := runPath(raceCtx, path)
			if !claim() {
				// Race already resolved; discard without committing.
				return
			}
			if commit != nil {
				if err := commit(); err != nil {
					log.Error(errors.Wrap(err, "commit winning wallet binding"))
					outcome = outcomeError
				}
			}
			winner <- outcome
		}(path)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case outcome := <-winner:
		return outcome
	case <-timer.C:
		if claim() {
			return outcomeTimeout
		}
		// A path claimed the race at the same instant; its outcome is
		// the one that counts.
		return <-winner
	}
}

// runPath shields the race from a panicking path; a panic collapses to
// an error outcome.
func runPath(ctx context.Context, path connectPath) (outcome connectOutcome, commit func() error) {
	defer func() {
		if i := recover(); i != nil {
			log.Error(errors.ErrorfAndReport("connection path panic: %v", i))
			outcome, commit = outcomeError, nil
		}
	}()
	return path(ctx)
}
