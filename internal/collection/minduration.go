package collection

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// withMinDuration runs op alongside a timer of length floor.
// On success it returns only once both have finished, so callers observe at
// least floor of wall-clock time. On failure it returns as soon as op does.
func withMinDuration(ctx context.Context, floor time.Duration, op func(context.Context) error) error {
	if floor <= 0 {
		return op(ctx)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return op(gctx)
	})
	g.Go(func() error {
		timer := time.NewTimer(floor)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-gctx.Done():
		}
		return nil
	})
	return g.Wait()
}
