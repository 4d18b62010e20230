package collection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithMinDuration(t *testing.T) {
	ctx := context.Background()

	t.Run("fast success waits for floor", func(t *testing.T) {
		start := time.Now()
		err := withMinDuration(ctx, 80*time.Millisecond, func(context.Context) error { return nil })
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	})

	t.Run("slow success is not extended", func(t *testing.T) {
		start := time.Now()
		err := withMinDuration(ctx, 10*time.Millisecond, func(context.Context) error {
			time.Sleep(100 * time.Millisecond)
			return nil
		})
		assert.NoError(t, err)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("failure returns immediately", func(t *testing.T) {
		boom := errors.New("boom")
		start := time.Now()
		err := withMinDuration(ctx, 10*time.Second, func(context.Context) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("zero floor runs inline", func(t *testing.T) {
		called := false
		err := withMinDuration(ctx, 0, func(context.Context) error {
			called = true
			return nil
		})
		assert.NoError(t, err)
		assert.True(t, called)
	})

	t.Run("op sees cancellation", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := withMinDuration(cctx, time.Second, func(ctx context.Context) error { return ctx.Err() })
		assert.ErrorIs(t, err, context.Canceled)
	})
}
