package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWait(t *testing.T) {
	t.Run("zero duration returns immediately", func(t *testing.T) {
		require.NoError(t, Wait(context.Background(), 0))
	})

	t.Run("zero duration on canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		require.ErrorIs(t, Wait(ctx, 0), context.Canceled)
	})

	t.Run("elapses", func(t *testing.T) {
		start := time.Now()

		require.NoError(t, Wait(context.Background(), 10*time.Millisecond))
		assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	})

	t.Run("interrupted", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := Wait(ctx, time.Hour)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestRunWithTimeout(t *testing.T) {
	err := RunWithTimeout(context.Background(), 5*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()

		return ctx.Err()
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	called := false
	require.NoError(t, RunWithTimeout(context.Background(), 0, func(context.Context) error {
		called = true

		return nil
	}))
	assert.True(t, called)
}

func TestLoopStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var iterations, housekeeping atomic.Int32

	done := make(chan error, 1)

	go func() {
		done <- Loop(ctx, Config{
			Name:         "test",
			PollInterval: time.Millisecond,
			Process: func(context.Context) error {
				if iterations.Add(1) == 3 {
					cancel()
				}

				return nil
			},
			PeriodicTasks: []PeriodicTask{{
				Name:     "sweep",
				Interval: time.Hour,
				Run:      func(context.Context) { housekeeping.Add(1) },
			}},
		})
	}()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}

	assert.Equal(t, int32(3), iterations.Load())
	assert.Equal(t, int32(1), housekeeping.Load(), "hourly task runs once on start")
}

func TestLoopOnErrorStops(t *testing.T) {
	errFatal := errors.New("fatal")

	err := Loop(context.Background(), Config{
		Name:    "test",
		Process: func(context.Context) error { return errFatal },
		OnError: func(error) bool { return false },
	})
	require.ErrorIs(t, err, errFatal)
}

func TestRecoverPanic(t *testing.T) {
	logger := zerolog.Nop()

	require.NotPanics(t, func() {
		defer RecoverPanic(&logger, "test")

		panic("boom")
	})
}
