package scanner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/media-dedup-bot/internal/core/domain"
	coreerrors "github.com/lueurxax/media-dedup-bot/internal/core/errors"
)

// blockingRunner holds every scan until its context is canceled or release is closed.
type blockingRunner struct {
	mu      sync.Mutex
	started map[int64]int
	release chan struct{}
	entered chan int64
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{
		started: make(map[int64]int),
		release: make(chan struct{}),
		entered: make(chan int64, 8),
	}
}

func (r *blockingRunner) Scan(ctx context.Context, scope int64) (domain.ScanResult, error) {
	r.mu.Lock()
	r.started[scope]++
	r.mu.Unlock()

	r.entered <- scope

	select {
	case <-ctx.Done():
		return domain.ScanResult{Scope: scope}, ctx.Err()
	case <-r.release:
		return domain.ScanResult{Scope: scope, Processed: 1}, nil
	}
}

func waitEntered(t *testing.T, r *blockingRunner) int64 {
	t.Helper()

	select {
	case scope := <-r.entered:
		return scope
	case <-time.After(time.Second):
		t.Fatal("scan did not start")

		return 0
	}
}

func TestCoordinatorOneScanPerScope(t *testing.T) {
	logger := zerolog.Nop()
	runner := newBlockingRunner()
	coord := NewCoordinator(context.Background(), runner, &logger)

	require.NoError(t, coord.Start(testScope, nil))
	waitEntered(t, runner)

	err := coord.Start(testScope, nil)
	require.ErrorIs(t, err, coreerrors.ErrScanInProgress)
	assert.True(t, coord.Running(testScope))

	require.NoError(t, coord.Start(testOtherScope, nil), "other scopes run in parallel")
	waitEntered(t, runner)

	close(runner.release)
	require.NoError(t, coord.Shutdown(context.Background()))

	assert.False(t, coord.Running(testScope))
	assert.Equal(t, 1, runner.started[testScope])
	assert.Equal(t, 1, runner.started[testOtherScope])
}

func TestCoordinatorScopeFreedAfterScan(t *testing.T) {
	logger := zerolog.Nop()
	runner := newBlockingRunner()
	close(runner.release)

	coord := NewCoordinator(context.Background(), runner, &logger)

	done := make(chan domain.ScanResult, 2)
	report := func(res domain.ScanResult, err error) {
		assert.NoError(t, err)
		done <- res
	}

	require.NoError(t, coord.Start(testScope, report))
	<-done

	require.Eventually(t, func() bool { return !coord.Running(testScope) }, time.Second, time.Millisecond)
	require.NoError(t, coord.Start(testScope, report))

	res := <-done
	assert.Equal(t, 1, res.Processed)
	require.NoError(t, coord.Shutdown(context.Background()))
}

func TestCoordinatorShutdownCancelsScans(t *testing.T) {
	logger := zerolog.Nop()
	runner := newBlockingRunner()
	coord := NewCoordinator(context.Background(), runner, &logger)

	errs := make(chan error, 1)
	require.NoError(t, coord.Start(testScope, func(_ domain.ScanResult, err error) { errs <- err }))
	waitEntered(t, runner)

	require.NoError(t, coord.Shutdown(context.Background()))
	require.ErrorIs(t, <-errs, context.Canceled)

	err := coord.Start(testOtherScope, nil)
	require.Error(t, err, "no scans after shutdown")
}

func TestCoordinatorRecoversPanics(t *testing.T) {
	logger := zerolog.Nop()
	coord := NewCoordinator(context.Background(), panicRunner{}, &logger)

	require.NoError(t, coord.Start(testScope, nil))
	require.NoError(t, coord.Shutdown(context.Background()))
	assert.False(t, coord.Running(testScope))
}

type panicRunner struct{}

func (panicRunner) Scan(context.Context, int64) (domain.ScanResult, error) {
	panic("scan exploded")
}
