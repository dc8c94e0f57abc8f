package scanner

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lueurxax/media-dedup-bot/internal/core/domain"
	coreerrors "github.com/lueurxax/media-dedup-bot/internal/core/errors"
	"github.com/lueurxax/media-dedup-bot/internal/platform/worker"
)

// Runner is the part of Scanner the Coordinator drives.
type Runner interface {
	Scan(ctx context.Context, scope int64) (domain.ScanResult, error)
}

// DoneFunc receives the outcome of a background scan.
type DoneFunc func(res domain.ScanResult, err error)

// Coordinator runs scans in the background, at most one per scope.
type Coordinator struct {
	runner Runner
	logger *zerolog.Logger

	mu      sync.Mutex
	active  map[int64]struct{}
	closed  bool
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewCoordinator creates a coordinator whose scans live until ctx is done or
// Shutdown is called.
func NewCoordinator(ctx context.Context, runner Runner, logger *zerolog.Logger) *Coordinator {
	baseCtx, cancel := context.WithCancel(ctx)

	return &Coordinator{
		runner:  runner,
		logger:  logger,
		active:  make(map[int64]struct{}),
		baseCtx: baseCtx,
		cancel:  cancel,
	}
}

// Start launches a scan of scope. It fails with ErrScanInProgress if one is
// already running for that scope. done, if set, is called from the scan goroutine.
func (c *Coordinator) Start(scope int64, done DoneFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("coordinator shut down: %w", context.Canceled)
	}

	if _, running := c.active[scope]; running {
		return fmt.Errorf("scope %d: %w", scope, coreerrors.ErrScanInProgress)
	}

	c.active[scope] = struct{}{}
	c.wg.Add(1)

	go c.run(scope, done)

	return nil
}

func (c *Coordinator) run(scope int64, done DoneFunc) {
	defer c.wg.Done()
	defer c.release(scope)
	defer worker.RecoverPanic(c.logger, "history scan")

	res, err := c.runner.Scan(c.baseCtx, scope)
	if err != nil {
		c.logger.Error().Err(err).Int64("scope", scope).Str("scan_id", res.ScanID).Msg("history scan ended with error")
	}

	if done != nil {
		done(res, err)
	}
}

func (c *Coordinator) release(scope int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.active, scope)
}

// Running reports whether a scan of scope is in flight.
func (c *Coordinator) Running(scope int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.active[scope]

	return ok
}

// Shutdown cancels in-flight scans and waits for them to return, or for ctx.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.cancel()

	drained := make(chan struct{})

	go func() {
		c.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain scans: %w", ctx.Err())
	}
}
