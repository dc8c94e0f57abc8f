package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	coreerrors "github.com/lueurxax/media-dedup-bot/internal/core/errors"
	"github.com/lueurxax/media-dedup-bot/internal/core/ports"
	"github.com/lueurxax/media-dedup-bot/internal/platform/observability"
)

const minRetryDelay = 10 * time.Millisecond

// RetryPolicy bounds how often a refused delete is retried.
// Zero retries means a single attempt.
type RetryPolicy struct {
	Retries uint64
	Delay   time.Duration
}

// Remover deletes duplicate messages, retrying only transient platform errors.
type Remover struct {
	messenger ports.Messenger
	policy    RetryPolicy
	source    string
	logger    *zerolog.Logger
}

// NewRemover creates a remover. source labels metrics (live or scan).
func NewRemover(messenger ports.Messenger, policy RetryPolicy, source string, logger *zerolog.Logger) *Remover {
	return &Remover{messenger: messenger, policy: policy, source: source, logger: logger}
}

// Delete removes the message. The returned error wraps ErrDeleteFailed.
func (r *Remover) Delete(ctx context.Context, scope, messageID int64) error {
	attempts := 0

	call := func(ctx context.Context) error {
		attempts++

		return r.messenger.DeleteMessage(ctx, scope, messageID)
	}

	var err error

	if r.policy.Retries == 0 {
		err = call(ctx)
	} else {
		delay := r.policy.Delay
		if delay < minRetryDelay {
			delay = minRetryDelay
		}

		backoff := retry.WithMaxRetries(r.policy.Retries, retry.NewConstant(delay))

		err = retry.Do(ctx, backoff, func(ctx context.Context) error {
			if err := call(ctx); err != nil {
				if isTransient(err) {
					return retry.RetryableError(err)
				}

				return err
			}

			return nil
		})
	}

	if err != nil {
		observability.DeleteFailures.WithLabelValues(r.source).Inc()

		r.logger.Warn().Err(err).
			Int64("scope", scope).
			Int64("message_id", messageID).
			Int("attempts", attempts).
			Msg("failed to delete duplicate")

		if coreerrors.Is(err, coreerrors.ErrDeleteFailed) {
			return err
		}

		return fmt.Errorf("%w: %w", coreerrors.ErrDeleteFailed, err)
	}

	observability.DuplicatesDeleted.WithLabelValues(r.source).Inc()

	return nil
}

func isTransient(err error) bool {
	return coreerrors.Is(err, coreerrors.ErrRateLimited) || coreerrors.Is(err, coreerrors.ErrTemporary)
}
