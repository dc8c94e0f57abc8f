// Package dedup implements the live duplicate filter applied to every
// arriving channel post, and the duplicate remover shared with the history
// scanner.
package dedup

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/media-dedup-bot/internal/core/domain"
	coreerrors "github.com/lueurxax/media-dedup-bot/internal/core/errors"
	"github.com/lueurxax/media-dedup-bot/internal/core/ports"
	"github.com/lueurxax/media-dedup-bot/internal/platform/observability"
)

// Log key constants.
const (
	logKeyScope       = "scope"
	logKeyMessageID   = "message_id"
	logKeySourceID    = "source_id"
	logKeyFingerprint = "fingerprint"
	logKeyDuplicateOf = "duplicate_of"
)

// Filter decides, for one arriving media event, whether it is a repeat.
// It holds no per-event state and is safe for concurrent use.
type Filter struct {
	store   ports.DedupStore
	prints  ports.Fingerprinter
	remover *Remover
	logger  *zerolog.Logger
}

func NewFilter(store ports.DedupStore, prints ports.Fingerprinter, remover *Remover, logger *zerolog.Logger) *Filter {
	return &Filter{
		store:   store,
		prints:  prints,
		remover: remover,
		logger:  logger,
	}
}

// Handle evaluates ev and applies the resulting side effect. Errors never
// escape: they are logged and reported through the returned decision.
func (f *Filter) Handle(ctx context.Context, ev domain.MediaEvent) domain.Decision {
	decision := f.handle(ctx, ev)

	observability.LiveDecisions.WithLabelValues(string(decision)).Inc()

	return decision
}

func (f *Filter) handle(ctx context.Context, ev domain.MediaEvent) domain.Decision {
	if ev.Media == nil || !ev.Media.Kind.Supported() {
		return domain.DecisionIgnored
	}

	media := *ev.Media
	log := f.logger.With().
		Int64(logKeyScope, ev.Scope).
		Int64(logKeyMessageID, ev.MessageID).
		Str(logKeySourceID, media.SourceID).
		Logger()

	whitelisted, err := f.store.IsWhitelisted(ctx, media.SourceID)
	if err != nil {
		log.Error().Err(err).Msg("whitelist check failed")

		return domain.DecisionSkipped
	}

	// Whitelisted items are not recorded either, so they never claim a fingerprint.
	if whitelisted {
		log.Debug().Msg("whitelisted media, leaving untouched")

		return domain.DecisionWhitelisted
	}

	fingerprint, ok := Extract(ctx, f.prints, media, &log)
	if !ok {
		return domain.DecisionSkipped
	}

	log = log.With().Str(logKeyFingerprint, fingerprint).Logger()

	original, found, err := f.store.Lookup(ctx, ev.Scope, fingerprint)
	if err != nil {
		log.Error().Err(err).Msg("fingerprint lookup failed")

		return domain.DecisionSkipped
	}

	if found {
		if original == ev.MessageID {
			return domain.DecisionOriginal
		}

		log.Info().Int64(logKeyDuplicateOf, original).Msg("duplicate media, deleting")

		if err := f.remover.Delete(ctx, ev.Scope, ev.MessageID); err != nil {
			return domain.DecisionDeleteFailed
		}

		return domain.DecisionDeleted
	}

	err = f.store.Insert(ctx, &domain.MediaRecord{
		Scope:       ev.Scope,
		Fingerprint: fingerprint,
		SourceID:    media.SourceID,
		MessageRef:  ev.MessageID,
		Kind:        media.Kind,
		FirstSeenAt: time.Now(),
	})

	switch {
	case err == nil:
		log.Debug().Msg("first sighting recorded")

		return domain.DecisionStored
	case coreerrors.Is(err, coreerrors.ErrConstraintViolation):
		// Lost the race to a concurrent first sighting; the winner stays and so do we.
		log.Info().Msg("concurrent first sighting, keeping message")

		return domain.DecisionRaceLost
	default:
		log.Error().Err(err).Msg("failed to record media")

		return domain.DecisionSkipped
	}
}

// Extract fingerprints media, logging and recording metrics. ok is false when
// the item must be skipped.
func Extract(ctx context.Context, prints ports.Fingerprinter, media domain.Media, log *zerolog.Logger) (string, bool) {
	start := time.Now()

	fingerprint, err := prints.Fingerprint(ctx, media)

	observability.FingerprintDuration.WithLabelValues(string(media.Kind)).Observe(time.Since(start).Seconds())

	if err != nil {
		observability.FingerprintFailures.WithLabelValues(string(media.Kind)).Inc()
		log.Warn().Err(err).Str("kind", string(media.Kind)).Msg("fingerprint extraction failed, skipping")

		return "", false
	}

	return fingerprint, true
}
