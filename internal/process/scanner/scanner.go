// Package scanner walks a channel's history through the platform's event
// feed and removes media that repeats an earlier post.
//
// A scan is strictly sequential: pages are pulled until the feed runs dry,
// everything is filtered to the target channel after retrieval, and each
// retained post goes through the same decision the live filter makes, with
// an in-scan working set consulted before the persistent store. Progress is
// reported by editing a single message in the scanned channel.
package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lueurxax/media-dedup-bot/internal/core/domain"
	coreerrors "github.com/lueurxax/media-dedup-bot/internal/core/errors"
	"github.com/lueurxax/media-dedup-bot/internal/core/ports"
	"github.com/lueurxax/media-dedup-bot/internal/platform/observability"
	"github.com/lueurxax/media-dedup-bot/internal/platform/worker"
	"github.com/lueurxax/media-dedup-bot/internal/process/dedup"
)

const (
	logKeyScanID      = "scan_id"
	logKeyScope       = "scope"
	logKeyMessageID   = "message_id"
	logKeyFingerprint = "fingerprint"

	// pageTimeoutSlack lets the long poll return on its own before the
	// request context gives up.
	pageTimeoutSlack = 10 * time.Second

	progressDeleteTimeout = 10 * time.Second
)

// Scanner runs history scans. It is safe to run scans of different scopes
// concurrently; the Coordinator keeps scans of one scope apart.
type Scanner struct {
	feed      ports.Feed
	store     ports.DedupStore
	prints    ports.Fingerprinter
	messenger ports.Messenger
	remover   *dedup.Remover
	cfg       Config
	logger    *zerolog.Logger
}

func New(
	feed ports.Feed,
	store ports.DedupStore,
	prints ports.Fingerprinter,
	messenger ports.Messenger,
	remover *dedup.Remover,
	cfg Config,
	logger *zerolog.Logger,
) *Scanner {
	return &Scanner{
		feed:      feed,
		store:     store,
		prints:    prints,
		messenger: messenger,
		remover:   remover,
		cfg:       cfg.withDefaults(),
		logger:    logger,
	}
}

// scanRun is the state of one scan.
type scanRun struct {
	result     domain.ScanResult
	progressID int64
	working    map[string]int64
	log        zerolog.Logger
}

// Scan walks the feed for scope. It returns ErrPageFetchFailed when the
// history could not be read; records persisted before that stay in place.
// On cancellation the partial result is returned with the context error.
func (s *Scanner) Scan(ctx context.Context, scope int64) (domain.ScanResult, error) {
	run := &scanRun{
		result: domain.ScanResult{
			ScanID:    uuid.NewString(),
			Scope:     scope,
			StartedAt: time.Now(),
		},
		working: make(map[string]int64),
	}
	run.log = s.logger.With().Str(logKeyScanID, run.result.ScanID).Int64(logKeyScope, scope).Logger()

	observability.ScansStarted.Inc()
	observability.ScansActive.Inc()

	defer observability.ScansActive.Dec()

	run.log.Info().Msg("history scan started")

	progressID, err := s.messenger.SendMessage(ctx, scope, msgScanStarted)
	if err != nil {
		run.log.Warn().Err(err).Msg("failed to post progress message")
	}

	run.progressID = progressID

	events, err := s.collect(ctx, run)
	if err != nil {
		s.finish(run, observability.ScanStatusFailed)
		s.edit(ctx, run, msgScanFailed)

		return run.result, err
	}

	retained := retain(events, scope)
	run.result.Retained = len(retained)

	run.log.Info().Int("events", len(events)).Int("retained", len(retained)).Msg("history collected")

	if err := s.walk(ctx, run, retained); err != nil {
		s.finish(run, observability.ScanStatusCanceled)

		return run.result, err
	}

	s.finish(run, observability.ScanStatusCompleted)
	s.edit(ctx, run, summaryText(run.result))
	s.retireProgress(ctx, run)

	return run.result, nil
}

// collect pulls pages until the feed returns an empty one.
func (s *Scanner) collect(ctx context.Context, run *scanRun) ([]domain.Event, error) {
	var (
		all    []domain.Event
		offset int64
		pages  int
	)

	for {
		var page []domain.Event

		err := worker.RunWithTimeout(ctx, s.cfg.PageTimeout+pageTimeoutSlack, func(ctx context.Context) error {
			var fetchErr error
			page, fetchErr = s.feed.FetchPage(ctx, offset, s.cfg.PageLimit, s.cfg.PageTimeout)

			return fetchErr
		})
		if err != nil {
			run.log.Error().Err(err).Int64("offset", offset).Int("pages", pages).Msg("failed to fetch history page")

			return nil, fmt.Errorf("%w: offset %d: %w", coreerrors.ErrPageFetchFailed, offset, err)
		}

		if len(page) == 0 {
			return all, nil
		}

		pages++
		all = append(all, page...)

		next := page[len(page)-1].Sequence + 1
		if next <= offset {
			// A feed that does not advance would loop forever.
			run.log.Warn().Int64("offset", offset).Msg("feed did not advance, stopping pagination")

			return all, nil
		}

		offset = next

		if err := worker.Wait(ctx, s.cfg.PageDelay); err != nil {
			return nil, fmt.Errorf("%w: %w", coreerrors.ErrPageFetchFailed, err)
		}
	}
}

// retain keeps channel posts of scope, in feed order.
func retain(events []domain.Event, scope int64) []domain.Post {
	posts := make([]domain.Post, 0, len(events))

	for _, ev := range events {
		if ev.ChannelPost == nil || ev.ChannelPost.ChatID != scope {
			continue
		}

		posts = append(posts, *ev.ChannelPost)
	}

	return posts
}

func (s *Scanner) walk(ctx context.Context, run *scanRun, posts []domain.Post) error {
	for i, post := range posts {
		if i > 0 && i%s.cfg.ItemBatch == 0 {
			if err := worker.Wait(ctx, s.cfg.BatchDelay); err != nil {
				return err
			}
		}

		if err := ctx.Err(); err != nil {
			return fmt.Errorf("scan interrupted: %w", err)
		}

		if !s.processItem(ctx, run, post) {
			continue
		}

		run.result.Processed++
		observability.ScanItemsProcessed.Inc()

		if run.result.Processed%s.cfg.ProgressEvery == 0 {
			s.edit(ctx, run, progressText(i+1, len(posts), run.result.Processed, run.result.Duplicates))

			if err := worker.Wait(ctx, s.cfg.ProgressDelay); err != nil {
				return err
			}
		}
	}

	return nil
}

// processItem applies the duplicate decision to one post. It reports whether
// the post counts as processed.
func (s *Scanner) processItem(ctx context.Context, run *scanRun, post domain.Post) bool {
	defer worker.RecoverPanic(&run.log, "scan item")

	if post.Media == nil || !post.Media.Kind.Supported() {
		return false
	}

	media := *post.Media
	log := run.log.With().Int64(logKeyMessageID, post.MessageID).Str("source_id", media.SourceID).Logger()

	whitelisted, err := s.store.IsWhitelisted(ctx, media.SourceID)
	if err != nil {
		log.Error().Err(err).Msg("whitelist check failed")

		return false
	}

	if whitelisted {
		return true
	}

	fingerprint, ok := dedup.Extract(ctx, s.prints, media, &log)
	if !ok {
		return false
	}

	if media.Kind == domain.MediaKindPhoto {
		_ = worker.Wait(ctx, s.cfg.PhotoDelay)
	}

	log = log.With().Str(logKeyFingerprint, fingerprint).Logger()

	if first, seen := run.working[fingerprint]; seen {
		if first != post.MessageID {
			s.removeDuplicate(ctx, run, post, first, &log)
		}

		return true
	}

	original, found, err := s.store.Lookup(ctx, run.result.Scope, fingerprint)
	if err != nil {
		log.Error().Err(err).Msg("fingerprint lookup failed")

		return true
	}

	if found {
		if original == post.MessageID {
			run.working[fingerprint] = post.MessageID
		} else {
			s.removeDuplicate(ctx, run, post, original, &log)
		}

		return true
	}

	run.working[fingerprint] = post.MessageID

	err = s.store.Insert(ctx, &domain.MediaRecord{
		Scope:       run.result.Scope,
		Fingerprint: fingerprint,
		SourceID:    media.SourceID,
		MessageRef:  post.MessageID,
		Kind:        media.Kind,
		FirstSeenAt: time.Now(),
	})

	switch {
	case err == nil:
	case coreerrors.Is(err, coreerrors.ErrConstraintViolation):
		log.Info().Msg("fingerprint recorded concurrently, keeping message")
	default:
		log.Error().Err(err).Msg("failed to record media")
	}

	return true
}

func (s *Scanner) removeDuplicate(ctx context.Context, run *scanRun, post domain.Post, original int64, log *zerolog.Logger) {
	_ = worker.Wait(ctx, s.cfg.PreDeleteDelay)

	if err := s.remover.Delete(ctx, run.result.Scope, post.MessageID); err != nil {
		run.result.Failed++

		return
	}

	run.result.Duplicates++

	log.Info().Int64("duplicate_of", original).Msg("removed duplicate")
}

// edit updates the progress message. Failures only reach the log.
func (s *Scanner) edit(ctx context.Context, run *scanRun, text string) {
	if run.progressID == 0 {
		return
	}

	if err := s.messenger.EditMessage(ctx, run.result.Scope, run.progressID, text); err != nil {
		run.log.Debug().Err(err).Msg("failed to edit progress message")
	}
}

// retireProgress waits out the cooldown and removes the progress message.
// Shutdown cuts the cooldown short but the message is still removed.
func (s *Scanner) retireProgress(ctx context.Context, run *scanRun) {
	if run.progressID == 0 {
		return
	}

	_ = worker.Wait(ctx, s.cfg.Cooldown)

	delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), progressDeleteTimeout)
	defer cancel()

	if err := s.messenger.DeleteMessage(delCtx, run.result.Scope, run.progressID); err != nil {
		run.log.Debug().Err(err).Msg("failed to delete progress message")
	}
}

func (s *Scanner) finish(run *scanRun, status string) {
	run.result.FinishedAt = time.Now()

	observability.ScansFinished.WithLabelValues(status).Inc()
	observability.ScanDuration.Observe(run.result.FinishedAt.Sub(run.result.StartedAt).Seconds())

	run.log.Info().
		Str("status", status).
		Int("retained", run.result.Retained).
		Int("processed", run.result.Processed).
		Int("duplicates", run.result.Duplicates).
		Int("failed", run.result.Failed).
		Dur("elapsed", run.result.FinishedAt.Sub(run.result.StartedAt)).
		Msg("history scan finished")
}
