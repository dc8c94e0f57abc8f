// Package ports provides domain-centric interfaces for external dependencies.
// These interfaces follow the ports and adapters (hexagonal) architecture pattern,
// allowing the dedup engine to remain independent of the messaging platform and
// of the storage engine.
package ports

import (
	"context"
	"time"

	"github.com/lueurxax/media-dedup-bot/internal/core/domain"
)

// FingerprintIndex is the persistent first-seen index keyed by (scope, fingerprint).
type FingerprintIndex interface {
	// Lookup returns the message that first carried the fingerprint in scope.
	Lookup(ctx context.Context, scope int64, fingerprint string) (messageRef int64, found bool, err error)
	// Insert records a first sighting. It fails with ErrConstraintViolation if the
	// (scope, fingerprint) pair already exists.
	Insert(ctx context.Context, rec *domain.MediaRecord) error
	CountsByScope(ctx context.Context, scope int64) (domain.MediaStats, error)
}

// Whitelist holds source ids exempt from deletion in every scope.
type Whitelist interface {
	IsWhitelisted(ctx context.Context, sourceID string) (bool, error)
	// Whitelist is idempotent: whitelisting an id twice is not an error.
	Whitelist(ctx context.Context, sourceID string) error
}

// DedupStore combines the fingerprint index and the whitelist.
type DedupStore interface {
	FingerprintIndex
	Whitelist
}

// Fingerprinter maps a media reference to a comparable identity.
type Fingerprinter interface {
	Fingerprint(ctx context.Context, media domain.Media) (string, error)
}

// FileFetcher downloads the raw bytes of a media blob.
type FileFetcher interface {
	FetchFile(ctx context.Context, fileID string) ([]byte, error)
}

// Messenger mutates messages on the platform. All calls are best-effort at call sites.
type Messenger interface {
	SendMessage(ctx context.Context, scope int64, text string) (int64, error)
	EditMessage(ctx context.Context, scope, messageID int64, text string) error
	DeleteMessage(ctx context.Context, scope, messageID int64) error
}

// Feed pages through the platform's raw event log.
// Offset is an opaque continuation token: one past the last consumed sequence number.
type Feed interface {
	FetchPage(ctx context.Context, offset int64, limit int, timeout time.Duration) ([]domain.Event, error)
}
