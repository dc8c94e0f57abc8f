package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/lueurxax/media-dedup-bot/internal/core/domain"
	coreerrors "github.com/lueurxax/media-dedup-bot/internal/core/errors"
)

// Fingerprinter is a table-driven implementation of ports.Fingerprinter.
// Photos are looked up by FileID in the table; videos and documents return their
// SourceID, mirroring the real extractor.
type Fingerprinter struct {
	mu     sync.RWMutex
	photos map[string]string
	failed map[string]bool
	calls  int

	// FingerprintFn allows overriding Fingerprint behavior.
	FingerprintFn func(ctx context.Context, media domain.Media) (string, error)
}

// NewFingerprinter creates a fingerprinter with an empty photo table.
func NewFingerprinter() *Fingerprinter {
	return &Fingerprinter{
		photos: make(map[string]string),
		failed: make(map[string]bool),
	}
}

// SetPhotoHash assigns the hash returned for a photo file id.
func (f *Fingerprinter) SetPhotoHash(fileID, hash string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.photos[fileID] = hash
}

// FailFor makes extraction fail for the given file id.
func (f *Fingerprinter) FailFor(fileID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failed[fileID] = true
}

// Calls returns how many times Fingerprint was called.
func (f *Fingerprinter) Calls() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.calls
}

// Fingerprint returns the configured identity for the media.
func (f *Fingerprinter) Fingerprint(ctx context.Context, media domain.Media) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.FingerprintFn != nil {
		return f.FingerprintFn(ctx, media)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.failed[media.FileID] {
		return "", fmt.Errorf("fetch %s: %w", media.FileID, coreerrors.ErrExtractionFailed)
	}

	switch media.Kind {
	case domain.MediaKindPhoto:
		hash, ok := f.photos[media.FileID]
		if !ok {
			return "", fmt.Errorf("no hash for %s: %w", media.FileID, coreerrors.ErrExtractionFailed)
		}

		return hash, nil
	case domain.MediaKindVideo, domain.MediaKindDocument:
		return media.SourceID, nil
	default:
		return "", fmt.Errorf("%w: %s", coreerrors.ErrUnsupportedMedia, media.Kind)
	}
}
