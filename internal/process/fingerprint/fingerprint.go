// Package fingerprint maps media references to comparable identities.
//
// Photos are identified by a coarse 8x8 average hash of the decoded image, so
// re-encoded or re-uploaded copies of the same picture collide. Videos and
// documents are identified by their platform source id only; content-level
// similarity for them is out of reach.
package fingerprint

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	"github.com/corona10/goimagehash"
	"github.com/rs/zerolog"
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/lueurxax/media-dedup-bot/internal/core/domain"
	coreerrors "github.com/lueurxax/media-dedup-bot/internal/core/errors"
	"github.com/lueurxax/media-dedup-bot/internal/core/ports"
)

// Extractor computes fingerprints, downloading photo bytes through a FileFetcher.
type Extractor struct {
	files  ports.FileFetcher
	logger *zerolog.Logger
}

var _ ports.Fingerprinter = (*Extractor)(nil)

func New(files ports.FileFetcher, logger *zerolog.Logger) *Extractor {
	return &Extractor{files: files, logger: logger}
}

// Fingerprint returns the identity of media. Fetch and decode failures wrap
// ErrExtractionFailed; kinds outside photo/video/document wrap ErrUnsupportedMedia.
func (e *Extractor) Fingerprint(ctx context.Context, media domain.Media) (string, error) {
	switch media.Kind {
	case domain.MediaKindPhoto:
		return e.photoHash(ctx, media.FileID)
	case domain.MediaKindVideo, domain.MediaKindDocument:
		if media.SourceID == "" {
			return "", fmt.Errorf("%w: %s without source id", coreerrors.ErrExtractionFailed, media.Kind)
		}

		return media.SourceID, nil
	case domain.MediaKindAudio, domain.MediaKindVoice, domain.MediaKindAnimation, domain.MediaKindSticker:
		return "", fmt.Errorf("%w: %s", coreerrors.ErrUnsupportedMedia, media.Kind)
	default:
		return "", fmt.Errorf("%w: %q", coreerrors.ErrUnsupportedMedia, media.Kind)
	}
}

func (e *Extractor) photoHash(ctx context.Context, fileID string) (string, error) {
	data, err := e.files.FetchFile(ctx, fileID)
	if err != nil {
		return "", fmt.Errorf("%w: fetch photo: %w", coreerrors.ErrExtractionFailed, err)
	}

	hash, err := HashImage(data)
	if err != nil {
		return "", err
	}

	e.logger.Debug().Str("file_id", fileID).Str("fingerprint", hash).Int("bytes", len(data)).Msg("photo hashed")

	return hash, nil
}

// HashImage decodes an encoded image and renders its average hash as 16
// lowercase hex characters.
func HashImage(data []byte) (string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: decode image: %w", coreerrors.ErrExtractionFailed, err)
	}

	hash, err := goimagehash.AverageHash(img)
	if err != nil {
		return "", fmt.Errorf("%w: hash %s image: %w", coreerrors.ErrExtractionFailed, format, err)
	}

	return fmt.Sprintf("%016x", hash.GetHash()), nil
}
