package domain

import (
	"fmt"
	"time"

	coreerrors "github.com/lueurxax/media-dedup-bot/internal/core/errors"
)

// MediaKind identifies the kind of media payload carried by a message.
type MediaKind string

// Supported media kinds. Anything else passes through the engine untouched.
const (
	MediaKindPhoto    MediaKind = "photo"
	MediaKindVideo    MediaKind = "video"
	MediaKindDocument MediaKind = "document"
)

// Kinds the platform adapter may report but the engine never fingerprints.
const (
	MediaKindAudio     MediaKind = "audio"
	MediaKindVoice     MediaKind = "voice"
	MediaKindAnimation MediaKind = "animation"
	MediaKindSticker   MediaKind = "sticker"
)

// Supported reports whether the kind participates in deduplication.
func (k MediaKind) Supported() bool {
	switch k {
	case MediaKindPhoto, MediaKindVideo, MediaKindDocument:
		return true
	default:
		return false
	}
}

// ParseMediaKind converts a stored media kind back to its typed form.
func ParseMediaKind(s string) (MediaKind, error) {
	k := MediaKind(s)
	if !k.Supported() {
		return "", fmt.Errorf("%w: %q", coreerrors.ErrUnsupportedMedia, s)
	}

	return k, nil
}

// Media is a reference to a media blob attached to a message.
type Media struct {
	Kind MediaKind
	// FileID is the transport identifier used to download the blob.
	FileID string
	// SourceID is the stable identifier of the blob, independent of the carrying message.
	SourceID string
}

// MediaRecord is the first sighting of a fingerprint within a scope.
type MediaRecord struct {
	Scope       int64
	Fingerprint string
	SourceID    string
	MessageRef  int64
	Kind        MediaKind
	FirstSeenAt time.Time
}

// MediaStats aggregates recorded media for one scope.
type MediaStats struct {
	Total     int
	Photos    int
	Videos    int
	Documents int
}

// MediaEvent is a newly arrived message that may carry media.
type MediaEvent struct {
	Scope     int64
	MessageID int64
	// Media is nil for messages without any attachment.
	Media *Media
}

// Post is a channel post as seen in the event feed.
type Post struct {
	ChatID    int64
	MessageID int64
	Media     *Media
}

// Event is one entry of the platform's raw event feed.
type Event struct {
	Sequence int64
	// ChannelPost is nil for events that are not channel posts.
	ChannelPost *Post
}

// Decision is the outcome of evaluating one media item.
type Decision string

// Decisions produced by the live filter and the history scanner.
const (
	DecisionIgnored      Decision = "ignored"       // unsupported or non-media
	DecisionWhitelisted  Decision = "whitelisted"   // exempt, nothing recorded
	DecisionSkipped      Decision = "skipped"       // extraction or store failure
	DecisionStored       Decision = "stored"        // first sighting recorded
	DecisionOriginal     Decision = "original"      // already recorded under this message
	DecisionDeleted      Decision = "deleted"       // duplicate removed
	DecisionDeleteFailed Decision = "delete_failed" // duplicate, removal failed
	DecisionRaceLost     Decision = "race_lost"     // concurrent first sighting won the insert
)

// ScanResult summarizes one history scan.
type ScanResult struct {
	ScanID     string
	Scope      int64
	Retained   int
	Processed  int
	Duplicates int
	Failed     int
	StartedAt  time.Time
	FinishedAt time.Time
}
