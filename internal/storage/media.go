package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lueurxax/media-dedup-bot/internal/core/domain"
	coreerrors "github.com/lueurxax/media-dedup-bot/internal/core/errors"
)

// MediaRecord is an alias for the domain type.
type MediaRecord = domain.MediaRecord

// Lookup returns the message that first carried fingerprint in scope.
func (db *DB) Lookup(ctx context.Context, scope int64, fingerprint string) (int64, bool, error) {
	var messageID int64

	err := db.Pool.QueryRow(ctx, `
		SELECT message_id
		FROM media_records
		WHERE scope = $1 AND fingerprint = $2
	`, scope, fingerprint).Scan(&messageID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}

		return 0, false, fmt.Errorf("lookup media record: %w", err)
	}

	return messageID, true, nil
}

// Insert records a first sighting. A second insert for the same
// (scope, fingerprint) fails with ErrConstraintViolation; it never overwrites.
func (db *DB) Insert(ctx context.Context, rec *MediaRecord) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO media_records (scope, fingerprint, source_id, message_id, media_kind, first_seen_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))
	`, rec.Scope, rec.Fingerprint, SanitizeUTF8(rec.SourceID), rec.MessageRef, string(rec.Kind), toTimestamptz(rec.FirstSeenAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert media record scope=%d: %w", rec.Scope, coreerrors.ErrConstraintViolation)
		}

		return fmt.Errorf("insert media record: %w", err)
	}

	return nil
}

// CountsByScope aggregates recorded media of one scope by kind.
func (db *DB) CountsByScope(ctx context.Context, scope int64) (domain.MediaStats, error) {
	var stats domain.MediaStats

	err := db.Pool.QueryRow(ctx, countsByScopeQuery("$1"), scope).
		Scan(&stats.Total, &stats.Photos, &stats.Videos, &stats.Documents)
	if err != nil {
		return domain.MediaStats{}, fmt.Errorf("count media records: %w", err)
	}

	return stats, nil
}

// IsWhitelisted reports whether the source id is exempt from deletion.
func (db *DB) IsWhitelisted(ctx context.Context, sourceID string) (bool, error) {
	var exists bool

	err := db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM whitelist WHERE source_id = $1)`, sourceID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check whitelist: %w", err)
	}

	return exists, nil
}

// Whitelist exempts a source id in every scope. Repeated calls are no-ops.
func (db *DB) Whitelist(ctx context.Context, sourceID string) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO whitelist (source_id)
		VALUES ($1)
		ON CONFLICT (source_id) DO NOTHING
	`, SanitizeUTF8(sourceID))
	if err != nil {
		return fmt.Errorf("whitelist source: %w", err)
	}

	return nil
}

// countsByScopeQuery builds the aggregation shared by both dialects.
func countsByScopeQuery(placeholder string) string {
	return `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN media_kind = 'photo' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN media_kind = 'video' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN media_kind = 'document' THEN 1 ELSE 0 END), 0)
		FROM media_records
		WHERE scope = ` + placeholder
}
