package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/lueurxax/media-dedup-bot/internal/core/domain"
	coreerrors "github.com/lueurxax/media-dedup-bot/internal/core/errors"
	"github.com/lueurxax/media-dedup-bot/internal/core/ports"
	"github.com/lueurxax/media-dedup-bot/migrations"
)

// SQLite is the embedded store backend. A path of ":memory:" gives a
// private in-process database, used by tests and dry runs.
type SQLite struct {
	db     *sql.DB
	Logger *zerolog.Logger
}

// Compile-time assertion that *SQLite implements ports.DedupStore.
var _ ports.DedupStore = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string, logger *zerolog.Logger) (*SQLite, error) {
	dsn := path

	if path != sqliteMemoryPath {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, sqliteDirPerm); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}

		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", path, sqliteBusyTimeout)
	}

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	if path == sqliteMemoryPath {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(sqliteMaxOpenConns)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()

		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLite{db: sqlDB, Logger: logger}, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() {
	if err := s.db.Close(); err != nil {
		s.Logger.Warn().Err(err).Msg("close sqlite")
	}
}

// Ping checks connectivity for readiness probes.
func (s *SQLite) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}

	return nil
}

// Migrate applies the embedded sqlite migrations.
func (s *SQLite) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(&gooseLogger{logger: s.Logger})

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, s.db, migrations.SQLiteDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func (s *SQLite) Lookup(ctx context.Context, scope int64, fingerprint string) (int64, bool, error) {
	var messageID int64

	err := s.db.QueryRowContext(ctx, `
		SELECT message_id
		FROM media_records
		WHERE scope = ? AND fingerprint = ?
	`, scope, fingerprint).Scan(&messageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}

		return 0, false, fmt.Errorf("lookup media record: %w", err)
	}

	return messageID, true, nil
}

func (s *SQLite) Insert(ctx context.Context, rec *MediaRecord) error {
	seen := rec.FirstSeenAt
	if seen.IsZero() {
		seen = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO media_records (scope, fingerprint, source_id, message_id, media_kind, first_seen_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.Scope, rec.Fingerprint, SanitizeUTF8(rec.SourceID), rec.MessageRef, string(rec.Kind), seen.UTC().Unix())
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return fmt.Errorf("insert media record scope=%d: %w", rec.Scope, coreerrors.ErrConstraintViolation)
		}

		return fmt.Errorf("insert media record: %w", err)
	}

	return nil
}

func (s *SQLite) CountsByScope(ctx context.Context, scope int64) (domain.MediaStats, error) {
	var stats domain.MediaStats

	err := s.db.QueryRowContext(ctx, countsByScopeQuery("?"), scope).
		Scan(&stats.Total, &stats.Photos, &stats.Videos, &stats.Documents)
	if err != nil {
		return domain.MediaStats{}, fmt.Errorf("count media records: %w", err)
	}

	return stats, nil
}

func (s *SQLite) IsWhitelisted(ctx context.Context, sourceID string) (bool, error) {
	var exists bool

	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM whitelist WHERE source_id = ?)`, sourceID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check whitelist: %w", err)
	}

	return exists, nil
}

func (s *SQLite) Whitelist(ctx context.Context, sourceID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO whitelist (source_id, created_at)
		VALUES (?, ?)
		ON CONFLICT (source_id) DO NOTHING
	`, SanitizeUTF8(sourceID), time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("whitelist source: %w", err)
	}

	return nil
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(sqliteErr.Error(), "UNIQUE")
	default:
		return false
	}
}
