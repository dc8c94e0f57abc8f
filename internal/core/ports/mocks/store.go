package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lueurxax/media-dedup-bot/internal/core/domain"
	coreerrors "github.com/lueurxax/media-dedup-bot/internal/core/errors"
)

type recordKey struct {
	scope       int64
	fingerprint string
}

// DedupStore is a thread-safe in-memory implementation of ports.DedupStore.
// It enforces the same (scope, fingerprint) uniqueness as the SQL backends.
type DedupStore struct {
	mu        sync.RWMutex
	records   map[recordKey]domain.MediaRecord
	whitelist map[string]struct{}
	inserts   int
	lookups   int

	// LookupFn allows overriding Lookup behavior.
	LookupFn func(ctx context.Context, scope int64, fingerprint string) (int64, bool, error)

	// InsertFn allows overriding Insert behavior.
	InsertFn func(ctx context.Context, rec *domain.MediaRecord) error

	// IsWhitelistedFn allows overriding IsWhitelisted behavior.
	IsWhitelistedFn func(ctx context.Context, sourceID string) (bool, error)
}

// NewDedupStore creates a new mock dedup store.
func NewDedupStore() *DedupStore {
	return &DedupStore{
		records:   make(map[recordKey]domain.MediaRecord),
		whitelist: make(map[string]struct{}),
	}
}

// Lookup returns the message reference recorded for (scope, fingerprint).
func (s *DedupStore) Lookup(ctx context.Context, scope int64, fingerprint string) (int64, bool, error) {
	s.mu.Lock()
	s.lookups++
	s.mu.Unlock()

	if s.LookupFn != nil {
		return s.LookupFn(ctx, scope, fingerprint)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[recordKey{scope: scope, fingerprint: fingerprint}]
	if !ok {
		return 0, false, nil
	}

	return rec.MessageRef, true, nil
}

// Insert records a first sighting or fails with ErrConstraintViolation.
func (s *DedupStore) Insert(ctx context.Context, rec *domain.MediaRecord) error {
	if s.InsertFn != nil {
		return s.InsertFn(ctx, rec)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey{scope: rec.Scope, fingerprint: rec.Fingerprint}
	if _, exists := s.records[key]; exists {
		return fmt.Errorf("insert media record: %w", coreerrors.ErrConstraintViolation)
	}

	stored := *rec
	if stored.FirstSeenAt.IsZero() {
		stored.FirstSeenAt = time.Now()
	}

	s.records[key] = stored
	s.inserts++

	return nil
}

// CountsByScope aggregates the records of one scope by media kind.
func (s *DedupStore) CountsByScope(_ context.Context, scope int64) (domain.MediaStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats domain.MediaStats

	for key, rec := range s.records {
		if key.scope != scope {
			continue
		}

		stats.Total++

		switch rec.Kind {
		case domain.MediaKindPhoto:
			stats.Photos++
		case domain.MediaKindVideo:
			stats.Videos++
		case domain.MediaKindDocument:
			stats.Documents++
		}
	}

	return stats, nil
}

// IsWhitelisted reports whether the source id is exempt.
func (s *DedupStore) IsWhitelisted(ctx context.Context, sourceID string) (bool, error) {
	if s.IsWhitelistedFn != nil {
		return s.IsWhitelistedFn(ctx, sourceID)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.whitelist[sourceID]

	return ok, nil
}

// Whitelist exempts the source id. Repeated calls are no-ops.
func (s *DedupStore) Whitelist(_ context.Context, sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.whitelist[sourceID] = struct{}{}

	return nil
}

// Record returns the stored record for (scope, fingerprint), if any.
func (s *DedupStore) Record(scope int64, fingerprint string) (domain.MediaRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[recordKey{scope: scope, fingerprint: fingerprint}]

	return rec, ok
}

// Len returns the number of stored records across all scopes.
func (s *DedupStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// WhitelistLen returns the number of whitelisted source ids.
func (s *DedupStore) WhitelistLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.whitelist)
}

// Lookups returns how many times Lookup was called.
func (s *DedupStore) Lookups() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lookups
}
