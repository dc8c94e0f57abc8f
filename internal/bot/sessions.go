package bot

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/media-dedup-bot/internal/platform/worker"
)

const defaultSessionTTL = 10 * time.Minute

// SessionManager tracks operators who sent /scan and owe a target.
type SessionManager struct {
	mu      sync.Mutex
	pending map[int64]time.Time
	ttl     time.Duration
	now     func() time.Time
}

func NewSessionManager(ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}

	return &SessionManager{
		pending: make(map[int64]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Arm marks userID as awaiting a scan target, replacing any earlier request.
func (s *SessionManager) Arm(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[userID] = s.now().Add(s.ttl)
}

// Pending reports whether userID has an unexpired request.
func (s *SessionManager) Pending(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expires, ok := s.pending[userID]
	if !ok {
		return false
	}

	if !s.now().Before(expires) {
		delete(s.pending, userID)
		return false
	}

	return true
}

// Clear drops the request and reports whether one was pending.
func (s *SessionManager) Clear(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expires, ok := s.pending[userID]
	delete(s.pending, userID)

	return ok && s.now().Before(expires)
}

// Sweep removes expired requests and returns how many were dropped.
func (s *SessionManager) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	dropped := 0

	for id, expires := range s.pending {
		if !now.Before(expires) {
			delete(s.pending, id)
			dropped++
		}
	}

	return dropped
}

// Run sweeps expired sessions until ctx is done.
func (s *SessionManager) Run(ctx context.Context, logger *zerolog.Logger) error {
	return worker.Loop(ctx, worker.Config{
		Name:         "scan-sessions",
		PollInterval: sessionSweepInterval,
		Logger:       logger,
		PeriodicTasks: []worker.PeriodicTask{{
			Name:     "sweep-expired",
			Interval: sessionSweepInterval,
			Run: func(context.Context) {
				if n := s.Sweep(); n > 0 {
					logger.Debug().Int("expired", n).Msg("dropped expired scan sessions")
				}
			},
		}},
	})
}
