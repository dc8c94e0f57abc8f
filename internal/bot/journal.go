package bot

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lueurxax/media-dedup-bot/internal/core/domain"
	"github.com/lueurxax/media-dedup-bot/internal/core/ports"
	"github.com/lueurxax/media-dedup-bot/internal/platform/observability"
)

const defaultJournalSize = 50000

// Journal keeps the most recent updates seen by the live poller so scans can
// page through them without a second getUpdates consumer.
type Journal struct {
	mu     sync.RWMutex
	events []domain.Event
	start  int
	size   int
	capacity int
}

var _ ports.Feed = (*Journal)(nil)

// NewJournal creates a journal that retains at most capacity events.
func NewJournal(capacity int) *Journal {
	if capacity <= 0 {
		capacity = defaultJournalSize
	}

	return &Journal{events: make([]domain.Event, capacity), capacity: capacity}
}

// Append records ev, evicting the oldest event when full.
// Events must arrive in increasing sequence order.
func (j *Journal) Append(ev domain.Event) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.size > 0 && ev.Sequence <= j.at(j.size-1).Sequence {
		return
	}

	if j.size < j.capacity {
		j.events[(j.start+j.size)%j.capacity] = ev
		j.size++
	} else {
		j.events[j.start] = ev
		j.start = (j.start + 1) % j.capacity
	}

	observability.JournalSize.Set(float64(j.size))
}

func (j *Journal) at(i int) domain.Event {
	return j.events[(j.start+i)%j.capacity]
}

// Len returns the number of retained events.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return j.size
}

// FetchPage returns up to limit events with Sequence >= offset. It never
// blocks; an empty page means the caller has caught up.
func (j *Journal) FetchPage(ctx context.Context, offset int64, limit int, _ time.Duration) ([]domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	first := sort.Search(j.size, func(i int) bool { return j.at(i).Sequence >= offset })

	n := j.size - first
	if limit > 0 && n > limit {
		n = limit
	}

	page := make([]domain.Event, 0, n)
	for i := first; i < first+n; i++ {
		page = append(page, j.at(i))
	}

	return page, nil
}
