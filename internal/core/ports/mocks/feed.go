package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/lueurxax/media-dedup-bot/internal/core/domain"
)

// Feed is an in-memory implementation of ports.Feed over a fixed event log.
type Feed struct {
	mu      sync.Mutex
	events  []domain.Event
	offsets []int64

	// FetchPageFn allows overriding FetchPage behavior.
	FetchPageFn func(ctx context.Context, offset int64, limit int, timeout time.Duration) ([]domain.Event, error)
}

// NewFeed creates a feed serving the given events. Events must be ordered by sequence.
func NewFeed(events ...domain.Event) *Feed {
	return &Feed{events: events}
}

// FetchPage returns up to limit events whose sequence is at least offset.
func (f *Feed) FetchPage(ctx context.Context, offset int64, limit int, timeout time.Duration) ([]domain.Event, error) {
	f.mu.Lock()
	f.offsets = append(f.offsets, offset)
	f.mu.Unlock()

	if f.FetchPageFn != nil {
		return f.FetchPageFn(ctx, offset, limit, timeout)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	page := make([]domain.Event, 0, limit)

	for _, ev := range f.events {
		if ev.Sequence < offset {
			continue
		}

		page = append(page, ev)

		if len(page) == limit {
			break
		}
	}

	return page, nil
}

// Offsets returns the offsets FetchPage was called with, in call order.
func (f *Feed) Offsets() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]int64(nil), f.offsets...)
}
