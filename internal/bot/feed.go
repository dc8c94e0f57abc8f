package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lueurxax/media-dedup-bot/internal/core/domain"
	"github.com/lueurxax/media-dedup-bot/internal/core/ports"
)

// UpdatesFeed pages channel posts straight from getUpdates.
// Fetching with an offset confirms every earlier update, so it must not run
// next to a live poller on the same token.
type UpdatesFeed struct {
	api API
}

var _ ports.Feed = (*UpdatesFeed)(nil)

func NewUpdatesFeed(api API) *UpdatesFeed {
	return &UpdatesFeed{api: api}
}

func (f *UpdatesFeed) FetchPage(ctx context.Context, offset int64, limit int, timeout time.Duration) ([]domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := tgbotapi.NewUpdate(int(offset))
	cfg.Limit = limit
	cfg.Timeout = int(timeout / time.Second)
	cfg.AllowedUpdates = []string{updateChannelPost}

	updates, err := f.api.GetUpdates(cfg)
	if err != nil {
		return nil, fmt.Errorf("get updates at offset %d: %w", offset, err)
	}

	events := make([]domain.Event, 0, len(updates))
	for _, u := range updates {
		events = append(events, eventOf(u))
	}

	return events, nil
}
