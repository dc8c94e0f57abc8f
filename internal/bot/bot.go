// Package bot connects the dedup engine to the Telegram Bot API: the update
// poller, operator commands, scan sessions and the platform adapters the
// engine consumes (messenger, file fetcher, event feeds).
package bot

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/lueurxax/media-dedup-bot/internal/core/domain"
	"github.com/lueurxax/media-dedup-bot/internal/platform/config"
	"github.com/lueurxax/media-dedup-bot/internal/platform/observability"
	"github.com/lueurxax/media-dedup-bot/internal/platform/worker"
	"github.com/lueurxax/media-dedup-bot/internal/process/scanner"
)

// LiveFilter decides the fate of one freshly posted media message.
type LiveFilter interface {
	Handle(ctx context.Context, ev domain.MediaEvent) domain.Decision
}

// ScanStarter launches background history scans, one per scope.
type ScanStarter interface {
	Start(scope int64, done scanner.DoneFunc) error
}

// Deps are the collaborators a Bot is built from.
type Deps struct {
	API      API
	SelfID   int64
	Client   *Client
	Repo     Repository
	Filter   LiveFilter
	Scans    ScanStarter
	Journal  *Journal
	Sessions *SessionManager
}

type Bot struct {
	cfg      config.TelegramBotConfig
	api      API
	selfID   int64
	client   *Client
	repo     Repository
	filter   LiveFilter
	scans    ScanStarter
	journal  *Journal
	sessions *SessionManager
	commands *commandRegistry
	admins   map[int64]struct{}
	live     *semaphore.Weighted
	inflight sync.WaitGroup
	logger   *zerolog.Logger
}

// NewAPI connects to the Bot API with token.
func NewAPI(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating bot API: %w", err)
	}

	return api, nil
}

func New(cfg config.TelegramBotConfig, deps Deps, logger *zerolog.Logger) *Bot {
	concurrency := cfg.LiveConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	admins := make(map[int64]struct{}, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		admins[id] = struct{}{}
	}

	b := &Bot{
		cfg:      cfg,
		api:      deps.API,
		selfID:   deps.SelfID,
		client:   deps.Client,
		repo:     deps.Repo,
		filter:   deps.Filter,
		scans:    deps.Scans,
		journal:  deps.Journal,
		sessions: deps.Sessions,
		admins:   admins,
		live:     semaphore.NewWeighted(int64(concurrency)),
		logger:   logger,
	}
	b.commands = b.newCommandRegistry()

	return b
}

// Run polls for updates until ctx is canceled, then waits for in-flight
// live handling to finish.
func (b *Bot) Run(ctx context.Context) error {
	go func() {
		defer worker.RecoverPanic(b.logger, "scan session sweeper")

		_ = b.sessions.Run(ctx, b.logger)
	}()

	updates := b.poll(ctx)

	defer b.inflight.Wait()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("bot run context canceled: %w", ctx.Err())
		case update, ok := <-updates:
			if !ok {
				return fmt.Errorf("bot run context canceled: %w", ctx.Err())
			}

			b.handleUpdate(ctx, update)
		}
	}
}

// poll feeds getUpdates results into a channel, advancing the offset past
// every delivered update.
func (b *Bot) poll(ctx context.Context) <-chan tgbotapi.Update {
	out := make(chan tgbotapi.Update, pollBatchLimit)

	go func() {
		defer close(out)
		defer worker.RecoverPanic(b.logger, "update poller")

		offset := 0

		for ctx.Err() == nil {
			cfg := tgbotapi.NewUpdate(offset)
			cfg.Limit = pollBatchLimit
			cfg.Timeout = b.cfg.PollTimeout
			cfg.AllowedUpdates = []string{updateMessage, updateChannelPost, updateMyChatMember}

			updates, err := b.api.GetUpdates(cfg)
			if err != nil {
				b.logger.Warn().Err(err).Msg("failed to get updates, retrying")

				if worker.Wait(ctx, pollRetryDelay) != nil {
					return
				}

				continue
			}

			for _, u := range updates {
				if u.UpdateID >= offset {
					offset = u.UpdateID + 1
				}

				select {
				case out <- u:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

func (b *Bot) handleUpdate(ctx context.Context, u tgbotapi.Update) {
	switch {
	case u.ChannelPost != nil:
		observability.UpdatesReceived.WithLabelValues(updateChannelPost).Inc()
		b.journal.Append(eventOf(u))
		b.handleChannelPost(ctx, u.ChannelPost)
	case u.Message != nil:
		observability.UpdatesReceived.WithLabelValues(updateMessage).Inc()
		b.handleMessage(ctx, u.Message)
	case u.MyChatMember != nil:
		observability.UpdatesReceived.WithLabelValues(updateMyChatMember).Inc()
		b.handleMyChatMember(u.MyChatMember)
	}
}

// handleChannelPost treats commands posted in a channel as coming from its
// administrators; everything else goes to the live filter.
func (b *Bot) handleChannelPost(ctx context.Context, post *tgbotapi.Message) {
	if post.Chat == nil {
		return
	}

	if post.IsCommand() {
		b.commands.route(ctx, post)
		return
	}

	b.dispatchLive(ctx, post)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil {
		return
	}

	if !msg.Chat.IsPrivate() {
		b.dispatchLive(ctx, msg)
		return
	}

	if msg.From == nil {
		return
	}

	if !b.isAdmin(msg.From.ID) {
		b.logger.Warn().Int64(LogFieldUserID, msg.From.ID).Str(LogFieldUsername, msg.From.UserName).Msg("Unauthorized access attempt")
		return
	}

	if msg.IsCommand() {
		if !b.commands.route(ctx, msg) {
			b.reply(ctx, msg, msgUnknownCommand)
		}

		return
	}

	if b.sessions.Pending(msg.From.ID) {
		tctx, cancel := context.WithTimeout(ctx, commandTimeout)
		defer cancel()

		b.handleScanTarget(tctx, msg)
	}
}

// handleMyChatMember scans a channel once the bot becomes its administrator.
func (b *Bot) handleMyChatMember(upd *tgbotapi.ChatMemberUpdated) {
	if !b.cfg.ScanOnPromotion || !upd.Chat.IsChannel() {
		return
	}

	if isAdminMember(upd.OldChatMember) || !isAdminMember(upd.NewChatMember) {
		return
	}

	b.logger.Info().Int64(LogFieldScope, upd.Chat.ID).Str("title", upd.Chat.Title).Msg("promoted to channel administrator")

	_ = b.startScan(upd.Chat.ID, upd.Chat.Title, 0)
}

// dispatchLive runs the live filter for msg on a bounded pool of goroutines.
func (b *Bot) dispatchLive(ctx context.Context, msg *tgbotapi.Message) {
	ev := mediaEventOf(msg)
	if ev.Media == nil {
		return
	}

	if err := b.live.Acquire(ctx, 1); err != nil {
		return
	}

	b.inflight.Add(1)

	go func() {
		defer b.inflight.Done()
		defer b.live.Release(1)
		defer worker.RecoverPanic(b.logger, "live media handling")

		_ = worker.RunWithTimeout(ctx, liveHandleTimeout, func(ctx context.Context) error {
			b.filter.Handle(ctx, ev)
			return nil
		})
	}()
}

func (b *Bot) isAdmin(userID int64) bool {
	_, ok := b.admins[userID]
	return ok
}
