package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	coreerrors "github.com/lueurxax/media-dedup-bot/internal/core/errors"
	"github.com/lueurxax/media-dedup-bot/internal/core/domain"
)

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	b.reply(ctx, msg, msgStart)
}

func (b *Bot) handleHelp(ctx context.Context, msg *tgbotapi.Message) {
	b.reply(ctx, msg, msgHelp)
}

// handleStats reports the chat's own counts, or those of the channel id
// given as argument in a private chat.
func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) {
	scope := msg.Chat.ID

	if msg.Chat.IsPrivate() {
		id, err := parseChannelID(msg.CommandArguments())
		if err != nil {
			b.reply(ctx, msg, msgStatsUsage)
			return
		}

		scope = id
	}

	stats, err := b.repo.CountsByScope(ctx, scope)
	if err != nil {
		b.logger.Error().Err(err).Int64(LogFieldScope, scope).Msg("failed to load stats")
		b.reply(ctx, msg, msgStatsFailed)

		return
	}

	b.reply(ctx, msg, statsText(stats))
}

// handleScan arms a target request in private chats. Posted inside a
// channel it scans that channel right away.
func (b *Bot) handleScan(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat.IsChannel() {
		if err := b.startScan(msg.Chat.ID, msg.Chat.Title, 0); err != nil {
			b.send(ctx, msg.Chat.ID, startFailureText(err))
		}

		return
	}

	if !msg.Chat.IsPrivate() || msg.From == nil {
		return
	}

	b.sessions.Arm(msg.From.ID)
	b.reply(ctx, msg, msgScanPrompt)
}

func (b *Bot) handleCancel(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.Chat.IsPrivate() || msg.From == nil {
		return
	}

	if b.sessions.Clear(msg.From.ID) {
		b.reply(ctx, msg, msgScanCancelled)
		return
	}

	b.reply(ctx, msg, msgNothingToCancel)
}

func (b *Bot) handleWhitelist(ctx context.Context, msg *tgbotapi.Message) {
	media := mediaOf(msg.ReplyToMessage)
	if media == nil || !media.Kind.Supported() {
		b.reply(ctx, msg, msgWhitelistUsage)
		return
	}

	if err := b.repo.Whitelist(ctx, media.SourceID); err != nil {
		b.logger.Error().Err(err).Str(LogFieldSourceID, media.SourceID).Msg("failed to whitelist media")
		b.reply(ctx, msg, msgWhitelistFailed)

		return
	}

	b.logger.Info().Str(LogFieldSourceID, media.SourceID).Int64(LogFieldChatID, msg.Chat.ID).Msg("media whitelisted")
	b.reply(ctx, msg, msgWhitelisted)
}

// handleScanTarget consumes the message that follows /scan. The request
// stays pending until a usable channel arrives or it is cancelled.
func (b *Bot) handleScanTarget(ctx context.Context, msg *tgbotapi.Message) {
	scope, err := scanTarget(msg)
	if err != nil {
		b.reply(ctx, msg, msgInvalidTarget)
		return
	}

	title, err := b.client.AdminChannel(ctx, scope, b.selfID)
	if err != nil {
		b.logger.Warn().Err(err).Int64(LogFieldScope, scope).Msg("scan target rejected")
		b.reply(ctx, msg, targetErrorText(err))

		return
	}

	b.sessions.Clear(msg.From.ID)

	if err := b.startScan(scope, title, msg.Chat.ID); err != nil {
		b.reply(ctx, msg, startFailureText(err))
		return
	}

	b.reply(ctx, msg, scanStartingText(title))
}

// startScan hands scope to the coordinator. notifyChat, when set, receives
// the final counts once the scan ends.
func (b *Bot) startScan(scope int64, title string, notifyChat int64) error {
	log := b.logger.With().Int64(LogFieldScope, scope).Logger()

	err := b.scans.Start(scope, func(res domain.ScanResult, err error) {
		if notifyChat == 0 || coreerrors.Is(err, context.Canceled) {
			return
		}

		text := scanFinishedText(title, res)
		if err != nil {
			text = scanAbortedText(title)
		}

		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		b.send(ctx, notifyChat, text)
	})

	switch {
	case err == nil:
		log.Info().Msg("scan started")
	case coreerrors.Is(err, coreerrors.ErrScanInProgress):
		log.Info().Msg("scan already running")
	default:
		log.Error().Err(err).Msg("failed to start scan")
	}

	return err
}

func startFailureText(err error) string {
	if coreerrors.Is(err, coreerrors.ErrScanInProgress) {
		return msgScanInProgress
	}

	return msgScanUnavailable
}

// scanTarget resolves the channel named by a forwarded post or a literal id.
func scanTarget(msg *tgbotapi.Message) (int64, error) {
	if msg.ForwardFromChat != nil {
		return msg.ForwardFromChat.ID, nil
	}

	return parseChannelID(msg.Text)
}

// parseChannelID accepts only the -100 prefixed form used for channels.
func parseChannelID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, channelIDPrefix) {
		return 0, coreerrors.ErrInvalidScope
	}

	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, coreerrors.ErrInvalidScope
	}

	return id, nil
}

func targetErrorText(err error) string {
	switch {
	case coreerrors.Is(err, coreerrors.ErrInvalidScope):
		return msgNotChannel
	case coreerrors.Is(err, errNotAdmin):
		return msgNotAdmin
	default:
		return msgAccessDenied
	}
}

func (b *Bot) reply(ctx context.Context, msg *tgbotapi.Message, text string) {
	if _, err := b.client.Reply(ctx, msg, text); err != nil {
		b.logger.Warn().Err(err).Int64(LogFieldChatID, msg.Chat.ID).Msg("failed to reply")
	}
}

func (b *Bot) send(ctx context.Context, chatID int64, text string) {
	if _, err := b.client.SendMessage(ctx, chatID, text); err != nil {
		b.logger.Warn().Err(err).Int64(LogFieldChatID, chatID).Msg("failed to send message")
	}
}
