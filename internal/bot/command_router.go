package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type commandHandler func(ctx context.Context, msg *tgbotapi.Message)

type commandRegistry struct {
	handlers map[string]commandHandler
}

func (b *Bot) newCommandRegistry() *commandRegistry {
	return &commandRegistry{
		handlers: map[string]commandHandler{
			CmdStart:     b.handleStart,
			CmdHelp:      b.handleHelp,
			CmdStats:     b.handleStats,
			CmdScan:      b.handleScan,
			CmdWhitelist: b.handleWhitelist,
			CmdCancel:    b.handleCancel,
		},
	}
}

// route dispatches msg to its handler. It reports false for unknown commands.
func (r *commandRegistry) route(ctx context.Context, msg *tgbotapi.Message) bool {
	handler, ok := r.handlers[msg.Command()]
	if !ok {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	handler(ctx, msg)

	return true
}
