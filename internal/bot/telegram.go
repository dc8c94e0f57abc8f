package bot

import (
	"context"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	coreerrors "github.com/lueurxax/media-dedup-bot/internal/core/errors"
	"github.com/lueurxax/media-dedup-bot/internal/core/ports"
)

// API is the part of *tgbotapi.BotAPI the bot relies on.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
	GetFileDirectURL(fileID string) (string, error)
	GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

var _ API = (*tgbotapi.BotAPI)(nil)

// URLFetcher downloads a file by URL.
type URLFetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

const apiLimiterBurst = 5

// Client wraps the Bot API with an outbound rate limit and maps its errors
// onto the core error taxonomy.
type Client struct {
	api     API
	files   URLFetcher
	limiter *rate.Limiter
}

var (
	_ ports.Messenger   = (*Client)(nil)
	_ ports.FileFetcher = (*Client)(nil)
)

// NewClient creates a client. rps <= 0 disables the limiter.
func NewClient(api API, files URLFetcher, rps float64) *Client {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}

	return &Client{
		api:     api,
		files:   files,
		limiter: rate.NewLimiter(limit, apiLimiterBurst),
	}
}

func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("api rate limiter wait: %w", err)
	}

	return nil
}

// SendMessage posts text to chat and returns the new message id.
func (c *Client) SendMessage(ctx context.Context, scope int64, text string) (int64, error) {
	return c.send(ctx, tgbotapi.NewMessage(scope, text))
}

// Reply answers msg in its chat.
func (c *Client) Reply(ctx context.Context, msg *tgbotapi.Message, text string) (int64, error) {
	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ReplyToMessageID = msg.MessageID

	return c.send(ctx, reply)
}

func (c *Client) send(ctx context.Context, cfg tgbotapi.MessageConfig) (int64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, fmt.Errorf("%w: %w", coreerrors.ErrSendFailed, err)
	}

	sent, err := c.api.Send(cfg)
	if err != nil {
		return 0, platformError(coreerrors.ErrSendFailed, err)
	}

	return int64(sent.MessageID), nil
}

func (c *Client) EditMessage(ctx context.Context, scope, messageID int64, text string) error {
	if err := c.wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", coreerrors.ErrEditFailed, err)
	}

	if _, err := c.api.Request(tgbotapi.NewEditMessageText(scope, int(messageID), text)); err != nil {
		return platformError(coreerrors.ErrEditFailed, err)
	}

	return nil
}

func (c *Client) DeleteMessage(ctx context.Context, scope, messageID int64) error {
	if err := c.wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", coreerrors.ErrDeleteFailed, err)
	}

	if _, err := c.api.Request(tgbotapi.NewDeleteMessage(scope, int(messageID))); err != nil {
		return platformError(coreerrors.ErrDeleteFailed, err)
	}

	return nil
}

// FetchFile resolves the file's download URL through getFile and downloads it.
// The URL embeds the bot token and is never logged.
func (c *Client) FetchFile(ctx context.Context, fileID string) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	url, err := c.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, platformError(coreerrors.ErrExtractionFailed, err)
	}

	data, err := c.files.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("download file %s: %w", fileID, err)
	}

	return data, nil
}

// errNotAdmin marks a reachable channel where the bot lacks administrator rights.
var errNotAdmin = fmt.Errorf("%w: bot is not an administrator", coreerrors.ErrAccessDenied)

// AdminChannel returns the title of channel scope if botID administers it.
func (c *Client) AdminChannel(ctx context.Context, scope, botID int64) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}

	chat, err := c.api.GetChat(tgbotapi.ChatInfoConfig{ChatConfig: tgbotapi.ChatConfig{ChatID: scope}})
	if err != nil {
		return "", fmt.Errorf("%w: get chat %d: %w", coreerrors.ErrAccessDenied, scope, err)
	}

	if !chat.IsChannel() {
		return "", fmt.Errorf("%w: chat %d is a %s", coreerrors.ErrInvalidScope, scope, chat.Type)
	}

	if err := c.wait(ctx); err != nil {
		return "", err
	}

	member, err := c.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: scope, UserID: botID},
	})
	if err != nil {
		return "", fmt.Errorf("%w: get chat member %d: %w", coreerrors.ErrAccessDenied, scope, err)
	}

	if !isAdminMember(member) {
		return "", errNotAdmin
	}

	return chat.Title, nil
}

func isAdminMember(m tgbotapi.ChatMember) bool {
	return m.IsAdministrator() || m.IsCreator()
}

// platformError wraps err with op and, when the platform says so, a transient marker.
func platformError(op, err error) error {
	var apiErr *tgbotapi.Error
	if coreerrors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests || apiErr.RetryAfter > 0:
			return fmt.Errorf("%w: %w: %w", op, coreerrors.ErrRateLimited, err)
		case apiErr.Code >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %w: %w", op, coreerrors.ErrTemporary, err)
		default:
			return fmt.Errorf("%w: %w", op, err)
		}
	}

	// Transport failures never reached the platform.
	return fmt.Errorf("%w: %w: %w", op, coreerrors.ErrTemporary, err)
}
