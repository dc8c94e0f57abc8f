package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/media-dedup-bot/internal/core/domain"
	coreerrors "github.com/lueurxax/media-dedup-bot/internal/core/errors"
	"github.com/lueurxax/media-dedup-bot/internal/core/ports/mocks"
	"github.com/lueurxax/media-dedup-bot/internal/platform/config"
)

const (
	testAdminID = 11
	testBotID   = 99
	testChannel = int64(-1001234)
)

type botFixture struct {
	bot     *Bot
	api     *fakeAPI
	store   *mocks.DedupStore
	scans   *fakeStarter
	filter  *fakeFilter
	journal *Journal
}

func newBotFixture(t *testing.T, mutate ...func(*config.TelegramBotConfig)) *botFixture {
	t.Helper()

	cfg := config.TelegramBotConfig{
		AdminIDs:        []int64{testAdminID},
		LiveConcurrency: 2,
		SessionTTL:      time.Minute,
		ScanOnPromotion: true,
	}
	for _, m := range mutate {
		m(&cfg)
	}

	api := newFakeAPI()
	api.chats[testChannel] = tgbotapi.Chat{ID: testChannel, Type: "channel", Title: "Memes"}
	api.members[testChannel] = tgbotapi.ChatMember{Status: "administrator"}

	f := &botFixture{
		api:     api,
		store:   mocks.NewDedupStore(),
		scans:   &fakeStarter{},
		filter:  &fakeFilter{},
		journal: NewJournal(100),
	}

	logger := zerolog.Nop()
	f.bot = New(cfg, Deps{
		API:      api,
		SelfID:   testBotID,
		Client:   NewClient(api, &fakeURLFetcher{}, 0),
		Repo:     f.store,
		Filter:   f.filter,
		Scans:    f.scans,
		Journal:  f.journal,
		Sessions: NewSessionManager(cfg.SessionTTL),
	}, &logger)

	return f
}

func privateChat(userID int64) *tgbotapi.Chat {
	return &tgbotapi.Chat{ID: userID, Type: "private"}
}

func admin() *tgbotapi.User {
	return &tgbotapi.User{ID: testAdminID, UserName: "op"}
}

func channelChat() *tgbotapi.Chat {
	return &tgbotapi.Chat{ID: testChannel, Type: "channel", Title: "Memes"}
}

func TestParseChannelID(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "-1001234567890", want: -1001234567890},
		{in: "  -1001 ", want: -1001},
		{in: "12345", wantErr: true},
		{in: "-100abc", wantErr: true},
		{in: "", wantErr: true},
		{in: "@channel", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseChannelID(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, coreerrors.ErrInvalidScope, tt.in)
			continue
		}

		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestScanTargetPrefersForwardOrigin(t *testing.T) {
	msg := &tgbotapi.Message{Text: "-100999", ForwardFromChat: &tgbotapi.Chat{ID: -1005}}

	got, err := scanTarget(msg)
	require.NoError(t, err)
	assert.Equal(t, int64(-1005), got)
}

func TestCommandRegistryRoutes(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	assert.True(t, f.bot.commands.route(ctx, commandMessage(privateChat(testAdminID), admin(), "/help")))
	assert.True(t, f.bot.commands.route(ctx, commandMessage(privateChat(testAdminID), admin(), "/start")))
	assert.False(t, f.bot.commands.route(ctx, commandMessage(privateChat(testAdminID), admin(), "/digest")))

	assert.Equal(t, []string{msgHelp, msgStart}, f.api.texts())
}

func TestUnauthorizedPrivateMessagesAreIgnored(t *testing.T) {
	f := newBotFixture(t)
	stranger := &tgbotapi.User{ID: 500}

	f.bot.handleUpdate(context.Background(), tgbotapi.Update{
		UpdateID: 1,
		Message:  commandMessage(privateChat(500), stranger, "/scan"),
	})

	assert.Empty(t, f.api.texts())
	assert.False(t, f.bot.sessions.Pending(500))
}

func TestUnknownCommandReply(t *testing.T) {
	f := newBotFixture(t)

	f.bot.handleUpdate(context.Background(), tgbotapi.Update{
		Message: commandMessage(privateChat(testAdminID), admin(), "/nope"),
	})

	assert.Equal(t, []string{msgUnknownCommand}, f.api.texts())
}

func TestStatsCommand(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Insert(ctx, &domain.MediaRecord{Scope: testChannel, Fingerprint: "a", MessageRef: 1, Kind: domain.MediaKindPhoto}))
	require.NoError(t, f.store.Insert(ctx, &domain.MediaRecord{Scope: testChannel, Fingerprint: "b", MessageRef: 2, Kind: domain.MediaKindVideo}))

	want := statsText(domain.MediaStats{Total: 2, Photos: 1, Videos: 1})

	f.bot.handleUpdate(ctx, tgbotapi.Update{ChannelPost: commandMessage(channelChat(), nil, "/stats")})
	f.bot.handleUpdate(ctx, tgbotapi.Update{Message: commandMessage(privateChat(testAdminID), admin(), "/stats -1001234")})
	f.bot.handleUpdate(ctx, tgbotapi.Update{Message: commandMessage(privateChat(testAdminID), admin(), "/stats")})

	assert.Equal(t, []string{want, want, msgStatsUsage}, f.api.texts())

	msgs := f.api.messages()
	assert.Equal(t, testChannel, msgs[0].ChatID)
	assert.Equal(t, int64(testAdminID), msgs[1].ChatID)
}

func TestWhitelistCommand(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	reply := commandMessage(privateChat(testAdminID), admin(), "/whitelist")
	reply.ReplyToMessage = photoMessage(privateChat(testAdminID), 5, "meme-1")
	f.bot.handleUpdate(ctx, tgbotapi.Update{Message: reply})

	bare := commandMessage(privateChat(testAdminID), admin(), "/whitelist")
	f.bot.handleUpdate(ctx, tgbotapi.Update{Message: bare})

	voice := commandMessage(channelChat(), nil, "/whitelist")
	voice.ReplyToMessage = &tgbotapi.Message{Voice: &tgbotapi.Voice{FileID: "v", FileUniqueID: "uv"}}
	f.bot.handleUpdate(ctx, tgbotapi.Update{ChannelPost: voice})

	assert.Equal(t, []string{msgWhitelisted, msgWhitelistUsage, msgWhitelistUsage}, f.api.texts())

	ok, err := f.store.IsWhitelisted(ctx, "meme-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, f.store.WhitelistLen())
}

func TestScanSessionFlow(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()
	chat := privateChat(testAdminID)

	f.bot.handleUpdate(ctx, tgbotapi.Update{Message: commandMessage(chat, admin(), "/scan")})
	require.True(t, f.bot.sessions.Pending(testAdminID))

	f.bot.handleUpdate(ctx, tgbotapi.Update{Message: &tgbotapi.Message{Chat: chat, From: admin(), Text: "hello"}})
	require.True(t, f.bot.sessions.Pending(testAdminID), "an unusable target keeps the request open")

	f.bot.handleUpdate(ctx, tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:            chat,
		From:            admin(),
		ForwardFromChat: channelChat(),
	}})

	assert.False(t, f.bot.sessions.Pending(testAdminID))
	assert.Equal(t, []int64{testChannel}, f.scans.started())
	assert.Equal(t, []string{msgScanPrompt, msgInvalidTarget, scanStartingText("Memes")}, f.api.texts())

	res := domain.ScanResult{Scope: testChannel, Processed: 3, Duplicates: 1}
	f.scans.done[0](res, nil)

	texts := f.api.texts()
	assert.Equal(t, scanFinishedText("Memes", res), texts[len(texts)-1])
}

func TestScanSessionRejectsInaccessibleTarget(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()
	chat := privateChat(testAdminID)

	f.api.chats[-1009] = tgbotapi.Chat{ID: -1009, Type: "channel", Title: "Other"}
	f.api.members[-1009] = tgbotapi.ChatMember{Status: "left"}

	f.bot.handleUpdate(ctx, tgbotapi.Update{Message: commandMessage(chat, admin(), "/scan")})
	f.bot.handleUpdate(ctx, tgbotapi.Update{Message: &tgbotapi.Message{Chat: chat, From: admin(), Text: "-1009"}})
	f.bot.handleUpdate(ctx, tgbotapi.Update{Message: &tgbotapi.Message{Chat: chat, From: admin(), Text: "-1000042"}})

	assert.Empty(t, f.scans.started())
	assert.True(t, f.bot.sessions.Pending(testAdminID))
	assert.Equal(t, []string{msgScanPrompt, msgNotAdmin, msgAccessDenied}, f.api.texts())

	f.bot.handleUpdate(ctx, tgbotapi.Update{Message: commandMessage(chat, admin(), "/cancel")})
	f.bot.handleUpdate(ctx, tgbotapi.Update{Message: commandMessage(chat, admin(), "/cancel")})

	texts := f.api.texts()
	assert.Equal(t, []string{msgScanCancelled, msgNothingToCancel}, texts[len(texts)-2:])
}

func TestScanAlreadyRunning(t *testing.T) {
	f := newBotFixture(t)
	f.scans.err = coreerrors.ErrScanInProgress
	ctx := context.Background()
	chat := privateChat(testAdminID)

	f.bot.handleUpdate(ctx, tgbotapi.Update{Message: commandMessage(chat, admin(), "/scan")})
	f.bot.handleUpdate(ctx, tgbotapi.Update{Message: &tgbotapi.Message{Chat: chat, From: admin(), Text: "-1001234"}})
	f.bot.handleUpdate(ctx, tgbotapi.Update{ChannelPost: commandMessage(channelChat(), nil, "/scan")})

	assert.Equal(t, []string{msgScanPrompt, msgScanInProgress, msgScanInProgress}, f.api.texts())
}

func TestScanCommandInChannel(t *testing.T) {
	f := newBotFixture(t)

	f.bot.handleUpdate(context.Background(), tgbotapi.Update{ChannelPost: commandMessage(channelChat(), nil, "/scan")})

	assert.Equal(t, []int64{testChannel}, f.scans.started())
	assert.Empty(t, f.api.texts())

	f.scans.done[0](domain.ScanResult{}, errors.New("boom"))
	assert.Empty(t, f.api.texts(), "channel scans report through their own progress message")
}

func TestPromotionTriggersScan(t *testing.T) {
	member := func(status string) tgbotapi.ChatMember {
		return tgbotapi.ChatMember{User: &tgbotapi.User{ID: testBotID}, Status: status}
	}

	tests := []struct {
		name     string
		chatType string
		oldStatus, newStatus string
		enabled  bool
		want     []int64
	}{
		{name: "promoted in channel", chatType: "channel", oldStatus: "left", newStatus: "administrator", enabled: true, want: []int64{testChannel}},
		{name: "already admin", chatType: "channel", oldStatus: "administrator", newStatus: "administrator", enabled: true},
		{name: "demoted", chatType: "channel", oldStatus: "administrator", newStatus: "left", enabled: true},
		{name: "group", chatType: "supergroup", oldStatus: "member", newStatus: "administrator", enabled: true},
		{name: "disabled", chatType: "channel", oldStatus: "left", newStatus: "administrator", enabled: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBotFixture(t, func(c *config.TelegramBotConfig) { c.ScanOnPromotion = tt.enabled })

			f.bot.handleUpdate(context.Background(), tgbotapi.Update{MyChatMember: &tgbotapi.ChatMemberUpdated{
				Chat:          tgbotapi.Chat{ID: testChannel, Type: tt.chatType, Title: "Memes"},
				OldChatMember: member(tt.oldStatus),
				NewChatMember: member(tt.newStatus),
			}})

			if tt.want == nil {
				assert.Empty(t, f.scans.started())
				return
			}

			assert.Equal(t, tt.want, f.scans.started())
		})
	}
}

func TestChannelPostsReachFilterAndJournal(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()
	group := &tgbotapi.Chat{ID: -42, Type: "supergroup"}

	f.bot.handleUpdate(ctx, tgbotapi.Update{UpdateID: 10, ChannelPost: photoMessage(channelChat(), 1, "a")})
	f.bot.handleUpdate(ctx, tgbotapi.Update{UpdateID: 11, ChannelPost: &tgbotapi.Message{MessageID: 2, Chat: channelChat(), Text: "text"}})
	f.bot.handleUpdate(ctx, tgbotapi.Update{UpdateID: 12, Message: photoMessage(group, 3, "b")})
	f.bot.handleUpdate(ctx, tgbotapi.Update{UpdateID: 13, Message: photoMessage(privateChat(testAdminID), 4, "c")})
	f.bot.inflight.Wait()

	handled := f.filter.handled()
	require.Len(t, handled, 2)

	scopes := map[int64]int64{}
	for _, ev := range handled {
		scopes[ev.Scope] = ev.MessageID
	}

	assert.Equal(t, map[int64]int64{testChannel: 1, -42: 3}, scopes)

	page, err := f.journal.FetchPage(ctx, 0, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11}, sequences(page))
}

func TestRunPollsAndStops(t *testing.T) {
	f := newBotFixture(t, func(c *config.TelegramBotConfig) { c.PollTimeout = 1 })
	f.api.pages = [][]tgbotapi.Update{
		{{UpdateID: 5, ChannelPost: photoMessage(channelChat(), 1, "a")}},
		{{UpdateID: 6, ChannelPost: photoMessage(channelChat(), 2, "b")}},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- f.bot.Run(ctx) }()

	require.Eventually(t, func() bool { return f.journal.Len() == 2 }, time.Second, 5*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	f.api.mu.Lock()
	defer f.api.mu.Unlock()

	require.GreaterOrEqual(t, len(f.api.configs), 2)
	assert.Equal(t, 0, f.api.configs[0].Offset)
	assert.Equal(t, 6, f.api.configs[1].Offset)
	assert.Equal(t, []string{updateMessage, updateChannelPost, updateMyChatMember}, f.api.configs[0].AllowedUpdates)
}

func TestStatsText(t *testing.T) {
	got := statsText(domain.MediaStats{Total: 4, Photos: 2, Videos: 1, Documents: 1})

	assert.Equal(t, "📊 Channel Statistics:\nTotal Media: 4\nPhotos: 2\nVideos: 1\nDocuments: 1", got)
}
