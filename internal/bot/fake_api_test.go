package bot

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lueurxax/media-dedup-bot/internal/core/domain"
	"github.com/lueurxax/media-dedup-bot/internal/process/scanner"
)

// fakeAPI records outgoing calls and serves canned chats and updates.
type fakeAPI struct {
	mu sync.Mutex

	nextID   int
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	sendErr  error
	reqErr   error

	pages      [][]tgbotapi.Update
	configs    []tgbotapi.UpdateConfig
	updatesErr error

	fileURL string
	fileErr error

	chats   map[int64]tgbotapi.Chat
	members map[int64]tgbotapi.ChatMember
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		nextID:  500,
		chats:   make(map[int64]tgbotapi.Chat),
		members: make(map[int64]tgbotapi.ChatMember),
	}
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}

	f.sent = append(f.sent, c)
	f.nextID++

	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.reqErr != nil {
		return nil, f.reqErr
	}

	f.requests = append(f.requests, c)

	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdates(cfg tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	f.mu.Lock()

	f.configs = append(f.configs, cfg)

	if f.updatesErr != nil {
		f.mu.Unlock()
		return nil, f.updatesErr
	}

	if len(f.pages) == 0 {
		f.mu.Unlock()
		// Stand in for an empty long poll.
		time.Sleep(5 * time.Millisecond)

		return nil, nil
	}

	page := f.pages[0]
	f.pages = f.pages[1:]
	f.mu.Unlock()

	return page, nil
}

func (f *fakeAPI) GetFileDirectURL(fileID string) (string, error) {
	if f.fileErr != nil {
		return "", f.fileErr
	}

	return f.fileURL + fileID, nil
}

func (f *fakeAPI) GetChat(cfg tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	chat, ok := f.chats[cfg.ChatID]
	if !ok {
		return tgbotapi.Chat{}, &tgbotapi.Error{Code: 400, Message: "Bad Request: chat not found"}
	}

	return chat, nil
}

func (f *fakeAPI) GetChatMember(cfg tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	member, ok := f.members[cfg.ChatID]
	if !ok {
		return tgbotapi.ChatMember{}, &tgbotapi.Error{Code: 400, Message: "Bad Request: user not found"}
	}

	return member, nil
}

// texts returns the text of every sent message, in order.
func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, len(f.sent))

	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}

	return out
}

func (f *fakeAPI) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []tgbotapi.MessageConfig

	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m)
		}
	}

	return out
}

// fakeURLFetcher returns body for every URL and remembers what was asked.
type fakeURLFetcher struct {
	mu   sync.Mutex
	urls []string
	body []byte
	err  error
}

func (f *fakeURLFetcher) Fetch(_ context.Context, rawURL string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.urls = append(f.urls, rawURL)

	return f.body, f.err
}

// fakeStarter records scan requests and keeps their completion callbacks.
type fakeStarter struct {
	mu     sync.Mutex
	scopes []int64
	done   []scanner.DoneFunc
	err    error
}

func (s *fakeStarter) Start(scope int64, done scanner.DoneFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}

	s.scopes = append(s.scopes, scope)
	s.done = append(s.done, done)

	return nil
}

func (s *fakeStarter) started() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]int64(nil), s.scopes...)
}

// fakeFilter records the events it was asked to handle.
type fakeFilter struct {
	mu     sync.Mutex
	events []domain.MediaEvent
}

func (f *fakeFilter) Handle(_ context.Context, ev domain.MediaEvent) domain.Decision {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append(f.events, ev)

	return domain.DecisionStored
}

func (f *fakeFilter) handled() []domain.MediaEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]domain.MediaEvent(nil), f.events...)
}

func commandMessage(chat *tgbotapi.Chat, from *tgbotapi.User, text string) *tgbotapi.Message {
	end := len(text)
	for i, r := range text {
		if r == ' ' {
			end = i
			break
		}
	}

	return &tgbotapi.Message{
		MessageID: 1,
		Chat:      chat,
		From:      from,
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: end}},
	}
}

func photoMessage(chat *tgbotapi.Chat, id int, uniqueID string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: id,
		Chat:      chat,
		Photo: []tgbotapi.PhotoSize{
			{FileID: "small-" + uniqueID, FileUniqueID: "s-" + uniqueID, Width: 90},
			{FileID: "big-" + uniqueID, FileUniqueID: uniqueID, Width: 1280},
		},
	}
}
