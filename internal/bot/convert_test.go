package bot

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/media-dedup-bot/internal/core/domain"
)

func TestMediaOf(t *testing.T) {
	channel := &tgbotapi.Chat{ID: -1001, Type: "channel"}

	tests := []struct {
		name string
		msg  *tgbotapi.Message
		want *domain.Media
	}{
		{name: "nil message", msg: nil, want: nil},
		{name: "text only", msg: &tgbotapi.Message{Chat: channel, Text: "hi"}, want: nil},
		{
			name: "largest photo size",
			msg:  photoMessage(channel, 1, "u1"),
			want: &domain.Media{Kind: domain.MediaKindPhoto, FileID: "big-u1", SourceID: "u1"},
		},
		{
			name: "video",
			msg:  &tgbotapi.Message{Video: &tgbotapi.Video{FileID: "v", FileUniqueID: "uv"}},
			want: &domain.Media{Kind: domain.MediaKindVideo, FileID: "v", SourceID: "uv"},
		},
		{
			name: "document",
			msg:  &tgbotapi.Message{Document: &tgbotapi.Document{FileID: "d", FileUniqueID: "ud"}},
			want: &domain.Media{Kind: domain.MediaKindDocument, FileID: "d", SourceID: "ud"},
		},
		{
			name: "animation with document counts as document",
			msg: &tgbotapi.Message{
				Animation: &tgbotapi.Animation{FileID: "a", FileUniqueID: "ua"},
				Document:  &tgbotapi.Document{FileID: "a", FileUniqueID: "ua"},
			},
			want: &domain.Media{Kind: domain.MediaKindDocument, FileID: "a", SourceID: "ua"},
		},
		{
			name: "voice is reported but unsupported",
			msg:  &tgbotapi.Message{Voice: &tgbotapi.Voice{FileID: "o", FileUniqueID: "uo"}},
			want: &domain.Media{Kind: domain.MediaKindVoice, FileID: "o", SourceID: "uo"},
		},
		{
			name: "sticker",
			msg:  &tgbotapi.Message{Sticker: &tgbotapi.Sticker{FileID: "s", FileUniqueID: "us"}},
			want: &domain.Media{Kind: domain.MediaKindSticker, FileID: "s", SourceID: "us"},
		},
		{
			name: "missing unique id falls back to file id",
			msg:  &tgbotapi.Message{Video: &tgbotapi.Video{FileID: "v"}},
			want: &domain.Media{Kind: domain.MediaKindVideo, FileID: "v", SourceID: "v"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mediaOf(tt.msg))
		})
	}
}

func TestEventOf(t *testing.T) {
	channel := &tgbotapi.Chat{ID: -1001, Type: "channel"}

	ev := eventOf(tgbotapi.Update{UpdateID: 7, ChannelPost: photoMessage(channel, 3, "u")})
	assert.Equal(t, int64(7), ev.Sequence)
	require.NotNil(t, ev.ChannelPost)
	assert.Equal(t, int64(-1001), ev.ChannelPost.ChatID)
	assert.Equal(t, int64(3), ev.ChannelPost.MessageID)
	require.NotNil(t, ev.ChannelPost.Media)
	assert.Equal(t, "u", ev.ChannelPost.Media.SourceID)

	other := eventOf(tgbotapi.Update{UpdateID: 8, Message: &tgbotapi.Message{Chat: channel}})
	assert.Equal(t, int64(8), other.Sequence)
	assert.Nil(t, other.ChannelPost)
}
