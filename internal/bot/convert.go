package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lueurxax/media-dedup-bot/internal/core/domain"
)

// mediaOf extracts the media reference carried by msg, or nil.
// Photos resolve to the largest size. Telegram sets Document alongside
// Animation for GIFs, so those dedupe as documents.
func mediaOf(msg *tgbotapi.Message) *domain.Media {
	if msg == nil {
		return nil
	}

	switch {
	case len(msg.Photo) > 0:
		p := msg.Photo[len(msg.Photo)-1]
		return newMedia(domain.MediaKindPhoto, p.FileID, p.FileUniqueID)
	case msg.Video != nil:
		return newMedia(domain.MediaKindVideo, msg.Video.FileID, msg.Video.FileUniqueID)
	case msg.Document != nil:
		return newMedia(domain.MediaKindDocument, msg.Document.FileID, msg.Document.FileUniqueID)
	case msg.Animation != nil:
		return newMedia(domain.MediaKindAnimation, msg.Animation.FileID, msg.Animation.FileUniqueID)
	case msg.Audio != nil:
		return newMedia(domain.MediaKindAudio, msg.Audio.FileID, msg.Audio.FileUniqueID)
	case msg.Voice != nil:
		return newMedia(domain.MediaKindVoice, msg.Voice.FileID, msg.Voice.FileUniqueID)
	case msg.Sticker != nil:
		return newMedia(domain.MediaKindSticker, msg.Sticker.FileID, msg.Sticker.FileUniqueID)
	default:
		return nil
	}
}

func newMedia(kind domain.MediaKind, fileID, uniqueID string) *domain.Media {
	source := uniqueID
	if source == "" {
		source = fileID
	}

	return &domain.Media{Kind: kind, FileID: fileID, SourceID: source}
}

func mediaEventOf(msg *tgbotapi.Message) domain.MediaEvent {
	return domain.MediaEvent{
		Scope:     msg.Chat.ID,
		MessageID: int64(msg.MessageID),
		Media:     mediaOf(msg),
	}
}

// eventOf maps an update onto the feed's event shape.
func eventOf(u tgbotapi.Update) domain.Event {
	ev := domain.Event{Sequence: int64(u.UpdateID)}

	if post := u.ChannelPost; post != nil && post.Chat != nil {
		ev.ChannelPost = &domain.Post{
			ChatID:    post.Chat.ID,
			MessageID: int64(post.MessageID),
			Media:     mediaOf(post),
		}
	}

	return ev
}
