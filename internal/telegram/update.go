package telegram

import (
	"encoding/json"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/memohai/mediaconv/internal/media"
)

// ParseUpdate decodes a webhook body. ok is false for updates that carry no
// message (edits, callbacks, member changes) and need no reply.
func ParseUpdate(payload []byte) (update media.InboundUpdate, ok bool, err error) {
	var raw tgbotapi.Update
	if err := json.Unmarshal(payload, &raw); err != nil {
		return media.InboundUpdate{}, false, fmt.Errorf("decode telegram update: %w", err)
	}
	update, ok = FromUpdate(raw)
	return update, ok, nil
}

// FromUpdate reduces a Bot API update to an InboundUpdate.
func FromUpdate(raw tgbotapi.Update) (media.InboundUpdate, bool) {
	msg := raw.Message
	if msg == nil || msg.Chat == nil {
		return media.InboundUpdate{}, false
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		text = strings.TrimSpace(msg.Caption)
	}
	return media.InboundUpdate{
		UpdateID:   raw.UpdateID,
		ChatID:     msg.Chat.ID,
		MessageID:  msg.MessageID,
		Text:       text,
		Attachment: extractAttachment(msg),
	}, true
}

// extractAttachment picks the single media item of a message. Animations are
// checked before documents because Telegram fills both for GIFs.
func extractAttachment(msg *tgbotapi.Message) *media.Attachment {
	switch {
	case msg.VideoNote != nil:
		return &media.Attachment{
			Kind:         media.AttachmentVideoNote,
			FileID:       msg.VideoNote.FileID,
			FileUniqueID: msg.VideoNote.FileUniqueID,
			Size:         int64(msg.VideoNote.FileSize),
			DurationSec:  msg.VideoNote.Duration,
			Width:        msg.VideoNote.Length,
			Height:       msg.VideoNote.Length,
			MimeType:     "video/mp4",
		}
	case msg.Video != nil:
		return &media.Attachment{
			Kind:         media.AttachmentVideo,
			FileID:       msg.Video.FileID,
			FileUniqueID: msg.Video.FileUniqueID,
			Size:         int64(msg.Video.FileSize),
			DurationSec:  msg.Video.Duration,
			Width:        msg.Video.Width,
			Height:       msg.Video.Height,
			MimeType:     msg.Video.MimeType,
			FileName:     msg.Video.FileName,
		}
	case msg.Voice != nil:
		return &media.Attachment{
			Kind:         media.AttachmentVoice,
			FileID:       msg.Voice.FileID,
			FileUniqueID: msg.Voice.FileUniqueID,
			Size:         int64(msg.Voice.FileSize),
			DurationSec:  msg.Voice.Duration,
			MimeType:     msg.Voice.MimeType,
		}
	case msg.Audio != nil:
		return &media.Attachment{
			Kind:         media.AttachmentAudio,
			FileID:       msg.Audio.FileID,
			FileUniqueID: msg.Audio.FileUniqueID,
			Size:         int64(msg.Audio.FileSize),
			DurationSec:  msg.Audio.Duration,
			MimeType:     msg.Audio.MimeType,
			FileName:     msg.Audio.FileName,
		}
	case msg.Animation != nil:
		return &media.Attachment{
			Kind:     media.AttachmentAnimation,
			FileID:   msg.Animation.FileID,
			Size:     int64(msg.Animation.FileSize),
			MimeType: msg.Animation.MimeType,
		}
	case msg.Document != nil:
		return &media.Attachment{
			Kind:     media.AttachmentDocument,
			FileID:   msg.Document.FileID,
			Size:     int64(msg.Document.FileSize),
			MimeType: msg.Document.MimeType,
			FileName: msg.Document.FileName,
		}
	case len(msg.Photo) > 0:
		photo := pickTelegramPhoto(msg.Photo)
		return &media.Attachment{
			Kind:   media.AttachmentPhoto,
			FileID: photo.FileID,
			Size:   int64(photo.FileSize),
			Width:  photo.Width,
			Height: photo.Height,
		}
	case msg.Sticker != nil:
		return &media.Attachment{
			Kind:   media.AttachmentSticker,
			FileID: msg.Sticker.FileID,
			Size:   int64(msg.Sticker.FileSize),
		}
	default:
		return nil
	}
}

func pickTelegramPhoto(items []tgbotapi.PhotoSize) tgbotapi.PhotoSize {
	if len(items) == 0 {
		return tgbotapi.PhotoSize{}
	}
	best := items[0]
	for _, item := range items[1:] {
		if item.FileSize > best.FileSize {
			best = item
			continue
		}
		if item.Width*item.Height > best.Width*best.Height {
			best = item
		}
	}
	return best
}
