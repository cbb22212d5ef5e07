package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/memohai/mediaconv/internal/media"
	"github.com/memohai/mediaconv/internal/transcode"
)

// Reply keyboard labels. A message whose text equals a mode label is
// answered with that mode's hint.
const (
	ButtonVoiceToAudio = "🎙️ Voice → MP3"
	ButtonAudioToVoice = "🗣️ MP3 → Voice"
	ButtonVideoToVoice = "🎥 Video/Circle → Voice"
	ButtonHelp         = "ℹ️ Help / Menu"
)

const (
	TextHelp = "Hi! I convert audio and video.\n" +
		"Available modes:\n" +
		"• " + ButtonVoiceToAudio + "\n" +
		"• " + ButtonAudioToVoice + "\n" +
		"• " + ButtonVideoToVoice + "\n\n" +
		"Pick a button below 👇 or just send a file."

	TextHintVoiceToAudio = "OK! Send a voice message and I will return an MP3."
	TextHintAudioToVoice = "Send an MP3 or another audio file and I will return a voice message."
	TextHintVideoToVoice = "Send a video or a video circle and I will extract its sound as a voice message."

	TextUnsupported       = "❌ Unsupported media type. I understand voice messages, audio files, videos and video circles."
	TextDownloadFailed    = "❌ Could not download the file. Please try again."
	TextToolUnavailable   = "❌ The conversion tool is unavailable right now. Please try again later."
	TextConversionFailed  = "❌ Conversion failed. The file may be damaged or in an unsupported format."
	TextUploadFailed      = "❌ Could not send the result back."
	TextProcessingFailed  = "❌ Something went wrong while processing the file."
	TextInterrupted       = "❌ Processing was interrupted. Please send the file again."
	textTooLargeFormat    = "❌ The file is too large, the limit is %s MB. Please send a smaller one."
	chatActionUploadVoice = "upload_voice"
	chatActionUploadAudio = "upload_document"
)

// KeyboardLayout returns the reply keyboard rows shown with the help message.
func KeyboardLayout() [][]string {
	return [][]string{
		{ButtonVoiceToAudio, ButtonAudioToVoice},
		{ButtonVideoToVoice},
		{ButtonHelp},
	}
}

// TooLargeText renders the size rejection for limits.
func TooLargeText(limits media.Limits) string {
	return fmt.Sprintf(textTooLargeFormat, limits.MaxInputMB())
}

// modeHint returns the instruction for a keyboard mode label.
func modeHint(text string) (string, bool) {
	switch strings.TrimSpace(text) {
	case ButtonVoiceToAudio:
		return TextHintVoiceToAudio, true
	case ButtonAudioToVoice:
		return TextHintAudioToVoice, true
	case ButtonVideoToVoice:
		return TextHintVideoToVoice, true
	default:
		return "", false
	}
}

func conversionFailureText(err error) string {
	switch {
	case errors.Is(err, transcode.ErrToolUnavailable):
		return TextToolUnavailable
	case transcode.IsConversionFailure(err):
		return TextConversionFailed
	default:
		return TextProcessingFailed
	}
}

func chatActionFor(kind media.ConversionKind) string {
	if kind.UploadAs() == media.UploadAudio {
		return chatActionUploadAudio
	}
	return chatActionUploadVoice
}
