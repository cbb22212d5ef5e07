package media

import "fmt"

// ConversionKind is one of the fixed source to target transformations.
type ConversionKind int

const (
	VideoToVoice ConversionKind = iota + 1
	CircleToVoice
	VoiceToAudio
	AudioToVoice
)

// Kinds lists every supported conversion kind.
func Kinds() []ConversionKind {
	return []ConversionKind{VideoToVoice, CircleToVoice, VoiceToAudio, AudioToVoice}
}

func (k ConversionKind) String() string {
	switch k {
	case VideoToVoice:
		return "video_to_voice"
	case CircleToVoice:
		return "circle_to_voice"
	case VoiceToAudio:
		return "voice_to_audio"
	case AudioToVoice:
		return "audio_to_voice"
	default:
		return fmt.Sprintf("conversion_kind(%d)", int(k))
	}
}

// UploadType is the attachment type used to deliver a conversion result.
type UploadType string

const (
	UploadVoice UploadType = "voice"
	UploadAudio UploadType = "audio"
)

// UploadAs returns how the result of k is sent back to the chat.
func (k ConversionKind) UploadAs() UploadType {
	switch k {
	case VoiceToAudio:
		return UploadAudio
	case VideoToVoice, CircleToVoice, AudioToVoice:
		return UploadVoice
	default:
		panic(fmt.Sprintf("media: no upload type for %s", k))
	}
}

// Classify maps an attachment to its conversion kind.
func Classify(att Attachment) (ConversionKind, error) {
	switch att.Kind {
	case AttachmentVideo:
		return VideoToVoice, nil
	case AttachmentVideoNote:
		return CircleToVoice, nil
	case AttachmentVoice:
		return VoiceToAudio, nil
	case AttachmentAudio:
		return AudioToVoice, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedMedia, att.Kind)
	}
}
