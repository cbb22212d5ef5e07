package media

// AttachmentKind classifies the media carried by an inbound message.
type AttachmentKind string

const (
	AttachmentVideo     AttachmentKind = "video"
	AttachmentVideoNote AttachmentKind = "video_note"
	AttachmentVoice     AttachmentKind = "voice"
	AttachmentAudio     AttachmentKind = "audio"
	AttachmentDocument  AttachmentKind = "document"
	AttachmentPhoto     AttachmentKind = "photo"
	AttachmentSticker   AttachmentKind = "sticker"
	AttachmentAnimation AttachmentKind = "animation"
)

// Attachment describes a remote media file referenced by a message.
type Attachment struct {
	Kind         AttachmentKind
	FileID       string
	FileUniqueID string
	// Size is the size reported by the platform; 0 means unknown.
	Size        int64
	DurationSec int
	Width       int
	Height      int
	MimeType    string
	FileName    string
}

// InboundUpdate is one webhook delivery reduced to what the pipeline needs.
type InboundUpdate struct {
	UpdateID   int
	ChatID     int64
	MessageID  int
	Text       string
	Attachment *Attachment
}

// HasAttachment reports whether the update references media.
func (u InboundUpdate) HasAttachment() bool {
	return u.Attachment != nil && u.Attachment.FileID != ""
}

// ConversionRequest is owned by exactly one pipeline run.
type ConversionRequest struct {
	ChatID    int64
	Kind      ConversionKind
	InputPath string
	Preset    Preset
}

// ConversionResult is the produced file, consumed right away by the upload step.
type ConversionResult struct {
	Path string
	Size int64
	Kind ConversionKind
}
