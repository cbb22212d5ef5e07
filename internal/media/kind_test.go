package media

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	supported := map[AttachmentKind]ConversionKind{
		AttachmentVideo:     VideoToVoice,
		AttachmentVideoNote: CircleToVoice,
		AttachmentVoice:     VoiceToAudio,
		AttachmentAudio:     AudioToVoice,
	}
	for kind, want := range supported {
		got, err := Classify(Attachment{Kind: kind, FileID: "f"})
		require.NoError(t, err, kind)
		assert.Equal(t, want, got, kind)
	}

	unsupported := []AttachmentKind{
		AttachmentDocument,
		AttachmentPhoto,
		AttachmentSticker,
		AttachmentAnimation,
		"",
		"text",
	}
	for _, kind := range unsupported {
		_, err := Classify(Attachment{Kind: kind})
		assert.True(t, errors.Is(err, ErrUnsupportedMedia), "kind %q: %v", kind, err)
	}
}

func TestKindsAreTotal(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for _, k := range Kinds() {
		assert.NotPanics(t, func() { _ = k.Preset() })
		assert.NotPanics(t, func() { _ = k.UploadAs() })
		assert.False(t, seen[k.String()], "duplicate name %s", k)
		seen[k.String()] = true
	}
	assert.Len(t, seen, 4)
	assert.Panics(t, func() { _ = ConversionKind(0).Preset() })
}

func TestUploadAs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, UploadVoice, VideoToVoice.UploadAs())
	assert.Equal(t, UploadVoice, CircleToVoice.UploadAs())
	assert.Equal(t, UploadVoice, AudioToVoice.UploadAs())
	assert.Equal(t, UploadAudio, VoiceToAudio.UploadAs())
}

func TestPresetArgs(t *testing.T) {
	t.Parallel()

	voice := AudioToVoice.Preset()
	assert.Equal(t, ".ogg", voice.Extension)
	assert.Equal(t, []string{
		"-vn", "-ac", "1", "-ar", "48000", "-c:a", "libopus", "-b:a", "32k",
		"-application", "voip",
	}, voice.Args())

	audio := VoiceToAudio.Preset()
	assert.Equal(t, ".mp3", audio.Extension)
	assert.Equal(t, []string{
		"-vn", "-ac", "2", "-ar", "44100", "-c:a", "libmp3lame", "-b:a", "128k",
	}, audio.Args())

	// Presets are copies; mutating one must not leak into the next call.
	voice.Extra[0] = "mutated"
	assert.Equal(t, "-application", VideoToVoice.Preset().Extra[0])
}
