package media

import "fmt"

// Preset holds the fixed target parameters of a conversion kind.
type Preset struct {
	Extension  string
	Mime       string
	Codec      string
	Channels   int
	SampleRate int
	Bitrate    string
	// Extra carries codec-specific flags appended after the common ones.
	Extra []string
}

var (
	voicePreset = Preset{
		Extension:  ".ogg",
		Mime:       "audio/ogg",
		Codec:      "libopus",
		Channels:   1,
		SampleRate: 48000,
		Bitrate:    "32k",
		Extra:      []string{"-application", "voip"},
	}
	audioPreset = Preset{
		Extension:  ".mp3",
		Mime:       "audio/mpeg",
		Codec:      "libmp3lame",
		Channels:   2,
		SampleRate: 44100,
		Bitrate:    "128k",
	}
)

// Preset returns the target parameters for k.
func (k ConversionKind) Preset() Preset {
	switch k {
	case VideoToVoice, CircleToVoice, AudioToVoice:
		return voicePreset.clone()
	case VoiceToAudio:
		return audioPreset.clone()
	default:
		panic(fmt.Sprintf("media: no preset for %s", k))
	}
}

// Args renders the encoder arguments placed between the input and output paths.
func (p Preset) Args() []string {
	args := []string{
		"-vn",
		"-ac", fmt.Sprint(p.Channels),
		"-ar", fmt.Sprint(p.SampleRate),
		"-c:a", p.Codec,
		"-b:a", p.Bitrate,
	}
	return append(args, p.Extra...)
}

func (p Preset) clone() Preset {
	if p.Extra != nil {
		p.Extra = append([]string(nil), p.Extra...)
	}
	return p
}
