package audio

import "bytes"

// Format identifies an audio container detected from magic bytes.
type Format string

const (
	FormatUnknown Format = ""
	FormatWAV     Format = "wav"
	FormatFLAC    Format = "flac"
	FormatOgg     Format = "ogg"
	FormatMP3     Format = "mp3"
)

// Sniff inspects the leading bytes of data and reports the container format.
// Containers without a pure-Go decoder (mp4/m4a, webm, aac) report FormatUnknown.
func Sniff(data []byte) Format {
	switch {
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return FormatWAV
	case bytes.HasPrefix(data, []byte("fLaC")):
		return FormatFLAC
	case bytes.HasPrefix(data, []byte("OggS")) && isVorbis(data):
		return FormatOgg
	case bytes.HasPrefix(data, []byte("ID3")):
		return FormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0 && data[1]&0x06 != 0:
		// MPEG audio frame sync with a non-reserved layer. ADTS AAC uses layer 00.
		return FormatMP3
	default:
		return FormatUnknown
	}
}

// isVorbis distinguishes Ogg Vorbis from Ogg Opus, which needs ffmpeg.
func isVorbis(data []byte) bool {
	head := data
	if len(head) > 64 {
		head = head[:64]
	}
	return bytes.Contains(head, []byte("\x01vorbis"))
}
