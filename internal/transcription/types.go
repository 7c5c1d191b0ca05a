package transcription

import (
	"strings"

	"scribe/internal/chunking"
	"scribe/internal/services"
	"scribe/internal/speech"
)

// ChunkResult is the outcome of one backend call. A non-nil Err marks the
// failed variant; Text, Segments and Language are then empty.
type ChunkResult struct {
	Key      chunking.Key
	Index    int
	Text     string
	Segments []speech.Segment
	Language string
	Err      error
}

// Failed reports whether the chunk could not be transcribed.
func (r ChunkResult) Failed() bool {
	return r.Err != nil
}

// Segment is a span of text on the recording timeline.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker,omitempty"`
}

// Transcript is the pipeline output. Segments is never empty.
type Transcript struct {
	Language string    `json:"language"`
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
}

// RequireText returns services.ErrEmptyTranscript when the transcript has no
// usable text, which downstream summarization cannot accept.
func (t Transcript) RequireText() error {
	if strings.TrimSpace(t.Text) == "" {
		return services.Wrap(services.ErrEmptyTranscript, "transcription", "require text", "transcript text is empty", nil)
	}
	return nil
}
