package speech

import "context"

// Segment is a timed span of recognized text, relative to the start of the
// audio sent in the request.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Request is one transcription call.
type Request struct {
	// Audio is a complete WAV file.
	Audio []byte
	// Filename is passed to the backend as the upload name.
	Filename string
	// Language is an ISO 639-1 hint; empty requests auto-detection.
	Language string
}

// Response is a backend result. Segments is empty when the backend only
// returned plain text.
type Response struct {
	Text     string
	Segments []Segment
	// Language is whatever the backend reported, unnormalized.
	Language string
}

// Backend turns audio into text. Implementations must be safe for concurrent
// use; the dispatcher calls Transcribe from several goroutines.
type Backend interface {
	Transcribe(ctx context.Context, req Request) (Response, error)
	Name() string
}
