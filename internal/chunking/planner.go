package chunking

import (
	"fmt"

	"scribe/internal/audio"
	"scribe/internal/services"
)

// Key identifies a chunk: Parent is the time window, Sub the leaf within it.
type Key struct {
	Parent int `json:"parent"`
	Sub    int `json:"sub"`
}

// Less orders keys by Parent, then Sub.
func (k Key) Less(other Key) bool {
	if k.Parent != other.Parent {
		return k.Parent < other.Parent
	}
	return k.Sub < other.Sub
}

func (k Key) String() string {
	return fmt.Sprintf("%d.%d", k.Parent, k.Sub)
}

// Chunk is one upload to the speech backend.
type Chunk struct {
	Key Key
	// Payload is a complete mono 16-bit WAV file.
	Payload []byte
	// Offset is the start of the chunk on the recording timeline, in seconds.
	Offset float64
	// Duration is the chunk length in seconds.
	Duration float64
	// Index is the chunk's ordinal in the plan, starting at 0.
	Index int
}

// Planner splits normalized audio into chunks whose payloads fit the upload budget.
type Planner struct {
	maxUploadBytes int64
	chunkSeconds   int
}

// NewPlanner validates the budget and window length.
func NewPlanner(maxUploadBytes int64, chunkSeconds int) (*Planner, error) {
	if maxUploadBytes < audio.WAVSize(1) {
		return nil, services.Wrap(services.ErrConfiguration, "chunking", "new planner",
			fmt.Sprintf("upload budget %d bytes cannot hold a single sample (%d bytes)", maxUploadBytes, audio.WAVSize(1)), nil)
	}
	if chunkSeconds <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "chunking", "new planner",
			fmt.Sprintf("chunk window must be positive, got %d seconds", chunkSeconds), nil)
	}
	return &Planner{maxUploadBytes: maxUploadBytes, chunkSeconds: chunkSeconds}, nil
}

// Plan returns chunks in time order. Recordings that fit the budget become a
// single chunk {0,0}. Longer recordings are cut into windows of chunkSeconds,
// and any window over budget is halved recursively until every leaf fits.
// Zero-sample audio yields no chunks.
func (p *Planner) Plan(in audio.Normalized) ([]Chunk, error) {
	if in.SampleRate <= 0 {
		return nil, services.Wrap(services.ErrDecode, "chunking", "plan", fmt.Sprintf("invalid sample rate %d", in.SampleRate), nil)
	}
	total := len(in.Samples)
	if total == 0 {
		return nil, nil
	}

	if audio.WAVSize(total) <= p.maxUploadBytes {
		chunk, err := p.leaf(in, Key{}, 0, total, 0)
		if err != nil {
			return nil, err
		}
		return []Chunk{chunk}, nil
	}

	window := p.chunkSeconds * in.SampleRate
	var chunks []Chunk
	for parent, start := 0, 0; start < total; parent, start = parent+1, start+window {
		end := min(start+window, total)
		sub := 0
		for _, span := range p.bisect(start, end) {
			chunk, err := p.leaf(in, Key{Parent: parent, Sub: sub}, span[0], span[1], len(chunks))
			if err != nil {
				return nil, err
			}
			chunks = append(chunks, chunk)
			sub++
		}
	}
	return chunks, nil
}

// bisect returns sample ranges [start,end) in time order, each within budget.
func (p *Planner) bisect(start, end int) [][2]int {
	if audio.WAVSize(end-start) <= p.maxUploadBytes {
		return [][2]int{{start, end}}
	}
	mid := start + (end-start)/2
	return append(p.bisect(start, mid), p.bisect(mid, end)...)
}

func (p *Planner) leaf(in audio.Normalized, key Key, start, end, index int) (Chunk, error) {
	payload, err := audio.EncodeWAV(in.Samples[start:end], in.SampleRate)
	if err != nil {
		return Chunk{}, fmt.Errorf("chunk %s: %w", key, err)
	}
	rate := float64(in.SampleRate)
	return Chunk{
		Key:      key,
		Payload:  payload,
		Offset:   float64(start) / rate,
		Duration: float64(end-start) / rate,
		Index:    index,
	}, nil
}
