package transcription

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"scribe/internal/chunking"
	"scribe/internal/language"
)

var errMissingResult = errors.New("no result produced")

// ErrorMarker is the visible placeholder for a failed chunk.
func ErrorMarker(index int, err error) string {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return fmt.Sprintf("[ERROR chunk %d: %s]", index, msg)
}

type placedSegment struct {
	Segment
	key chunking.Key
	seq int
}

// Reassemble merges per-chunk results into one transcript ordered by time.
// Segments are shifted by their chunk's offset and sorted by start, with ties
// broken by chunk key. Failed chunks become a marker segment covering the
// chunk. Text joins the non-empty chunk texts in offset order. Language is the
// first detected language in offset order, then languageHint, then "unknown".
// A transcript with no segments gets a single zero-length segment holding the
// full text.
func Reassemble(results map[chunking.Key]ChunkResult, chunks []chunking.Chunk, languageHint string) Transcript {
	ordered := make([]chunking.Chunk, len(chunks))
	copy(ordered, chunks)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Offset != ordered[j].Offset {
			return ordered[i].Offset < ordered[j].Offset
		}
		return ordered[i].Key.Less(ordered[j].Key)
	})

	var (
		placed   []placedSegment
		texts    []string
		detected string
	)
	for _, chunk := range ordered {
		result, ok := results[chunk.Key]
		if !ok {
			result = ChunkResult{Key: chunk.Key, Index: chunk.Index, Err: errMissingResult}
		}

		if result.Failed() {
			marker := ErrorMarker(chunk.Index, result.Err)
			texts = append(texts, marker)
			placed = append(placed, placedSegment{
				Segment: Segment{Start: chunk.Offset, End: chunk.Offset + chunk.Duration, Text: marker},
				key:     chunk.Key,
				seq:     len(placed),
			})
			continue
		}

		if text := strings.TrimSpace(result.Text); text != "" {
			texts = append(texts, text)
		}
		if detected == "" {
			detected = language.NormalizeDetected(result.Language)
		}
		for _, seg := range result.Segments {
			placed = append(placed, placedSegment{
				Segment: Segment{
					Start: seg.Start + chunk.Offset,
					End:   seg.End + chunk.Offset,
					Text:  strings.TrimSpace(seg.Text),
				},
				key: chunk.Key,
				seq: len(placed),
			})
		}
	}

	sort.Slice(placed, func(i, j int) bool {
		a, b := placed[i], placed[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.key != b.key {
			return a.key.Less(b.key)
		}
		return a.seq < b.seq
	})

	transcript := Transcript{
		Language: detected,
		Text:     strings.Join(texts, " "),
		Segments: make([]Segment, 0, max(len(placed), 1)),
	}
	if transcript.Language == "" {
		transcript.Language = language.NormalizeDetected(languageHint)
	}
	if transcript.Language == "" {
		transcript.Language = language.Unknown
	}
	for _, p := range placed {
		transcript.Segments = append(transcript.Segments, p.Segment)
	}
	if len(transcript.Segments) == 0 {
		transcript.Segments = append(transcript.Segments, Segment{Start: 0, End: 0, Text: transcript.Text})
	}
	return transcript
}
