package speakers

import "scribe/internal/transcription"

// Unknown labels segments no diarization turn overlaps.
const Unknown = "UNKNOWN"

// Turn is one speaker turn reported by a diarization model.
type Turn struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

// AssignByOverlap gives each segment the speaker of the turn it overlaps the
// most. Ties keep the earlier turn. Segments with no positive overlap get
// Unknown. Returns a new slice.
func AssignByOverlap(segments []transcription.Segment, turns []Turn) []transcription.Segment {
	out := make([]transcription.Segment, len(segments))
	for i, seg := range segments {
		best := 0.0
		speaker := Unknown
		for _, turn := range turns {
			overlap := min(seg.End, turn.End) - max(seg.Start, turn.Start)
			if overlap > best {
				best = overlap
				speaker = turn.Speaker
			}
		}
		seg.Speaker = speaker
		out[i] = seg
	}
	return out
}
