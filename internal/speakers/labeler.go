package speakers

import (
	"fmt"
	"strings"

	"scribe/internal/config"
	"scribe/internal/services"
	"scribe/internal/transcription"
)

// Mode selects how speakers are labeled.
type Mode string

const (
	ModeNone      Mode = "none"
	ModeAlternate Mode = "alternate"
)

// ParseMode accepts "none" (or empty) and "alternate".
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeNone:
		return ModeNone, nil
	case ModeAlternate:
		return ModeAlternate, nil
	default:
		return "", services.Wrap(services.ErrValidation, "speakers", "parse mode",
			fmt.Sprintf("unsupported diarization mode %q (want none or alternate)", raw), nil)
	}
}

// Label returns the display label for the 1-based speaker index.
func Label(index int) string {
	return fmt.Sprintf("Speaker %d", index)
}

// LabelAlternating labels segments in a round-robin rotation, advancing to
// the next speaker whenever the silence since the previous segment's end is
// at least gapThreshold seconds. The first segment always belongs to
// "Speaker 1". maxSpeakers below 1 is treated as 1.
//
// prevEnd tracks the last segment's end, not the running maximum, so an
// overlapping or out-of-order segment can open a gap on the next one.
// Returns a new slice; the input is not modified.
func LabelAlternating(segments []transcription.Segment, gapThreshold float64, maxSpeakers int) []transcription.Segment {
	if len(segments) == 0 {
		return []transcription.Segment{}
	}
	if maxSpeakers < 1 {
		maxSpeakers = 1
	}

	out := make([]transcription.Segment, len(segments))
	current := 1
	prevEnd := 0.0
	for i, seg := range segments {
		if i > 0 {
			gap := max(0, seg.Start-prevEnd)
			if gap >= gapThreshold {
				current = current%maxSpeakers + 1
			}
		}
		seg.Speaker = Label(current)
		out[i] = seg
		prevEnd = seg.End
	}
	return out
}

// Bounds are the accepted ranges for caller-supplied labeling knobs.
type Bounds struct {
	MinGapThreshold float64
	MaxGapThreshold float64
	MaxSpeakers     int
}

// BoundsFromConfig reads the configured limits.
func BoundsFromConfig(cfg config.Speakers) Bounds {
	return Bounds{
		MinGapThreshold: cfg.MinGapThreshold,
		MaxGapThreshold: cfg.MaxGapThreshold,
		MaxSpeakers:     cfg.MaxSpeakersLimit,
	}
}

// Validate rejects knobs outside the configured bounds.
func (b Bounds) Validate(gapThreshold float64, maxSpeakers int) error {
	if gapThreshold < b.MinGapThreshold || gapThreshold > b.MaxGapThreshold {
		return services.Wrap(services.ErrValidation, "speakers", "validate",
			fmt.Sprintf("gap_threshold %.2f outside [%.2f, %.2f]", gapThreshold, b.MinGapThreshold, b.MaxGapThreshold), nil)
	}
	if maxSpeakers < 1 || maxSpeakers > b.MaxSpeakers {
		return services.Wrap(services.ErrValidation, "speakers", "validate",
			fmt.Sprintf("max_speakers %d outside [1, %d]", maxSpeakers, b.MaxSpeakers), nil)
	}
	return nil
}
