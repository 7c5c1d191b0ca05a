package speakers_test

import (
	"testing"

	"scribe/internal/speakers"
	"scribe/internal/transcription"
)

func TestAssignByOverlap(t *testing.T) {
	segments := []transcription.Segment{seg(0, 2), seg(2, 6), seg(10, 11)}
	turns := []speakers.Turn{
		{Start: 0, End: 3, Speaker: "SPEAKER_00"},
		{Start: 3, End: 8, Speaker: "SPEAKER_01"},
	}
	got := labels(speakers.AssignByOverlap(segments, turns))
	want := []string{"SPEAKER_00", "SPEAKER_01", speakers.Unknown}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("segment %d speaker = %q, want %q", i, got[i], want[i])
		}
	}
}
