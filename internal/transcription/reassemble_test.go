package transcription_test

import (
	"errors"
	"testing"

	"scribe/internal/chunking"
	"scribe/internal/services"
	"scribe/internal/speech"
	"scribe/internal/transcription"
)

func TestReassembleBreaksStartTiesByChunkKey(t *testing.T) {
	chunks := []chunking.Chunk{
		{Key: chunking.Key{Parent: 0, Sub: 1}, Offset: 5, Duration: 5, Index: 1},
		{Key: chunking.Key{Parent: 0, Sub: 0}, Offset: 0, Duration: 5, Index: 0},
	}
	results := map[chunking.Key]transcription.ChunkResult{
		{Parent: 0, Sub: 0}: {Text: "late start", Segments: []speech.Segment{{Start: 5, End: 6, Text: "late start"}}},
		{Parent: 0, Sub: 1}: {Text: "early", Segments: []speech.Segment{{Start: 0, End: 1, Text: "early"}}},
	}
	transcript := transcription.Reassemble(results, chunks, "")
	if len(transcript.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(transcript.Segments))
	}
	if transcript.Segments[0].Text != "late start" || transcript.Segments[1].Text != "early" {
		t.Fatalf("tie not broken by key: %+v", transcript.Segments)
	}
	if transcript.Text != "late start early" {
		t.Fatalf("text should follow offset order, got %q", transcript.Text)
	}
}

func TestReassembleLanguageFallbacks(t *testing.T) {
	chunks := []chunking.Chunk{
		{Key: chunking.Key{Parent: 0}, Offset: 0, Duration: 10},
		{Key: chunking.Key{Parent: 1}, Offset: 10, Duration: 10, Index: 1},
	}
	tests := []struct {
		name    string
		results map[chunking.Key]transcription.ChunkResult
		hint    string
		want    string
	}{
		{
			name: "first detected in offset order",
			results: map[chunking.Key]transcription.ChunkResult{
				{Parent: 0}: {Text: "hola"},
				{Parent: 1}: {Text: "bonjour", Language: "french"},
			},
			hint: "es",
			want: "fr",
		},
		{
			name: "hint when nothing detected",
			results: map[chunking.Key]transcription.ChunkResult{
				{Parent: 0}: {Text: "a"},
				{Parent: 1}: {Text: "b"},
			},
			hint: "de",
			want: "de",
		},
		{
			name:    "unknown without hint",
			results: map[chunking.Key]transcription.ChunkResult{},
			want:    "unknown",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := transcription.Reassemble(tt.results, chunks, tt.hint).Language; got != tt.want {
				t.Fatalf("language = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReassembleEmptyInputYieldsSingleSegment(t *testing.T) {
	transcript := transcription.Reassemble(map[chunking.Key]transcription.ChunkResult{}, nil, "")
	if len(transcript.Segments) != 1 {
		t.Fatalf("expected exactly one segment, got %d", len(transcript.Segments))
	}
	seg := transcript.Segments[0]
	if seg.Start != 0 || seg.End != 0 || seg.Text != "" || transcript.Text != "" {
		t.Fatalf("unexpected fallback segment %+v", seg)
	}
	if transcript.Language != "unknown" {
		t.Fatalf("unexpected language %q", transcript.Language)
	}
}

func TestReassembleSilentChunkYieldsSingleSegment(t *testing.T) {
	chunks := []chunking.Chunk{{Key: chunking.Key{}, Duration: 3}}
	results := map[chunking.Key]transcription.ChunkResult{{}: {Text: "   "}}
	transcript := transcription.Reassemble(results, chunks, "")
	if len(transcript.Segments) != 1 || transcript.Segments[0].End != 0 || transcript.Text != "" {
		t.Fatalf("unexpected transcript %+v", transcript)
	}
}

func TestReassembleMissingResultIsMarked(t *testing.T) {
	chunks := []chunking.Chunk{{Key: chunking.Key{}, Duration: 3, Index: 0}}
	transcript := transcription.Reassemble(map[chunking.Key]transcription.ChunkResult{}, chunks, "")
	if transcript.Segments[0].Text != "[ERROR chunk 0: no result produced]" {
		t.Fatalf("unexpected marker %q", transcript.Segments[0].Text)
	}
}

func TestRequireText(t *testing.T) {
	if err := (transcription.Transcript{Text: " \n"}).RequireText(); !errors.Is(err, services.ErrEmptyTranscript) {
		t.Fatalf("expected empty transcript error, got %v", err)
	}
	if err := (transcription.Transcript{Text: "hi"}).RequireText(); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}
