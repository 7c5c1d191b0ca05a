package transcription_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"scribe/internal/chunking"
	"scribe/internal/services"
	"scribe/internal/speech"
	"scribe/internal/transcription"
)

// fakeBackend answers by upload filename and records concurrency.
type fakeBackend struct {
	mu        sync.Mutex
	responses map[string]speech.Response
	failures  map[string]error
	panics    map[string]bool
	delays    map[string]time.Duration
	calls     []speech.Request

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Transcribe(ctx context.Context, req speech.Request) (speech.Response, error) {
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		prev := f.maxInFlight.Load()
		if cur <= prev || f.maxInFlight.CompareAndSwap(prev, cur) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, req)
	delay := f.delays[req.Filename]
	resp := f.responses[req.Filename]
	err := f.failures[req.Filename]
	shouldPanic := f.panics[req.Filename]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if shouldPanic {
		panic("decoder exploded")
	}
	return resp, err
}

func threeChunks() []chunking.Chunk {
	return []chunking.Chunk{
		{Key: chunking.Key{Parent: 0, Sub: 0}, Offset: 0, Duration: 600, Index: 0},
		{Key: chunking.Key{Parent: 1, Sub: 0}, Offset: 600, Duration: 600, Index: 1},
		{Key: chunking.Key{Parent: 2, Sub: 0}, Offset: 1200, Duration: 300, Index: 2},
	}
}

func okResponses() map[string]speech.Response {
	return map[string]speech.Response{
		"chunk_0_0.wav": {Text: "first part", Language: "en", Segments: []speech.Segment{{Start: 1, End: 3, Text: "first part"}}},
		"chunk_1_0.wav": {Text: "second part", Language: "en", Segments: []speech.Segment{{Start: 0, End: 2, Text: "second part"}}},
		"chunk_2_0.wav": {Text: "third part", Language: "en", Segments: []speech.Segment{{Start: 5, End: 9, Text: "third part"}}},
	}
}

func TestDispatchAllIsolatesChunkFailure(t *testing.T) {
	backend := &fakeBackend{
		responses: okResponses(),
		failures:  map[string]error{"chunk_1_0.wav": errors.New("quota exceeded")},
	}
	chunks := threeChunks()
	results := transcription.NewDispatcher(backend, 4, nil).DispatchAll(context.Background(), chunks, "")

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	failed := results[chunking.Key{Parent: 1}]
	if !failed.Failed() || !errors.Is(failed.Err, services.ErrBackend) {
		t.Fatalf("expected backend failure for middle chunk, got %+v", failed)
	}
	if results[chunking.Key{Parent: 2}].Failed() {
		t.Fatal("sibling chunk should succeed")
	}

	transcript := transcription.Reassemble(results, chunks, "")
	if len(transcript.Segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(transcript.Segments))
	}
	middle := transcript.Segments[1]
	if !strings.HasPrefix(middle.Text, "[ERROR chunk 1: ") {
		t.Fatalf("expected error marker, got %q", middle.Text)
	}
	if middle.Start != 600 || middle.End != 1200 {
		t.Fatalf("expected marker to span the chunk, got %v-%v", middle.Start, middle.End)
	}
	if !strings.HasPrefix(transcript.Text, "first part [ERROR chunk 1: ") || !strings.HasSuffix(transcript.Text, "] third part") {
		t.Fatalf("unexpected text %q", transcript.Text)
	}
}

func TestDispatchAllCapturesPanics(t *testing.T) {
	backend := &fakeBackend{
		responses: okResponses(),
		panics:    map[string]bool{"chunk_0_0.wav": true},
	}
	results := transcription.NewDispatcher(backend, 2, nil).DispatchAll(context.Background(), threeChunks(), "")
	r := results[chunking.Key{}]
	if !r.Failed() || !strings.Contains(r.Err.Error(), "decoder exploded") {
		t.Fatalf("expected panic captured as failure, got %+v", r)
	}
	if len(results) != 3 {
		t.Fatalf("expected all chunks to report, got %d", len(results))
	}
}

func TestDispatchAllBoundsConcurrency(t *testing.T) {
	var chunks []chunking.Chunk
	delays := map[string]time.Duration{}
	for i := 0; i < 12; i++ {
		key := chunking.Key{Parent: i}
		chunks = append(chunks, chunking.Chunk{Key: key, Offset: float64(i), Duration: 1, Index: i})
		delays[transcription.ChunkFilename(key)] = 10 * time.Millisecond
	}
	backend := &fakeBackend{delays: delays}

	results := transcription.NewDispatcher(backend, 3, nil).DispatchAll(context.Background(), chunks, "de")
	if len(results) != 12 {
		t.Fatalf("expected 12 results, got %d", len(results))
	}
	if got := backend.maxInFlight.Load(); got > 3 {
		t.Fatalf("expected at most 3 concurrent calls, saw %d", got)
	}
	for _, call := range backend.calls {
		if call.Language != "de" {
			t.Fatalf("expected language hint forwarded, got %q", call.Language)
		}
	}
}

func TestDispatchAllIgnoresCallerCancellation(t *testing.T) {
	backend := &fakeBackend{responses: okResponses()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := transcription.NewDispatcher(backend, 1, nil).DispatchAll(ctx, threeChunks(), "")
	for key, r := range results {
		if r.Failed() {
			t.Fatalf("chunk %v failed after cancellation: %v", key, r.Err)
		}
	}
}

func TestDispatchAllSynthesizesSegmentForPlainText(t *testing.T) {
	backend := &fakeBackend{responses: map[string]speech.Response{
		"chunk_0_0.wav": {Text: "  just text  "},
	}}
	chunks := []chunking.Chunk{{Key: chunking.Key{}, Duration: 42.5}}
	results := transcription.NewDispatcher(backend, 1, nil).DispatchAll(context.Background(), chunks, "")
	want := []speech.Segment{{Start: 0, End: 42.5, Text: "just text"}}
	if got := results[chunking.Key{}].Segments; !reflect.DeepEqual(got, want) {
		t.Fatalf("segments = %+v, want %+v", got, want)
	}
}

func TestReassembleIsDeterministicUnderPermutedCompletion(t *testing.T) {
	chunks := threeChunks()
	var baseline transcription.Transcript
	for run := 0; run < 6; run++ {
		delays := map[string]time.Duration{}
		for i, c := range chunks {
			// Rotate which chunk finishes first on every run.
			delays[transcription.ChunkFilename(c.Key)] = time.Duration((i+run)%3) * 5 * time.Millisecond
		}
		backend := &fakeBackend{responses: okResponses(), delays: delays}
		results := transcription.NewDispatcher(backend, 3, nil).DispatchAll(context.Background(), chunks, "")
		got := transcription.Reassemble(results, chunks, "")
		if run == 0 {
			baseline = got
			continue
		}
		if !reflect.DeepEqual(got, baseline) {
			t.Fatalf("run %d differs:\n%+v\nvs\n%+v", run, got, baseline)
		}
	}
	if baseline.Text != "first part second part third part" {
		t.Fatalf("unexpected text %q", baseline.Text)
	}
	starts := []float64{}
	for _, seg := range baseline.Segments {
		starts = append(starts, seg.Start)
	}
	if !reflect.DeepEqual(starts, []float64{1, 600, 1205}) {
		t.Fatalf("unexpected offsets %v", starts)
	}
	if fmt.Sprint(baseline.Language) != "en" {
		t.Fatalf("unexpected language %q", baseline.Language)
	}
}
