package whisperx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"scribe/internal/services"
	"scribe/internal/speech"
)

func fakeRunner(t *testing.T, output string, calls *[][]string) CommandRunner {
	t.Helper()
	return func(_ context.Context, name string, args ...string) error {
		*calls = append(*calls, append([]string{name}, args...))
		source := args[slices.Index(args, "whisperx")+1]
		outDir := args[slices.Index(args, "--output_dir")+1]
		if _, err := os.Stat(source); err != nil {
			t.Errorf("expected chunk on disk: %v", err)
		}
		base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
		return os.WriteFile(filepath.Join(outDir, base+".json"), []byte(output), 0o644)
	}
}

func TestTranscribeParsesSegments(t *testing.T) {
	var calls [][]string
	backend, err := New(Config{WorkDir: t.TempDir()}, 0, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	backend.WithCommandRunner(fakeRunner(t, `{"language":"en","segments":[
		{"start":0.5,"end":1.25,"text":" Good morning. "},
		{"start":1.5,"end":2.0,"text":"  "},
		{"start":2.5,"end":3.0,"text":"Let's begin."}]}`, &calls))

	resp, err := backend.Transcribe(context.Background(), speech.Request{
		Audio:    []byte("RIFF"),
		Filename: "chunk_2_1.wav",
		Language: "english",
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if resp.Text != "Good morning. Let's begin." {
		t.Fatalf("unexpected text %q", resp.Text)
	}
	if resp.Language != "en" || len(resp.Segments) != 3 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Segments[0].Start != 0.5 || resp.Segments[0].Text != "Good morning." {
		t.Fatalf("unexpected first segment %+v", resp.Segments[0])
	}

	args := calls[0]
	if args[0] != UVXCommand {
		t.Fatalf("expected uvx, got %q", args[0])
	}
	idx := slices.Index(args, "--language")
	if idx < 0 || args[idx+1] != "en" {
		t.Fatalf("expected normalized language arg in %v", args)
	}
	if !slices.Contains(args, "--compute_type") {
		t.Fatalf("expected CPU compute type in %v", args)
	}
}

func TestBuildArgsCUDAAndPyannote(t *testing.T) {
	backend, err := New(Config{CUDAEnabled: true, VADMethod: VADMethodPyannote, HFToken: "hf_x"}, 0, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	args := backend.buildArgs("/tmp/a.wav", "/tmp", "")
	for _, want := range []string{"--extra-index-url", CUDADevice, "--hf_token", "hf_x"} {
		if !slices.Contains(args, want) {
			t.Fatalf("expected %q in %v", want, args)
		}
	}
	if slices.Contains(args, "--language") {
		t.Fatalf("did not expect language flag for auto-detect: %v", args)
	}
}

func TestNewRequiresTokenForPyannote(t *testing.T) {
	_, err := New(Config{VADMethod: VADMethodPyannote}, 0, nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestTranscribeRunnerFailureIsBackendError(t *testing.T) {
	backend, err := New(Config{WorkDir: t.TempDir()}, 0, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	backend.WithCommandRunner(func(context.Context, string, ...string) error {
		return errors.New("uvx: exit status 1: CUDA out of memory")
	})
	_, err = backend.Transcribe(context.Background(), speech.Request{Audio: []byte("RIFF"), Filename: "chunk_0_0.wav"})
	if !errors.Is(err, services.ErrBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if !strings.Contains(err.Error(), "CUDA out of memory") {
		t.Fatalf("expected runner output in error, got %v", err)
	}
}
