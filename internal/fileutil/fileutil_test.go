package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScratchLifecycle(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "work")

	scratch, err := NewScratch(parent, "decode-*")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(scratch.Dir) != parent {
		t.Fatalf("scratch dir %q not under %q", scratch.Dir, parent)
	}

	path, err := scratch.WriteFile("../../etc/chunk_0_1.wav", []byte("RIFF"))
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(scratch.Dir, "chunk_0_1.wav") {
		t.Fatalf("unexpected path %q", path)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "RIFF" {
		t.Fatalf("content mismatch: %q", got)
	}

	if err := scratch.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(scratch.Dir); !os.IsNotExist(err) {
		t.Fatalf("expected scratch dir removed, stat err = %v", err)
	}
}

func TestSafeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"meeting.wav", "meeting.wav"},
		{"/tmp/x/meeting.wav", "meeting.wav"},
		{"", "input"},
		{".", "input"},
		{"..", "input"},
		{"/", "input"},
	}
	for _, tt := range tests {
		if got := SafeName(tt.in, "input"); got != tt.want {
			t.Errorf("SafeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCloseNilScratch(t *testing.T) {
	var s *Scratch
	if err := s.Close(); err != nil {
		t.Fatalf("Close on nil scratch: %v", err)
	}
}
