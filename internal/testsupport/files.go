package testsupport

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"scribe/internal/audio"
)

// Tone returns n samples of a 440 Hz sine at the target sample rate.
func Tone(n int) []int16 {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(8000 * math.Sin(2*math.Pi*440*float64(i)/audio.TargetSampleRate))
	}
	return samples
}

// ToneWAV encodes seconds of tone as a mono 16 kHz WAV file.
func ToneWAV(t testing.TB, seconds float64) []byte {
	t.Helper()

	data, err := audio.EncodeWAV(Tone(int(seconds*audio.TargetSampleRate)), audio.TargetSampleRate)
	if err != nil {
		t.Fatalf("encode wav: %v", err)
	}
	return data
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
