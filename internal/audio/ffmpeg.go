package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"scribe/internal/fileutil"
)

// CommandRunner executes an external command. Tests substitute a fake.
type CommandRunner func(ctx context.Context, name string, args ...string) error

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// buildFFmpegArgs converts any input ffmpeg understands into raw mono
// 16 kHz signed 16-bit little-endian PCM.
func buildFFmpegArgs(source, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", strconv.Itoa(TargetSampleRate),
		"-f", "s16le",
		"-c:a", "pcm_s16le",
		dest,
	}
}

// decodeFFmpeg writes data to a scratch directory under workDir, runs ffmpeg,
// and reads back the raw PCM.
func (n *Normalizer) decodeFFmpeg(ctx context.Context, data []byte) ([]int16, error) {
	scratch, err := fileutil.NewScratch(n.cfg.WorkDir, "decode-*")
	if err != nil {
		return nil, err
	}
	defer scratch.Close()

	source, err := scratch.WriteFile("input", data)
	if err != nil {
		return nil, err
	}
	dest := scratch.Path("output.pcm")

	if err := n.run(ctx, n.cfg.FFmpegBinary, buildFFmpegArgs(source, dest)...); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(dest)
	if err != nil {
		return nil, fmt.Errorf("read ffmpeg output: %w", err)
	}
	return pcmFromBytes(raw), nil
}

func pcmFromBytes(raw []byte) []int16 {
	samples := make([]int16, len(raw)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return samples
}
