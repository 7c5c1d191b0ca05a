package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"scribe/internal/logging"
	"scribe/internal/services"
)

// Decoder modes.
const (
	DecoderAuto   = "auto"
	DecoderNative = "native"
	DecoderFFmpeg = "ffmpeg"
)

// Config captures normalizer settings.
type Config struct {
	// Decoder is DecoderAuto, DecoderNative or DecoderFFmpeg.
	Decoder      string
	FFmpegBinary string
	// WorkDir hosts scratch files for ffmpeg decoding. Empty uses the OS temp dir.
	WorkDir string
}

// Normalizer turns uploaded recordings into mono 16 kHz PCM.
type Normalizer struct {
	cfg           Config
	logger        *slog.Logger
	commandRunner CommandRunner
}

// NewNormalizer creates a normalizer with the given configuration.
func NewNormalizer(cfg Config, logger *slog.Logger) *Normalizer {
	cfg.Decoder = strings.ToLower(strings.TrimSpace(cfg.Decoder))
	if cfg.Decoder == "" {
		cfg.Decoder = DecoderAuto
	}
	if cfg.FFmpegBinary == "" {
		cfg.FFmpegBinary = "ffmpeg"
	}
	return &Normalizer{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "audio"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (n *Normalizer) WithCommandRunner(runner CommandRunner) {
	n.commandRunner = runner
}

func (n *Normalizer) run(ctx context.Context, name string, args ...string) error {
	if n.commandRunner != nil {
		return n.commandRunner(ctx, name, args...)
	}
	return runCommand(ctx, name, args...)
}

// Normalize decodes buf, downmixes to mono and resamples to 16 kHz. Any
// failure is reported as services.ErrDecode. A stream with zero samples is
// valid and yields zero-duration audio.
func (n *Normalizer) Normalize(ctx context.Context, buf Buffer) (Normalized, error) {
	if len(buf.Data) == 0 {
		return Normalized{}, services.Wrap(services.ErrDecode, "audio", "normalize", "empty audio payload", nil)
	}

	start := time.Now()
	format := Sniff(buf.Data)
	samples, decoder, err := n.decode(ctx, buf.Data, format)
	if err != nil {
		return Normalized{}, services.Wrap(services.ErrDecode, "audio", "normalize",
			fmt.Sprintf("decode %s", describe(buf.Filename, format)), err)
	}

	out := Normalized{Samples: samples, SampleRate: TargetSampleRate}
	logging.WithContext(ctx, n.logger).Info("audio normalized",
		logging.String("decoder", decoder),
		logging.String("format", string(format)),
		logging.Bytes("input_size", int64(len(buf.Data))),
		logging.Float64("duration_seconds", out.Duration()),
		logging.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

func (n *Normalizer) decode(ctx context.Context, data []byte, format Format) ([]int16, string, error) {
	switch n.cfg.Decoder {
	case DecoderNative:
		samples, err := decodeNative(data, format)
		return samples, DecoderNative, err
	case DecoderFFmpeg:
		samples, err := n.decodeFFmpeg(ctx, data)
		return samples, DecoderFFmpeg, err
	}

	if format != FormatUnknown {
		samples, err := decodeNative(data, format)
		if err == nil {
			return samples, DecoderNative, nil
		}
		logging.WithContext(ctx, n.logger).Debug("native decode failed; falling back to ffmpeg",
			logging.String("format", string(format)),
			logging.Error(err),
		)
		samples, ffErr := n.decodeFFmpeg(ctx, data)
		if ffErr != nil {
			return nil, DecoderFFmpeg, errors.Join(err, ffErr)
		}
		return samples, DecoderFFmpeg, nil
	}
	samples, err := n.decodeFFmpeg(ctx, data)
	return samples, DecoderFFmpeg, err
}

func describe(filename string, format Format) string {
	label := string(format)
	if label == "" {
		label = "unrecognized container"
	}
	if name := strings.TrimSpace(filename); name != "" {
		return fmt.Sprintf("%s (%s)", name, label)
	}
	return label
}
