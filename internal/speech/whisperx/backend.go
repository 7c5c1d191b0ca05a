package whisperx

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"scribe/internal/config"
	"scribe/internal/fileutil"
	langpkg "scribe/internal/language"
	"scribe/internal/logging"
	"scribe/internal/services"
	"scribe/internal/speech"
)

// BackendName is the speech.backend value selecting this backend.
const BackendName = "whisperx"

func init() {
	speech.Register(BackendName, func(cfg *config.Config, logger *slog.Logger) (speech.Backend, error) {
		return New(Config{
			Model:       cfg.Speech.WhisperXModel,
			CUDAEnabled: cfg.Speech.WhisperXCUDAEnabled,
			VADMethod:   cfg.Speech.WhisperXVADMethod,
			HFToken:     cfg.Speech.WhisperXHuggingFace,
			WorkDir:     cfg.Paths.WorkDir,
		}, cfg.SpeechTimeout(), logger)
	})
}

// CommandRunner executes an external command. Tests substitute a fake.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Backend runs WhisperX locally through uvx, one process per chunk.
type Backend struct {
	cfg           Config
	timeout       time.Duration
	logger        *slog.Logger
	commandRunner CommandRunner
}

// New creates a WhisperX backend. pyannote VAD needs a Hugging Face token.
func New(cfg Config, timeout time.Duration, logger *slog.Logger) (*Backend, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.VADMethod == "" {
		cfg.VADMethod = VADMethodSilero
	}
	if cfg.VADMethod == VADMethodPyannote && strings.TrimSpace(cfg.HFToken) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "whisperx", "new backend",
			"pyannote VAD requires a Hugging Face token (speech.whisperx_hf_token or HF_TOKEN)", nil)
	}
	return &Backend{
		cfg:     cfg,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "whisperx"),
	}, nil
}

// WithCommandRunner sets a custom command runner (for testing).
func (b *Backend) WithCommandRunner(runner CommandRunner) {
	b.commandRunner = runner
}

// Name identifies the backend and model for logs and job records.
func (b *Backend) Name() string {
	return BackendName + ":" + b.cfg.Model
}

func (b *Backend) run(ctx context.Context, name string, args ...string) error {
	if b.commandRunner != nil {
		return b.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Transcribe writes the chunk to a scratch directory, runs WhisperX on it,
// and parses the JSON it leaves behind.
func (b *Backend) Transcribe(ctx context.Context, req speech.Request) (speech.Response, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	scratch, err := fileutil.NewScratch(b.cfg.WorkDir, "whisperx-*")
	if err != nil {
		return speech.Response{}, services.Wrap(services.ErrBackend, "whisperx", "prepare", "scratch dir", err)
	}
	defer scratch.Close()
	dir := scratch.Dir

	name := fileutil.SafeName(req.Filename, "audio.wav")
	source, err := scratch.WriteFile(name, req.Audio)
	if err != nil {
		return speech.Response{}, services.Wrap(services.ErrBackend, "whisperx", "prepare", "write chunk", err)
	}

	start := time.Now()
	if err := b.run(ctx, UVXCommand, b.buildArgs(source, dir, req.Language)...); err != nil {
		return speech.Response{}, services.Wrap(services.ErrBackend, "whisperx", "transcribe", name, err)
	}

	jsonPath := filepath.Join(dir, strings.TrimSuffix(name, filepath.Ext(name))+".json")
	payload, err := loadPayload(jsonPath)
	if err != nil {
		return speech.Response{}, services.Wrap(services.ErrBackend, "whisperx", "parse output", name, err)
	}

	resp := speech.Response{Language: payload.Language, Segments: make([]speech.Segment, 0, len(payload.Segments))}
	parts := make([]string, 0, len(payload.Segments))
	for _, seg := range payload.Segments {
		text := strings.TrimSpace(seg.Text)
		resp.Segments = append(resp.Segments, speech.Segment{Start: seg.Start, End: seg.End, Text: text})
		if text != "" {
			parts = append(parts, text)
		}
	}
	resp.Text = strings.Join(parts, " ")

	logging.WithContext(ctx, b.logger).Debug("whisperx run complete",
		logging.String("file", name),
		logging.Int("segments", len(resp.Segments)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (b *Backend) buildArgs(source, outputDir, language string) []string {
	args := make([]string, 0, 40)

	if b.cfg.CUDAEnabled {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args,
		"whisperx",
		source,
		"--model", b.cfg.Model,
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--segment_resolution", SegmentResolution,
		"--chunk_size", ChunkSize,
		"--beam_size", BeamSize,
		"--temperature", Temperature,
		"--vad_method", b.cfg.VADMethod,
	)
	if b.cfg.VADMethod == VADMethodPyannote {
		args = append(args, "--hf_token", b.cfg.HFToken)
	}

	if lang := langpkg.ToISO2(language); lang != "" {
		args = append(args, "--language", lang)
	}

	if b.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}

	return args
}

type segmentPayload struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type outputPayload struct {
	Segments []segmentPayload `json:"segments"`
	Language string           `json:"language"`
}

func loadPayload(path string) (outputPayload, error) {
	var payload outputPayload
	data, err := os.ReadFile(path)
	if err != nil {
		return payload, err
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, fmt.Errorf("parse whisperx json: %w", err)
	}
	return payload, nil
}
