package transcription

import (
	"context"
	"log/slog"
	"time"

	"scribe/internal/audio"
	"scribe/internal/chunking"
	"scribe/internal/config"
	"scribe/internal/language"
	"scribe/internal/logging"
	"scribe/internal/speech"
)

// Normalizer decodes uploads into mono 16 kHz PCM.
type Normalizer interface {
	Normalize(ctx context.Context, buf audio.Buffer) (audio.Normalized, error)
}

// Report summarizes one Transcribe call for logs and the job ledger.
type Report struct {
	Backend       string
	AudioSeconds  float64
	Chunks        int
	FailedChunks  int
	LanguageHint  string
	Elapsed       time.Duration
	DispatchTime  time.Duration
	NormalizeTime time.Duration
}

// Transcriber runs the full pipeline: normalize, plan, dispatch, reassemble.
type Transcriber struct {
	normalizer Normalizer
	planner    *chunking.Planner
	dispatcher *Dispatcher
	backend    string
	logger     *slog.Logger
}

// NewTranscriber assembles a pipeline from its parts.
func NewTranscriber(normalizer Normalizer, planner *chunking.Planner, dispatcher *Dispatcher, logger *slog.Logger) *Transcriber {
	backend := ""
	if dispatcher != nil && dispatcher.backend != nil {
		backend = dispatcher.backend.Name()
	}
	return &Transcriber{
		normalizer: normalizer,
		planner:    planner,
		dispatcher: dispatcher,
		backend:    backend,
		logger:     logging.NewComponentLogger(logger, "transcriber"),
	}
}

// NewFromConfig wires the default normalizer and planner around backend.
func NewFromConfig(cfg *config.Config, backend speech.Backend, logger *slog.Logger) (*Transcriber, error) {
	planner, err := chunking.NewPlanner(cfg.Pipeline.MaxUploadBytes, cfg.Pipeline.ChunkSeconds)
	if err != nil {
		return nil, err
	}
	normalizer := audio.NewNormalizer(audio.Config{
		Decoder:      cfg.Audio.Decoder,
		FFmpegBinary: cfg.FFmpegBinary(),
		WorkDir:      cfg.Paths.WorkDir,
	}, logger)
	dispatcher := NewDispatcher(backend, cfg.Pipeline.Workers, logger)
	return NewTranscriber(normalizer, planner, dispatcher, logger), nil
}

// Transcribe turns an uploaded recording into a transcript. The hint may be
// empty or "auto" for auto-detection. Decode and configuration problems abort
// the request; chunk failures are reported inside the transcript.
func (t *Transcriber) Transcribe(ctx context.Context, buf audio.Buffer, languageHint string) (Transcript, Report, error) {
	start := time.Now()
	report := Report{Backend: t.backend}

	hint, err := language.ParseHint(languageHint)
	if err != nil {
		return Transcript{}, report, err
	}
	report.LanguageHint = hint

	normalized, err := t.normalizer.Normalize(ctx, buf)
	if err != nil {
		return Transcript{}, report, err
	}
	report.NormalizeTime = time.Since(start)
	report.AudioSeconds = normalized.Duration()

	chunks, err := t.planner.Plan(normalized)
	if err != nil {
		return Transcript{}, report, err
	}
	report.Chunks = len(chunks)

	dispatchStart := time.Now()
	results := t.dispatcher.DispatchAll(ctx, chunks, hint)
	report.DispatchTime = time.Since(dispatchStart)
	for _, result := range results {
		if result.Failed() {
			report.FailedChunks++
		}
	}

	transcript := Reassemble(results, chunks, hint)
	report.Elapsed = time.Since(start)

	logger := logging.WithContext(ctx, t.logger)
	attrs := []logging.Attr{
		logging.String("backend", report.Backend),
		logging.Float64("audio_seconds", report.AudioSeconds),
		logging.Int("chunks", report.Chunks),
		logging.Int("failed_chunks", report.FailedChunks),
		logging.Int("segments", len(transcript.Segments)),
		logging.String("language", transcript.Language),
		logging.Duration("elapsed", report.Elapsed),
	}
	if report.FailedChunks > 0 {
		attrs = append(attrs, logging.String(logging.FieldEventType, "partial_transcript"))
		logger.Warn("transcription completed with failed chunks", logging.Args(attrs...)...)
	} else {
		logger.Info("transcription completed", logging.Args(attrs...)...)
	}
	return transcript, report, nil
}
