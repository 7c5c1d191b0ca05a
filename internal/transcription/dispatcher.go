package transcription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"scribe/internal/chunking"
	"scribe/internal/logging"
	"scribe/internal/services"
	"scribe/internal/speech"
)

// DefaultWorkers is the pool width used when none is configured.
const DefaultWorkers = 4

// Dispatcher fans chunks out to a speech backend with bounded concurrency.
type Dispatcher struct {
	backend speech.Backend
	workers int
	logger  *slog.Logger
}

// NewDispatcher wraps backend with a pool of the given width.
func NewDispatcher(backend speech.Backend, workers int, logger *slog.Logger) *Dispatcher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Dispatcher{
		backend: backend,
		workers: workers,
		logger:  logging.NewComponentLogger(logger, "dispatcher"),
	}
}

// ChunkFilename is the upload name used for a chunk.
func ChunkFilename(key chunking.Key) string {
	return fmt.Sprintf("chunk_%d_%d.wav", key.Parent, key.Sub)
}

// DispatchAll transcribes every chunk and waits for all of them. Failures,
// including panics inside the backend, are captured per chunk and never stop
// siblings. Caller cancellation is ignored once dispatch starts; per-call
// deadlines belong to the backend.
func (d *Dispatcher) DispatchAll(ctx context.Context, chunks []chunking.Chunk, languageHint string) map[chunking.Key]ChunkResult {
	out := make(map[chunking.Key]ChunkResult, len(chunks))
	if len(chunks) == 0 {
		return out
	}
	ctx = context.WithoutCancel(ctx)

	results := make(chan ChunkResult, len(chunks))
	var g errgroup.Group
	g.SetLimit(d.workers)
	for _, chunk := range chunks {
		g.Go(func() error {
			results <- d.transcribeChunk(ctx, chunk, languageHint)
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	for result := range results {
		out[result.Key] = result
	}
	return out
}

func (d *Dispatcher) transcribeChunk(ctx context.Context, chunk chunking.Chunk, languageHint string) (result ChunkResult) {
	result = ChunkResult{Key: chunk.Key, Index: chunk.Index}
	logger := logging.WithContext(ctx, d.logger).With(
		logging.Int(logging.FieldChunk, chunk.Index),
		logging.String("key", chunk.Key.String()),
	)
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			result = ChunkResult{
				Key:   chunk.Key,
				Index: chunk.Index,
				Err:   services.Wrap(services.ErrBackend, "dispatcher", "transcribe", fmt.Sprintf("backend panic: %v", rec), nil),
			}
		}
		if result.Err != nil {
			logger.Warn("chunk transcription failed",
				logging.String(logging.FieldEventType, "chunk_failed"),
				logging.Error(result.Err),
				logging.Duration("elapsed", time.Since(start)),
			)
		}
	}()

	resp, err := d.backend.Transcribe(ctx, speech.Request{
		Audio:    chunk.Payload,
		Filename: ChunkFilename(chunk.Key),
		Language: languageHint,
	})
	if err != nil {
		if !errors.Is(err, services.ErrBackend) {
			err = services.Wrap(services.ErrBackend, "dispatcher", "transcribe", d.backend.Name(), err)
		}
		result.Err = err
		return result
	}

	result.Text = strings.TrimSpace(resp.Text)
	result.Language = resp.Language
	result.Segments = resp.Segments
	if len(result.Segments) == 0 && result.Text != "" {
		result.Segments = []speech.Segment{{Start: 0, End: chunk.Duration, Text: result.Text}}
	}

	logger.Debug("chunk transcribed",
		logging.Int("segments", len(result.Segments)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return result
}
