package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/services"
	"scribe/internal/speech"
)

// BackendName is the speech.backend value selecting this backend.
const BackendName = "openai"

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini-transcribe"

func init() {
	speech.Register(BackendName, func(cfg *config.Config, logger *slog.Logger) (speech.Backend, error) {
		return New(Config{
			APIKey:  cfg.Speech.APIKey,
			BaseURL: cfg.Speech.BaseURL,
			Model:   cfg.Speech.Model,
			Timeout: cfg.SpeechTimeout(),
		}, logger)
	})
}

// Config captures connection settings for an OpenAI-compatible transcription API.
type Config struct {
	APIKey string
	// BaseURL overrides the API root, e.g. "http://localhost:8000/v1".
	BaseURL string
	Model   string
	// Timeout bounds each transcription call.
	Timeout time.Duration
	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// Backend transcribes chunks through the audio transcriptions endpoint.
type Backend struct {
	client  *goopenai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// New validates credentials and builds the client. No network calls are made.
func New(cfg Config, logger *slog.Logger) (*Backend, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "openai", "new backend",
			"api key required (set speech.api_key or OPENAI_API_KEY)", nil)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	clientCfg := goopenai.DefaultConfig(apiKey)
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		clientCfg.BaseURL = base
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}

	return &Backend{
		client:  goopenai.NewClientWithConfig(clientCfg),
		model:   model,
		timeout: cfg.Timeout,
		logger:  logging.NewComponentLogger(logger, "openai"),
	}, nil
}

// Name identifies the backend and model for logs and job records.
func (b *Backend) Name() string {
	return BackendName + ":" + b.model
}

// WantsSegments reports whether the model returns segment timings. Only the
// whisper family supports verbose_json; newer transcribe models reject it.
func (b *Backend) WantsSegments() bool {
	return strings.Contains(strings.ToLower(b.model), "whisper")
}

// Transcribe uploads one WAV file.
func (b *Backend) Transcribe(ctx context.Context, req speech.Request) (speech.Response, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	format := goopenai.AudioResponseFormatJSON
	if b.WantsSegments() {
		format = goopenai.AudioResponseFormatVerboseJSON
	}
	filename := req.Filename
	if filename == "" {
		filename = "audio.wav"
	}

	resp, err := b.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    b.model,
		FilePath: filename,
		Reader:   bytes.NewReader(req.Audio),
		Language: req.Language,
		Format:   format,
	})
	if err != nil {
		return speech.Response{}, services.Wrap(services.ErrBackend, "openai", "transcribe", describeError(err), err)
	}

	out := speech.Response{
		Text:     strings.TrimSpace(resp.Text),
		Language: resp.Language,
	}
	if len(resp.Segments) > 0 {
		out.Segments = make([]speech.Segment, 0, len(resp.Segments))
		for _, seg := range resp.Segments {
			out.Segments = append(out.Segments, speech.Segment{Start: seg.Start, End: seg.End, Text: seg.Text})
		}
	}
	logging.WithContext(ctx, b.logger).Debug("transcription received",
		logging.String("file", filename),
		logging.String("format", string(format)),
		logging.Int("segments", len(out.Segments)),
	)
	return out, nil
}

func describeError(err error) string {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("api error (status %d)", apiErr.HTTPStatusCode)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Sprintf("request failed (status %d)", reqErr.HTTPStatusCode)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	return "request failed"
}
