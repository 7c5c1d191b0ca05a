package speech_test

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"testing"

	"scribe/internal/config"
	"scribe/internal/services"
	"scribe/internal/speech"
)

type stubBackend struct{ name string }

func (s stubBackend) Transcribe(context.Context, speech.Request) (speech.Response, error) {
	return speech.Response{Text: "ok"}, nil
}

func (s stubBackend) Name() string { return s.name }

func TestNewSelectsRegisteredBackend(t *testing.T) {
	speech.Register("stub", func(cfg *config.Config, _ *slog.Logger) (speech.Backend, error) {
		return stubBackend{name: "stub:" + cfg.Speech.Model}, nil
	})
	if !slices.Contains(speech.Registered(), "stub") {
		t.Fatalf("expected stub in %v", speech.Registered())
	}

	cfg := config.Default()
	cfg.Speech.Backend = "stub"
	backend, err := speech.New(&cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if backend.Name() != "stub:"+cfg.Speech.Model {
		t.Fatalf("unexpected backend %q", backend.Name())
	}
}

func TestNewUnknownBackendIsConfigurationError(t *testing.T) {
	cfg := config.Default()
	cfg.Speech.Backend = "carrier-pigeon"
	if _, err := speech.New(&cfg, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, err := speech.New(nil, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for nil config, got %v", err)
	}
}
