package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"scribe/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "scribe")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7490" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Speech.APIKey != "env-key" {
		t.Fatalf("expected API key from env, got %q", cfg.Speech.APIKey)
	}
	if cfg.Speech.Backend != "openai" {
		t.Fatalf("unexpected backend: %q", cfg.Speech.Backend)
	}
	if cfg.Pipeline.MaxUploadBytes != 24*1024*1024 {
		t.Fatalf("unexpected upload budget: %d", cfg.Pipeline.MaxUploadBytes)
	}
	if cfg.Pipeline.ChunkSeconds != 600 {
		t.Fatalf("unexpected chunk seconds: %d", cfg.Pipeline.ChunkSeconds)
	}
	if cfg.Pipeline.Workers != 4 {
		t.Fatalf("unexpected workers: %d", cfg.Pipeline.Workers)
	}
	if cfg.Speakers.DefaultGapThreshold != 1.0 || cfg.Speakers.DefaultMaxSpeakers != 4 {
		t.Fatalf("unexpected speaker defaults: %+v", cfg.Speakers)
	}
	if cfg.SpeechTimeout() != 300*time.Second {
		t.Fatalf("unexpected speech timeout: %s", cfg.SpeechTimeout())
	}
	if cfg.DatabasePath() != filepath.Join(wantState, "jobs.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.WorkDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "scribe.toml")

	type payload struct {
		Speech struct {
			Backend string `toml:"backend"`
			APIKey  string `toml:"api_key"`
			BaseURL string `toml:"base_url"`
		} `toml:"speech"`
		Pipeline struct {
			Workers      int `toml:"workers"`
			ChunkSeconds int `toml:"chunk_seconds"`
		} `toml:"pipeline"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Speech.Backend = "WhisperX"
	custom.Speech.APIKey = "abc123"
	custom.Speech.BaseURL = "http://localhost:8000/v1/"
	custom.Pipeline.Workers = 2
	custom.Pipeline.ChunkSeconds = 120
	custom.Logging.Format = "JSON"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Speech.Backend != "whisperx" {
		t.Fatalf("expected backend to be lowercased, got %q", cfg.Speech.Backend)
	}
	if cfg.Speech.APIKey != "abc123" {
		t.Fatalf("expected API key from file, got %q", cfg.Speech.APIKey)
	}
	if cfg.Speech.BaseURL != "http://localhost:8000/v1" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Speech.BaseURL)
	}
	if cfg.Pipeline.Workers != 2 || cfg.Pipeline.ChunkSeconds != 120 {
		t.Fatalf("unexpected pipeline overrides: %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.MaxUploadBytes != config.Default().Pipeline.MaxUploadBytes {
		t.Fatalf("expected default upload budget, got %d", cfg.Pipeline.MaxUploadBytes)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json log format, got %q", cfg.Logging.Format)
	}
}

func TestConfigFileKeyWinsOverEnv(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "scribe.toml")
	contents := "[speech]\napi_key = \"file-key\"\n[paths]\napi_token = \"file-token\"\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("SCRIBE_API_TOKEN", "env-token")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Speech.APIKey != "file-key" {
		t.Errorf("expected file key to win, got %q", cfg.Speech.APIKey)
	}
	if cfg.Paths.APIToken != "file-token" {
		t.Errorf("expected file token to win, got %q", cfg.Paths.APIToken)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_openai_api_key_here") {
		t.Fatalf("sample config missing placeholder API key: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.StateDir, "scribe") {
		t.Fatalf("expected state dir to contain scribe, got %q", cfg.Paths.StateDir)
	}
	if cfg.Pipeline.MaxUploadBytes != config.Default().Pipeline.MaxUploadBytes {
		t.Fatalf("sample upload budget drifted from default: %d", cfg.Pipeline.MaxUploadBytes)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown backend", func(c *config.Config) { c.Speech.Backend = "cloud" }},
		{"unknown vad", func(c *config.Config) { c.Speech.WhisperXVADMethod = "webrtc" }},
		{"negative workers", func(c *config.Config) { c.Pipeline.Workers = -1 }},
		{"zero chunk seconds", func(c *config.Config) { c.Pipeline.ChunkSeconds = 0 }},
		{"tiny upload budget", func(c *config.Config) { c.Pipeline.MaxUploadBytes = 44 }},
		{"unknown decoder", func(c *config.Config) { c.Audio.Decoder = "gstreamer" }},
		{"gap default out of range", func(c *config.Config) { c.Speakers.DefaultGapThreshold = 9 }},
		{"max speakers out of range", func(c *config.Config) { c.Speakers.DefaultMaxSpeakers = 12 }},
		{"inverted gap bounds", func(c *config.Config) { c.Speakers.MaxGapThreshold = 0.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}
