package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSpeech()
	c.normalizePipeline()
	c.normalizeAudio()
	c.normalizeSpeakers()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("SCRIBE_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeSpeech() {
	c.Speech.Backend = strings.ToLower(strings.TrimSpace(c.Speech.Backend))
	if c.Speech.Backend == "" {
		c.Speech.Backend = defaultSpeechBackend
	}
	c.Speech.Model = strings.TrimSpace(c.Speech.Model)
	if c.Speech.Model == "" {
		c.Speech.Model = defaultSpeechModel
	}
	c.Speech.BaseURL = strings.TrimRight(strings.TrimSpace(c.Speech.BaseURL), "/")
	c.Speech.APIKey = strings.TrimSpace(c.Speech.APIKey)
	if c.Speech.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.Speech.APIKey = strings.TrimSpace(value)
		}
	}
	if c.Speech.TimeoutSeconds <= 0 {
		c.Speech.TimeoutSeconds = defaultSpeechTimeoutSeconds
	}
	c.Speech.WhisperXModel = strings.TrimSpace(c.Speech.WhisperXModel)
	if c.Speech.WhisperXModel == "" {
		c.Speech.WhisperXModel = defaultWhisperXModel
	}
	c.Speech.WhisperXVADMethod = strings.ToLower(strings.TrimSpace(c.Speech.WhisperXVADMethod))
	if c.Speech.WhisperXVADMethod == "" {
		c.Speech.WhisperXVADMethod = defaultWhisperXVADMethod
	}
	c.Speech.WhisperXHuggingFace = strings.TrimSpace(c.Speech.WhisperXHuggingFace)
	if c.Speech.WhisperXHuggingFace == "" {
		if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			c.Speech.WhisperXHuggingFace = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.Speech.WhisperXHuggingFace = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.MaxUploadBytes == 0 {
		c.Pipeline.MaxUploadBytes = defaultMaxUploadBytes
	}
	if c.Pipeline.ChunkSeconds == 0 {
		c.Pipeline.ChunkSeconds = defaultChunkSeconds
	}
	if c.Pipeline.Workers == 0 {
		c.Pipeline.Workers = defaultWorkers
	}
	if c.Pipeline.MaxRequestBytes == 0 {
		c.Pipeline.MaxRequestBytes = defaultMaxRequestBytes
	}
}

func (c *Config) normalizeAudio() {
	c.Audio.Decoder = strings.ToLower(strings.TrimSpace(c.Audio.Decoder))
	if c.Audio.Decoder == "" {
		c.Audio.Decoder = defaultDecoder
	}
	c.Audio.FFmpegBinary = strings.TrimSpace(c.Audio.FFmpegBinary)
	if c.Audio.FFmpegBinary == "" {
		c.Audio.FFmpegBinary = defaultFFmpegBinary
	}
}

func (c *Config) normalizeSpeakers() {
	if c.Speakers.DefaultGapThreshold == 0 {
		c.Speakers.DefaultGapThreshold = defaultGapThreshold
	}
	if c.Speakers.DefaultMaxSpeakers == 0 {
		c.Speakers.DefaultMaxSpeakers = defaultMaxSpeakers
	}
	if c.Speakers.MinGapThreshold == 0 {
		c.Speakers.MinGapThreshold = defaultMinGapThreshold
	}
	if c.Speakers.MaxGapThreshold == 0 {
		c.Speakers.MaxGapThreshold = defaultMaxGapThreshold
	}
	if c.Speakers.MaxSpeakersLimit == 0 {
		c.Speakers.MaxSpeakersLimit = defaultMaxSpeakersLimit
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
