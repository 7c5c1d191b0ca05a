package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. Missing speech credentials are
// not an error here; the backend reports them when it is constructed.
func (c *Config) Validate() error {
	if err := c.validateSpeech(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateSpeakers(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSpeech() error {
	switch c.Speech.Backend {
	case "openai", "whisperx":
	default:
		return fmt.Errorf("speech.backend must be \"openai\" or \"whisperx\", got %q", c.Speech.Backend)
	}
	switch c.Speech.WhisperXVADMethod {
	case "silero", "pyannote":
	default:
		return fmt.Errorf("speech.whisperx_vad_method must be \"silero\" or \"pyannote\", got %q", c.Speech.WhisperXVADMethod)
	}
	if c.Speech.TimeoutSeconds <= 0 {
		return errors.New("speech.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if err := ensurePositiveMap(map[string]int64{
		"pipeline.max_upload_bytes":  c.Pipeline.MaxUploadBytes,
		"pipeline.chunk_seconds":     int64(c.Pipeline.ChunkSeconds),
		"pipeline.workers":           int64(c.Pipeline.Workers),
		"pipeline.max_request_bytes": c.Pipeline.MaxRequestBytes,
	}); err != nil {
		return err
	}
	if c.Pipeline.MaxUploadBytes <= minUploadBytes {
		return fmt.Errorf("pipeline.max_upload_bytes must exceed %d bytes", minUploadBytes)
	}
	return nil
}

func (c *Config) validateAudio() error {
	switch c.Audio.Decoder {
	case "auto", "native", "ffmpeg":
		return nil
	default:
		return fmt.Errorf("audio.decoder must be one of auto, native, ffmpeg; got %q", c.Audio.Decoder)
	}
}

func (c *Config) validateSpeakers() error {
	s := c.Speakers
	if s.MinGapThreshold <= 0 {
		return errors.New("speakers.min_gap_threshold must be positive")
	}
	if s.MaxGapThreshold < s.MinGapThreshold {
		return errors.New("speakers.max_gap_threshold must be >= speakers.min_gap_threshold")
	}
	if s.DefaultGapThreshold < s.MinGapThreshold || s.DefaultGapThreshold > s.MaxGapThreshold {
		return fmt.Errorf("speakers.default_gap_threshold must be between %g and %g", s.MinGapThreshold, s.MaxGapThreshold)
	}
	if s.MaxSpeakersLimit < 1 {
		return errors.New("speakers.max_speakers_limit must be >= 1")
	}
	if s.DefaultMaxSpeakers < 1 || s.DefaultMaxSpeakers > s.MaxSpeakersLimit {
		return fmt.Errorf("speakers.default_max_speakers must be between 1 and %d", s.MaxSpeakersLimit)
	}
	return nil
}

// minUploadBytes is the size of a WAV header plus one 16-bit sample.
const minUploadBytes = 46

func ensurePositiveMap(values map[string]int64) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
