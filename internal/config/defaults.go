package config

const (
	defaultConfigPath           = "~/.config/scribe/config.toml"
	defaultStateDir             = "~/.local/share/scribe"
	defaultWorkDir              = "~/.local/share/scribe/work"
	defaultLogDir               = "~/.local/share/scribe/logs"
	defaultAPIBind              = "127.0.0.1:7490"
	defaultSpeechBackend        = "openai"
	defaultSpeechModel          = "gpt-4o-mini-transcribe"
	defaultSpeechTimeoutSeconds = 300
	defaultWhisperXModel        = "large-v3-turbo"
	defaultWhisperXVADMethod    = "silero"
	defaultMaxUploadBytes       = 24 * 1024 * 1024
	defaultChunkSeconds         = 600
	defaultWorkers              = 4
	defaultMaxRequestBytes      = 512 * 1024 * 1024
	defaultDecoder              = "auto"
	defaultFFmpegBinary         = "ffmpeg"
	defaultGapThreshold         = 1.0
	defaultMaxSpeakers          = 4
	defaultMinGapThreshold      = 0.2
	defaultMaxGapThreshold      = 5.0
	defaultMaxSpeakersLimit     = 8
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			WorkDir:  defaultWorkDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		Speech: Speech{
			Backend:           defaultSpeechBackend,
			Model:             defaultSpeechModel,
			TimeoutSeconds:    defaultSpeechTimeoutSeconds,
			WhisperXModel:     defaultWhisperXModel,
			WhisperXVADMethod: defaultWhisperXVADMethod,
		},
		Pipeline: Pipeline{
			MaxUploadBytes:  defaultMaxUploadBytes,
			ChunkSeconds:    defaultChunkSeconds,
			Workers:         defaultWorkers,
			MaxRequestBytes: defaultMaxRequestBytes,
		},
		Audio: Audio{
			Decoder:      defaultDecoder,
			FFmpegBinary: defaultFFmpegBinary,
		},
		Speakers: Speakers{
			DefaultGapThreshold: defaultGapThreshold,
			DefaultMaxSpeakers:  defaultMaxSpeakers,
			MinGapThreshold:     defaultMinGapThreshold,
			MaxGapThreshold:     defaultMaxGapThreshold,
			MaxSpeakersLimit:    defaultMaxSpeakersLimit,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
