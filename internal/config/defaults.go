package config

const (
	defaultDataDir  = "~/.local/share/briefcast"
	defaultWorkDir  = "~/.local/share/briefcast/work"
	defaultAudioDir = "~/.local/share/briefcast/audio"
	defaultLogDir   = "~/.local/share/briefcast/logs"

	defaultYouTubeBaseURL = "https://www.googleapis.com/youtube/v3"
	defaultYouTubeTimeout = 15

	defaultYtDlpBinary     = "yt-dlp"
	defaultFFmpegBinary    = "ffmpeg"
	defaultDenoiseMix      = 0.9
	defaultSpeechExpansion = 25.0
	defaultSafetyLimitDB   = -1.0
	defaultAcquireTimeout  = 900

	defaultWhisperXModel = "small"

	defaultLLMBaseURL        = "https://api.groq.com/openai/v1"
	defaultLLMModel          = "llama-3.3-70b-versatile"
	defaultLLMEmbeddingModel = "nomic-embed-text"
	defaultLLMTimeoutSeconds = 120

	defaultTTSBaseURL        = "https://texttospeech.googleapis.com/v1"
	defaultTTSVoice          = "en-US-Standard-C"
	defaultTTSLanguageCode   = "en-US"
	defaultTTSTimeoutSeconds = 60

	defaultIndexBaseURL    = "http://127.0.0.1:8000"
	defaultIndexCollection = "briefcast_transcripts"
	defaultChunkSize       = 1000
	defaultChunkOverlap    = 200

	defaultWorkerCount        = 2
	defaultPollInterval       = 5
	defaultErrorRetryInterval = 10
	defaultLeaseTimeout       = 3600

	defaultNtfyRequestTimeout = 10

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			WorkDir:  defaultWorkDir,
			AudioDir: defaultAudioDir,
			LogDir:   defaultLogDir,
		},
		YouTube: YouTube{
			BaseURL:        defaultYouTubeBaseURL,
			TimeoutSeconds: defaultYouTubeTimeout,
		},
		Audio: Audio{
			YtDlpBinary:     defaultYtDlpBinary,
			FFmpegBinary:    defaultFFmpegBinary,
			DenoiseMix:      defaultDenoiseMix,
			SpeechExpansion: defaultSpeechExpansion,
			SafetyLimitDB:   defaultSafetyLimitDB,
			AcquireTimeout:  defaultAcquireTimeout,
		},
		WhisperX: WhisperX{
			Model:    defaultWhisperXModel,
			Language: "en",
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			EmbeddingModel: defaultLLMEmbeddingModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		TTS: TTS{
			BaseURL:        defaultTTSBaseURL,
			Voice:          defaultTTSVoice,
			LanguageCode:   defaultTTSLanguageCode,
			TimeoutSeconds: defaultTTSTimeoutSeconds,
		},
		Index: Index{
			BaseURL:      defaultIndexBaseURL,
			Collection:   defaultIndexCollection,
			ChunkSize:    defaultChunkSize,
			ChunkOverlap: defaultChunkOverlap,
		},
		Workers: Workers{
			Count:              defaultWorkerCount,
			PollInterval:       defaultPollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			LeaseTimeout:       defaultLeaseTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
