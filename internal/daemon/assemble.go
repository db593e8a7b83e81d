package daemon

import (
	"context"
	"log/slog"
	"time"

	"briefcast/internal/config"
	"briefcast/internal/digest"
	"briefcast/internal/enrich"
	"briefcast/internal/notifications"
	"briefcast/internal/pipeline"
	"briefcast/internal/records"
	"briefcast/internal/services/chroma"
	"briefcast/internal/services/ffmpeg"
	"briefcast/internal/services/llm"
	"briefcast/internal/services/tts"
	"briefcast/internal/services/whisperx"
	"briefcast/internal/services/ytdlp"
	"briefcast/internal/services/youtube"
	"briefcast/internal/speakerid"
	"briefcast/internal/summarize"
	"briefcast/internal/tasks"
)

// AssemblePool builds the worker pool with every task handler wired to the
// full service stack. The pool is returned stopped; the daemon starts it.
func AssemblePool(cfg *config.Config, store *records.Store, queue *tasks.Queue, logger *slog.Logger) *tasks.Pool {
	notifier := notifications.NewService(cfg)

	llmClient := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	summarizer := summarize.NewService(llmClient)

	pipe := pipeline.New(pipeline.Deps{
		Store: store,
		Metadata: youtube.NewClient(youtube.Config{
			APIKey:         cfg.YouTube.APIKey,
			BaseURL:        cfg.YouTube.BaseURL,
			TimeoutSeconds: cfg.YouTube.TimeoutSeconds,
		}),
		SpeakerID: speakerid.NewService(llmClient),
		Download:  ytdlp.NewService(cfg.Audio.YtDlpBinary),
		Condition: ffmpeg.NewService(ffmpeg.Config{
			Binary:          cfg.Audio.FFmpegBinary,
			DenoiseModel:    cfg.Audio.DenoiseModel,
			DenoiseMix:      cfg.Audio.DenoiseMix,
			SpeechExpansion: cfg.Audio.SpeechExpansion,
			SafetyLimitDB:   cfg.Audio.SafetyLimitDB,
		}),
		Transcribe: whisperx.NewService(whisperx.Config{
			Model:       cfg.WhisperX.Model,
			CUDAEnabled: cfg.WhisperX.CUDAEnabled,
			Language:    cfg.WhisperX.Language,
		}),
		Summarize: summarizer,
		Scheduler: queue,
		Notifier:  notifier,
		WorkDir:   cfg.Paths.WorkDir,
		Logger:    logger,
	})

	enricher := enrich.NewService(
		store,
		llmClient,
		chroma.NewClient(chroma.Config{
			BaseURL:    cfg.Index.BaseURL,
			Collection: cfg.Index.Collection,
		}),
		enrich.Config{
			ChunkSize:    cfg.Index.ChunkSize,
			ChunkOverlap: cfg.Index.ChunkOverlap,
		},
		logger,
	)

	composer := digest.NewComposer(digest.Deps{
		Store:  store,
		Script: summarizer,
		Speech: tts.NewClient(tts.Config{
			APIKey:         cfg.TTS.APIKey,
			BaseURL:        cfg.TTS.BaseURL,
			Voice:          cfg.TTS.Voice,
			LanguageCode:   cfg.TTS.LanguageCode,
			TimeoutSeconds: cfg.TTS.TimeoutSeconds,
		}),
		Notifier: notifier,
		AudioDir: cfg.Paths.AudioDir,
		Logger:   logger,
	})

	pool := tasks.NewPool(queue, logger, tasks.PoolConfig{
		Workers:            cfg.Workers.Count,
		PollInterval:       time.Duration(cfg.Workers.PollInterval) * time.Second,
		ErrorRetryInterval: time.Duration(cfg.Workers.ErrorRetryInterval) * time.Second,
		LeaseTimeout:       time.Duration(cfg.Workers.LeaseTimeout) * time.Second,
	})

	pool.Register(tasks.KindProcessItem, func(ctx context.Context, task *tasks.Task) error {
		var payload tasks.ItemPayload
		if err := task.DecodePayload(&payload); err != nil {
			return err
		}
		return pipe.Run(ctx, payload.ItemID)
	})
	pool.Register(tasks.KindEnrichItem, func(ctx context.Context, task *tasks.Task) error {
		var payload tasks.ItemPayload
		if err := task.DecodePayload(&payload); err != nil {
			return err
		}
		return enricher.EnrichItem(ctx, payload.ItemID)
	})
	pool.Register(tasks.KindComposeDigest, func(ctx context.Context, task *tasks.Task) error {
		var payload tasks.DigestPayload
		if err := task.DecodePayload(&payload); err != nil {
			return err
		}
		return composer.Compose(ctx, payload.DigestID)
	})

	return pool
}
