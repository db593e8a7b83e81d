// Package pipeline runs the full ingest flow for one item: metadata lookup,
// audio download and conditioning, transcription, summarization, and the
// enrichment fan-out. An item-level failure marks the item failed and is not
// re-raised; the scratch area is released on every exit path.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"briefcast/internal/logging"
	"briefcast/internal/notifications"
	"briefcast/internal/records"
	"briefcast/internal/services"
	"briefcast/internal/services/whisperx"
	"briefcast/internal/services/youtube"
	"briefcast/internal/tasks"
	"briefcast/internal/workspace"
)

type store interface {
	GetItem(ctx context.Context, id int64) (*records.Item, error)
	UpdateItem(ctx context.Context, item *records.Item) error
	FailItem(ctx context.Context, id int64, message string) error
}

type metadataFetcher interface {
	FetchMetadata(ctx context.Context, sourceURL string) (youtube.Metadata, error)
}

type speakerInferrer interface {
	Infer(ctx context.Context, title string) (string, error)
}

type downloader interface {
	DownloadAudio(ctx context.Context, sourceURL, destDir string) (string, error)
}

type conditioner interface {
	Condition(ctx context.Context, source, dest string) error
}

type transcriber interface {
	TranscribeFile(ctx context.Context, source, outputDir string) ([]whisperx.Segment, error)
}

type summarizer interface {
	ItemSummary(ctx context.Context, transcriptText string) (records.Summary, error)
}

type scheduler interface {
	Enqueue(ctx context.Context, kind tasks.Kind, payload any) (*tasks.Task, error)
}

// Deps bundles the collaborators a pipeline run needs.
type Deps struct {
	Store      store
	Metadata   metadataFetcher
	SpeakerID  speakerInferrer
	Download   downloader
	Condition  conditioner
	Transcribe transcriber
	Summarize  summarizer
	Scheduler  scheduler
	Notifier   notifications.Service
	WorkDir    string
	Logger     *slog.Logger
}

// Pipeline processes submitted items end to end.
type Pipeline struct {
	deps Deps
}

// New constructs a pipeline.
func New(deps Deps) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.Noop()
	}
	return &Pipeline{deps: deps}
}

// Run executes the full flow for one item. A missing item is an error (the
// task fails); a processing failure, including a collaborator panic, marks
// the item failed and returns nil.
func (p *Pipeline) Run(ctx context.Context, itemID int64) (err error) {
	item, err := p.deps.Store.GetItem(ctx, itemID)
	if err != nil {
		return fmt.Errorf("pipeline: load item %d: %w", itemID, err)
	}
	if item == nil {
		return fmt.Errorf("pipeline: item %d not found", itemID)
	}

	ctx = services.WithItemID(ctx, item.ID)
	logger := logging.WithContext(ctx, p.deps.Logger).With(
		logging.String(logging.FieldComponent, "pipeline"),
	)
	started := time.Now()

	// A panicking collaborator must not leave the item wedged in
	// processing, where the submission gate would refuse every retry.
	defer func() {
		if recovered := recover(); recovered != nil {
			err = p.failItem(ctx, logger, item, fmt.Errorf("processing panicked: %v", recovered))
		}
	}()

	// Metadata and speaker inference are best effort. An unreachable
	// metadata API never blocks transcription.
	p.applyMetadata(ctx, logger, item)

	item.Status = records.StatusProcessing
	item.ErrorMessage = ""
	if err := p.deps.Store.UpdateItem(ctx, item); err != nil {
		return fmt.Errorf("pipeline: mark item %d processing: %w", item.ID, err)
	}
	logger.Info("item processing started",
		logging.String("source_url", item.SourceURL),
		logging.String(logging.FieldEventType, "pipeline_started"),
	)

	scope, err := workspace.NewScope(p.deps.WorkDir)
	if err != nil {
		return p.failItem(ctx, logger, item, fmt.Errorf("create scratch area: %w", err))
	}
	defer func() {
		if releaseErr := scope.Release(); releaseErr != nil {
			logger.Warn("scratch area cleanup failed",
				logging.Error(releaseErr),
				logging.String(logging.FieldEventType, "workspace_release_failed"),
			)
		}
	}()

	transcript, err := p.produceTranscript(ctx, logger, item, scope)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return p.failItem(ctx, logger, item, err)
	}
	if err := item.SetTranscript(transcript); err != nil {
		return p.failItem(ctx, logger, item, err)
	}

	summary, err := p.deps.Summarize.ItemSummary(ctx, transcript.Flatten())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return p.failItem(ctx, logger, item, err)
	}
	if err := item.SetSummary(summary); err != nil {
		return p.failItem(ctx, logger, item, err)
	}

	item.Status = records.StatusCompleted
	item.ErrorMessage = ""
	if err := p.deps.Store.UpdateItem(ctx, item); err != nil {
		return fmt.Errorf("pipeline: mark item %d completed: %w", item.ID, err)
	}

	logger.Info("item processing completed",
		logging.Duration("elapsed", time.Since(started)),
		logging.String(logging.FieldEventType, "pipeline_completed"),
	)

	// Fire-and-forget fan-out: a scheduling failure is logged but never
	// rolls back a completed item.
	if p.deps.Scheduler != nil {
		if _, err := p.deps.Scheduler.Enqueue(ctx, tasks.KindEnrichItem, tasks.ItemPayload{ItemID: item.ID}); err != nil {
			logger.Warn("failed to schedule enrichment",
				logging.Error(err),
				logging.String(logging.FieldEventType, "enrich_schedule_failed"),
			)
		}
	}

	if err := p.deps.Notifier.NotifyItemCompleted(ctx, item.Title); err != nil {
		logger.Debug("completion notification failed", logging.Error(err))
	}
	return nil
}

func (p *Pipeline) applyMetadata(ctx context.Context, logger *slog.Logger, item *records.Item) {
	if p.deps.Metadata == nil {
		return
	}
	meta, err := p.deps.Metadata.FetchMetadata(ctx, item.SourceURL)
	if err != nil {
		logger.Warn("metadata lookup failed, continuing without it",
			logging.Error(err),
			logging.String(logging.FieldEventType, "metadata_failed"),
		)
		return
	}
	if meta.Title != "" {
		item.Title = meta.Title
	}
	if meta.ThumbnailURL != "" {
		item.ThumbnailURL = meta.ThumbnailURL
	}
	if meta.PublishedAt != nil {
		item.PublishedAt = meta.PublishedAt
	}

	if item.Title == "" || p.deps.SpeakerID == nil {
		return
	}
	speaker, err := p.deps.SpeakerID.Infer(ctx, item.Title)
	if err != nil {
		logger.Warn("speaker inference failed, continuing without it",
			logging.Error(err),
			logging.String(logging.FieldEventType, "speaker_inference_failed"),
		)
		return
	}
	if speaker != "" {
		item.Speaker = speaker
	}
}

func (p *Pipeline) produceTranscript(ctx context.Context, logger *slog.Logger, item *records.Item, scope *workspace.Scope) (records.Transcript, error) {
	var transcript records.Transcript

	sourcePath, err := p.deps.Download.DownloadAudio(ctx, item.SourceURL, scope.Dir())
	if err != nil {
		return transcript, fmt.Errorf("download audio: %w", err)
	}
	logger.Info("audio downloaded", logging.String("path", sourcePath))

	conditionedPath := scope.Path("conditioned.wav")
	if err := p.deps.Condition.Condition(ctx, sourcePath, conditionedPath); err != nil {
		return transcript, fmt.Errorf("condition audio: %w", err)
	}
	logger.Info("audio conditioned", logging.String("path", conditionedPath))

	segments, err := p.deps.Transcribe.TranscribeFile(ctx, conditionedPath, scope.Dir())
	if err != nil {
		return transcript, fmt.Errorf("transcribe audio: %w", err)
	}
	for _, segment := range segments {
		transcript.Segments = append(transcript.Segments, records.Segment{
			Text:  segment.Text,
			Start: segment.Start,
			End:   segment.End,
		})
	}
	if transcript.IsEmpty() {
		return records.Transcript{}, errors.New("transcription produced no text")
	}
	logger.Info("audio transcribed", logging.Int("segments", len(transcript.Segments)))
	return transcript, nil
}

// failItem records an item-level failure. The cause is stored on the item
// and the run reports success to the task queue; the failure already has a
// durable home.
func (p *Pipeline) failItem(ctx context.Context, logger *slog.Logger, item *records.Item, cause error) error {
	logger.Error("item processing failed",
		logging.Error(cause),
		logging.String("error_kind", services.Classify(cause)),
		logging.String(logging.FieldEventType, "pipeline_failed"),
	)
	if err := p.deps.Store.FailItem(ctx, item.ID, cause.Error()); err != nil {
		return fmt.Errorf("pipeline: mark item %d failed: %w", item.ID, err)
	}
	if err := p.deps.Notifier.NotifyItemFailed(ctx, item.Title, cause.Error()); err != nil {
		logger.Debug("failure notification failed", logging.Error(err))
	}
	return nil
}
