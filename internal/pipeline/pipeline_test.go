package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"briefcast/internal/notifications"
	"briefcast/internal/pipeline"
	"briefcast/internal/records"
	"briefcast/internal/services/whisperx"
	"briefcast/internal/services/youtube"
	"briefcast/internal/tasks"
	"briefcast/internal/testsupport"
)

type stubMetadata struct {
	meta youtube.Metadata
	err  error
}

func (s *stubMetadata) FetchMetadata(ctx context.Context, sourceURL string) (youtube.Metadata, error) {
	return s.meta, s.err
}

type stubSpeaker struct {
	name string
	err  error
}

func (s *stubSpeaker) Infer(ctx context.Context, title string) (string, error) {
	return s.name, s.err
}

type stubDownloader struct {
	err      error
	lastDest string
}

func (s *stubDownloader) DownloadAudio(ctx context.Context, sourceURL, destDir string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.lastDest = destDir
	path := filepath.Join(destDir, "source.mp3")
	if err := os.WriteFile(path, []byte("mp3"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

type stubConditioner struct {
	err error
}

func (s *stubConditioner) Condition(ctx context.Context, source, dest string) error {
	if s.err != nil {
		return s.err
	}
	return os.WriteFile(dest, []byte("wav"), 0o644)
}

type stubTranscriber struct {
	segments []whisperx.Segment
	err      error
}

func (s *stubTranscriber) TranscribeFile(ctx context.Context, source, outputDir string) ([]whisperx.Segment, error) {
	return s.segments, s.err
}

type panickingTranscriber struct{}

func (panickingTranscriber) TranscribeFile(ctx context.Context, source, outputDir string) ([]whisperx.Segment, error) {
	panic("alignment model blew up")
}

type stubSummarizer struct {
	summary records.Summary
	err     error
}

func (s *stubSummarizer) ItemSummary(ctx context.Context, transcriptText string) (records.Summary, error) {
	return s.summary, s.err
}

type stubScheduler struct {
	enqueued []tasks.Kind
	err      error
}

func (s *stubScheduler) Enqueue(ctx context.Context, kind tasks.Kind, payload any) (*tasks.Task, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.enqueued = append(s.enqueued, kind)
	return &tasks.Task{Kind: kind}, nil
}

func happyDeps(t *testing.T) (pipeline.Deps, *stubScheduler) {
	t.Helper()
	published := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	scheduler := &stubScheduler{}
	deps := pipeline.Deps{
		Metadata:  &stubMetadata{meta: youtube.Metadata{Title: "Postgame Presser", ThumbnailURL: "https://img/x.jpg", PublishedAt: &published}},
		SpeakerID: &stubSpeaker{name: "Dana Mitchell"},
		Download:  &stubDownloader{},
		Condition: &stubConditioner{},
		Transcribe: &stubTranscriber{segments: []whisperx.Segment{
			{Text: "we played hard", Start: 0, End: 2},
			{Text: "and we won", Start: 2, End: 4},
		}},
		Summarize: &stubSummarizer{summary: records.Summary{
			Headline: "Hard-Fought Win",
			Synopsis: "The team closed out a tight game.",
			Bullets:  []string{"Defense held late"},
		}},
		Scheduler: scheduler,
		Notifier:  notifications.Noop(),
		WorkDir:   t.TempDir(),
	}
	return deps, scheduler
}

func TestRunCompletesItem(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	item := testsupport.NewItem(t, store, "https://youtube.com/watch?v=win")

	deps, scheduler := happyDeps(t)
	deps.Store = store
	p := pipeline.New(deps)

	if err := p.Run(ctx, item.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	reloaded, err := store.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if reloaded.Status != records.StatusCompleted {
		t.Fatalf("expected completed, got %s (%s)", reloaded.Status, reloaded.ErrorMessage)
	}
	if reloaded.Title != "Postgame Presser" || reloaded.Speaker != "Dana Mitchell" {
		t.Fatalf("metadata not applied: %+v", reloaded)
	}
	transcript, err := reloaded.Transcript()
	if err != nil {
		t.Fatalf("Transcript: %v", err)
	}
	if transcript.Flatten() != "we played hard and we won" {
		t.Fatalf("unexpected transcript %q", transcript.Flatten())
	}
	if !reloaded.HasSummary() {
		t.Fatal("expected stored summary")
	}
	if len(scheduler.enqueued) != 1 || scheduler.enqueued[0] != tasks.KindEnrichItem {
		t.Fatalf("expected enrichment scheduled, got %v", scheduler.enqueued)
	}
}

func TestRunReleasesScratchArea(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	item := testsupport.NewItem(t, store, "https://youtube.com/watch?v=cleanup")

	deps, _ := happyDeps(t)
	deps.Store = store
	downloader := &stubDownloader{}
	deps.Download = downloader
	p := pipeline.New(deps)

	if err := p.Run(ctx, item.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if downloader.lastDest == "" {
		t.Fatal("downloader never ran")
	}
	if _, err := os.Stat(downloader.lastDest); !os.IsNotExist(err) {
		t.Fatalf("expected scratch dir removed, stat err: %v", err)
	}
}

func TestRunReleasesScratchAreaOnFailure(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	item := testsupport.NewItem(t, store, "https://youtube.com/watch?v=failcleanup")

	deps, _ := happyDeps(t)
	deps.Store = store
	downloader := &stubDownloader{}
	deps.Download = downloader
	deps.Transcribe = &stubTranscriber{err: errors.New("gpu fell over")}
	p := pipeline.New(deps)

	if err := p.Run(ctx, item.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(downloader.lastDest); !os.IsNotExist(err) {
		t.Fatalf("expected scratch dir removed after failure, stat err: %v", err)
	}
}

func TestRunMarksItemFailedWithoutRaising(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	item := testsupport.NewItem(t, store, "https://youtube.com/watch?v=broken")

	deps, scheduler := happyDeps(t)
	deps.Store = store
	deps.Download = &stubDownloader{err: errors.New("video unavailable")}
	p := pipeline.New(deps)

	if err := p.Run(ctx, item.ID); err != nil {
		t.Fatalf("Run should absorb item-level failures: %v", err)
	}

	reloaded, err := store.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if reloaded.Status != records.StatusFailed {
		t.Fatalf("expected failed, got %s", reloaded.Status)
	}
	if reloaded.ErrorMessage == "" {
		t.Fatal("expected error message recorded")
	}
	if len(scheduler.enqueued) != 0 {
		t.Fatal("enrichment must not be scheduled for failed items")
	}
}

func TestRunMarksItemFailedWhenCollaboratorPanics(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	item := testsupport.NewItem(t, store, "https://youtube.com/watch?v=panic")

	deps, _ := happyDeps(t)
	deps.Store = store
	downloader := &stubDownloader{}
	deps.Download = downloader
	deps.Transcribe = panickingTranscriber{}
	p := pipeline.New(deps)

	if err := p.Run(ctx, item.ID); err != nil {
		t.Fatalf("Run should absorb a collaborator panic: %v", err)
	}

	reloaded, err := store.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if reloaded.Status != records.StatusFailed {
		t.Fatalf("expected failed after panic, got %s", reloaded.Status)
	}
	if !strings.Contains(reloaded.ErrorMessage, "panicked") {
		t.Fatalf("expected panic recorded on item, got %q", reloaded.ErrorMessage)
	}
	if _, err := os.Stat(downloader.lastDest); !os.IsNotExist(err) {
		t.Fatalf("expected scratch dir removed after panic, stat err: %v", err)
	}
}

func TestRunFailsOnEmptyTranscript(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	item := testsupport.NewItem(t, store, "https://youtube.com/watch?v=silent")

	deps, _ := happyDeps(t)
	deps.Store = store
	deps.Transcribe = &stubTranscriber{segments: []whisperx.Segment{{Text: "   "}}}
	p := pipeline.New(deps)

	if err := p.Run(ctx, item.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}
	reloaded, err := store.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if reloaded.Status != records.StatusFailed {
		t.Fatalf("expected failed for empty transcript, got %s", reloaded.Status)
	}
}

func TestRunToleratesMetadataAndSpeakerFailures(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	item := testsupport.NewItem(t, store, "https://youtube.com/watch?v=nometa")

	deps, _ := happyDeps(t)
	deps.Store = store
	deps.Metadata = &stubMetadata{err: errors.New("api quota exhausted")}
	deps.SpeakerID = &stubSpeaker{err: errors.New("model offline")}
	p := pipeline.New(deps)

	if err := p.Run(ctx, item.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}
	reloaded, err := store.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if reloaded.Status != records.StatusCompleted {
		t.Fatalf("expected completed despite metadata failure, got %s", reloaded.Status)
	}
	if reloaded.Title != "" || reloaded.Speaker != "" {
		t.Fatalf("expected no metadata, got %+v", reloaded)
	}
}

func TestRunMissingItemIsError(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	deps, _ := happyDeps(t)
	deps.Store = store
	p := pipeline.New(deps)

	if err := p.Run(context.Background(), 999); err == nil {
		t.Fatal("expected error for missing item")
	}
}

func TestRunSchedulerFailureDoesNotFailItem(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	item := testsupport.NewItem(t, store, "https://youtube.com/watch?v=schedfail")

	deps, _ := happyDeps(t)
	deps.Store = store
	deps.Scheduler = &stubScheduler{err: errors.New("queue closed")}
	p := pipeline.New(deps)

	if err := p.Run(ctx, item.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}
	reloaded, err := store.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if reloaded.Status != records.StatusCompleted {
		t.Fatalf("expected completed, got %s", reloaded.Status)
	}
}
