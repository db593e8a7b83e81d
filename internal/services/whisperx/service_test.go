package whisperx_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"briefcast/internal/services"
	"briefcast/internal/services/whisperx"
)

func TestTranscribeFileParsesSegments(t *testing.T) {
	svc := whisperx.NewService(whisperx.Config{Model: "small", Language: "en"})
	outputDir := t.TempDir()

	var gotArgs []string
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		if name != whisperx.UVXCommand {
			t.Errorf("unexpected command %q", name)
		}
		gotArgs = args
		payload := `{"segments":[{"text":" hello there ","start":0,"end":1.2},{"text":"general","start":1.2,"end":2}]}`
		return os.WriteFile(filepath.Join(outputDir, "audio.json"), []byte(payload), 0o644)
	})

	segments, err := svc.TranscribeFile(context.Background(), "/work/audio.wav", outputDir)
	if err != nil {
		t.Fatalf("TranscribeFile: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].End != 1.2 || strings.TrimSpace(segments[0].Text) != "hello there" {
		t.Fatalf("unexpected first segment %+v", segments[0])
	}

	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{"whisperx /work/audio.wav", "--model small", "--language en", "--output_format json", "--device cpu"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args missing %q: %s", want, joined)
		}
	}
}

func TestTranscribeFileTagsToolFailures(t *testing.T) {
	svc := whisperx.NewService(whisperx.Config{})
	cause := errors.New("cuda out of memory")
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return cause
	})

	_, err := svc.TranscribeFile(context.Background(), "/work/audio.wav", t.TempDir())
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestTranscribeFileRequiresSource(t *testing.T) {
	svc := whisperx.NewService(whisperx.Config{})
	if _, err := svc.TranscribeFile(context.Background(), "", t.TempDir()); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestModelFallsBackToDefault(t *testing.T) {
	svc := whisperx.NewService(whisperx.Config{})
	if svc.Model() != whisperx.DefaultModel {
		t.Fatalf("unexpected model %q", svc.Model())
	}
}

func TestLoadSegmentsMissingFile(t *testing.T) {
	if _, err := whisperx.LoadSegments(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing output file")
	}
}
