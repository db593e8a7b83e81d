package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"briefcast/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected missing config file")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Workers.Count != 2 {
		t.Fatalf("workers.count default = %d, want 2", cfg.Workers.Count)
	}
	if cfg.Index.ChunkSize != 1000 || cfg.Index.ChunkOverlap != 200 {
		t.Fatalf("chunk defaults = %d/%d", cfg.Index.ChunkSize, cfg.Index.ChunkOverlap)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
work_dir = "` + filepath.Join(dir, "work") + `"
audio_dir = "` + filepath.Join(dir, "audio") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[llm]
base_url = "https://example.invalid/v1/"

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if strings.HasSuffix(cfg.LLM.BaseURL, "/") {
		t.Fatalf("base URL not trimmed: %q", cfg.LLM.BaseURL)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging not normalized: %q/%q", cfg.Logging.Format, cfg.Logging.Level)
	}
}

func TestValidateRejectsBadChunking(t *testing.T) {
	cfg := config.Default()
	cfg.Index.ChunkOverlap = cfg.Index.ChunkSize
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected overlap >= size to be rejected")
	}
}

func TestValidateRejectsBadWorkerCount(t *testing.T) {
	cfg := config.Default()
	cfg.Workers.Count = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected zero worker count to be rejected")
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	cfg.Paths.WorkDir = filepath.Join(dir, "work")
	cfg.Paths.AudioDir = filepath.Join(dir, "audio")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, p := range []string{cfg.Paths.DataDir, cfg.Paths.WorkDir, cfg.Paths.AudioDir, cfg.Paths.LogDir} {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s", p)
		}
	}
}
