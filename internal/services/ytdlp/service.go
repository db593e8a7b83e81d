// Package ytdlp downloads source audio with the yt-dlp command line tool.
package ytdlp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"briefcast/internal/services"
)

// DefaultBinary is the yt-dlp command name resolved from PATH.
const DefaultBinary = "yt-dlp"

// Service wraps yt-dlp invocations.
type Service struct {
	binary        string
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a downloader using the given binary, falling back to
// the PATH default when empty.
func NewService(binary string) *Service {
	if strings.TrimSpace(binary) == "" {
		binary = DefaultBinary
	}
	return &Service{binary: binary}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// DownloadAudio fetches the best audio stream for a source URL and writes it
// as an mp3 under destDir. It returns the output file path.
func (s *Service) DownloadAudio(ctx context.Context, sourceURL, destDir string) (string, error) {
	sourceURL = strings.TrimSpace(sourceURL)
	if sourceURL == "" {
		return "", fmt.Errorf("download audio: source url required")
	}
	if destDir == "" {
		return "", fmt.Errorf("download audio: destination dir required")
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("download audio: ensure dest dir: %w", err)
	}

	dest := filepath.Join(destDir, "source.mp3")
	args := []string{
		"--no-playlist",
		"--extract-audio",
		"--audio-format", "mp3",
		"--output", dest,
		sourceURL,
	}
	if err := s.run(ctx, s.binary, args...); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "ytdlp", "download audio", "", err)
	}
	return dest, nil
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
