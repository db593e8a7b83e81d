// Package ffmpeg conditions downloaded audio for transcription. The filter
// chain denoises speech, normalizes loudness, and applies a safety limiter
// before downsampling to the mono 16kHz WAV the transcriber expects.
package ffmpeg

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"strings"

	"briefcast/internal/services"
)

// DefaultBinary is the ffmpeg command name resolved from PATH.
const DefaultBinary = "ffmpeg"

// Config captures the tunable pieces of the conditioning chain.
type Config struct {
	// Binary overrides the ffmpeg command (defaults to PATH lookup).
	Binary string
	// DenoiseModel is a path to an RNNoise model file. When empty the
	// denoise stage is skipped.
	DenoiseModel string
	// DenoiseMix blends the denoised signal with the original (0..1).
	DenoiseMix float64
	// SpeechExpansion is the speechnorm expansion factor.
	SpeechExpansion float64
	// SafetyLimitDB is the limiter ceiling in dBFS (negative).
	SafetyLimitDB float64
}

// Service wraps ffmpeg invocations.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates an audio conditioner.
func NewService(cfg Config) *Service {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.DenoiseMix <= 0 || cfg.DenoiseMix > 1 {
		cfg.DenoiseMix = 0.9
	}
	if cfg.SpeechExpansion <= 0 {
		cfg.SpeechExpansion = 25.0
	}
	if cfg.SafetyLimitDB >= 0 {
		cfg.SafetyLimitDB = -1.0
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Condition runs the conditioning chain over source and writes a mono 16kHz
// PCM WAV at dest.
func (s *Service) Condition(ctx context.Context, source, dest string) error {
	if source == "" {
		return fmt.Errorf("condition audio: source path required")
	}
	if dest == "" {
		return fmt.Errorf("condition audio: dest path required")
	}

	args := []string{
		"-hide_banner",
		"-y",
		"-i", source,
		"-af", s.FilterChain(),
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
	if err := s.run(ctx, s.cfg.Binary, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "ffmpeg", "condition audio", "", err)
	}
	return nil
}

// FilterChain renders the audio filter expression for the configured chain.
func (s *Service) FilterChain() string {
	filters := make([]string, 0, 3)
	if s.cfg.DenoiseModel != "" {
		filters = append(filters, fmt.Sprintf("arnndn=m=%s:mix=%.2f", s.cfg.DenoiseModel, s.cfg.DenoiseMix))
	}
	filters = append(filters,
		fmt.Sprintf("speechnorm=e=%.1f:r=0.001", s.cfg.SpeechExpansion),
		fmt.Sprintf("alimiter=level_in=1:level_out=1:limit=%.6f:attack=5:release=50", dbToLinear(s.cfg.SafetyLimitDB)),
	)
	return strings.Join(filters, ",")
}

func dbToLinear(db float64) float64 {
	return math.Pow(10, db/20)
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
