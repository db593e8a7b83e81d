package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime failures deep inside a pipeline run.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateIndex(); err != nil {
		return err
	}
	if err := c.validateWorkers(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		return errors.New("paths.work_dir must be set")
	}
	if strings.TrimSpace(c.Paths.AudioDir) == "" {
		return errors.New("paths.audio_dir must be set")
	}
	return nil
}

func (c *Config) validateAudio() error {
	if c.Audio.DenoiseMix < 0 || c.Audio.DenoiseMix > 1 {
		return fmt.Errorf("audio.denoise_mix must be between 0 and 1, got %v", c.Audio.DenoiseMix)
	}
	if c.Audio.SpeechExpansion < 0 {
		return fmt.Errorf("audio.speech_expansion must not be negative, got %v", c.Audio.SpeechExpansion)
	}
	if c.Audio.AcquireTimeout <= 0 {
		return fmt.Errorf("audio.acquire_timeout must be positive, got %d", c.Audio.AcquireTimeout)
	}
	return nil
}

func (c *Config) validateIndex() error {
	if c.Index.ChunkSize <= 0 {
		return fmt.Errorf("index.chunk_size must be positive, got %d", c.Index.ChunkSize)
	}
	if c.Index.ChunkOverlap < 0 {
		return fmt.Errorf("index.chunk_overlap must not be negative, got %d", c.Index.ChunkOverlap)
	}
	if c.Index.ChunkOverlap >= c.Index.ChunkSize {
		return fmt.Errorf("index.chunk_overlap (%d) must be smaller than index.chunk_size (%d)", c.Index.ChunkOverlap, c.Index.ChunkSize)
	}
	return nil
}

func (c *Config) validateWorkers() error {
	if c.Workers.Count <= 0 {
		return fmt.Errorf("workers.count must be positive, got %d", c.Workers.Count)
	}
	if c.Workers.PollInterval <= 0 {
		return fmt.Errorf("workers.poll_interval must be positive, got %d", c.Workers.PollInterval)
	}
	if c.Workers.LeaseTimeout <= 0 {
		return fmt.Errorf("workers.lease_timeout must be positive, got %d", c.Workers.LeaseTimeout)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
