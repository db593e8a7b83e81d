// Package digest composes a spoken-word roundup from completed items: the
// fan-in stage. Item synopses are woven into a narrative script and
// synthesized into a single audio artifact.
package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"briefcast/internal/logging"
	"briefcast/internal/notifications"
	"briefcast/internal/records"
	"briefcast/internal/services"
)

type store interface {
	GetDigest(ctx context.Context, id int64) (*records.Digest, error)
	UpdateDigest(ctx context.Context, digest *records.Digest) error
	DigestItems(ctx context.Context, digestID int64) ([]*records.Item, error)
}

type scriptWriter interface {
	DigestScript(ctx context.Context, synopses []string) (string, error)
}

type synthesizer interface {
	SynthesizeToFile(ctx context.Context, text, dest string) error
}

// Deps bundles the collaborators a digest run needs.
type Deps struct {
	Store    store
	Script   scriptWriter
	Speech   synthesizer
	Notifier notifications.Service
	AudioDir string
	Logger   *slog.Logger
}

// Composer builds digests.
type Composer struct {
	deps Deps
}

// NewComposer constructs a digest composer.
func NewComposer(deps Deps) *Composer {
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.Noop()
	}
	return &Composer{deps: deps}
}

// Compose runs the fan-in flow for one digest. A missing digest is an error;
// a composition failure marks the digest failed and returns nil.
func (c *Composer) Compose(ctx context.Context, digestID int64) error {
	digest, err := c.deps.Store.GetDigest(ctx, digestID)
	if err != nil {
		return fmt.Errorf("digest: load %d: %w", digestID, err)
	}
	if digest == nil {
		return fmt.Errorf("digest: %d not found", digestID)
	}

	ctx = services.WithDigestID(ctx, digest.ID)
	logger := logging.WithContext(ctx, c.deps.Logger).With(
		logging.String(logging.FieldComponent, "digest"),
	)
	started := time.Now()

	digest.Status = records.StatusProcessing
	digest.ErrorMessage = ""
	if err := c.deps.Store.UpdateDigest(ctx, digest); err != nil {
		return fmt.Errorf("digest: mark %d processing: %w", digest.ID, err)
	}
	logger.Info("digest composition started",
		logging.Int("items", len(digest.ItemIDs)),
		logging.String(logging.FieldEventType, "digest_started"),
	)

	synopses, err := c.collectSynopses(ctx, digest.ID)
	if err != nil {
		return c.failDigest(ctx, logger, digest, err)
	}

	script, err := c.deps.Script.DigestScript(ctx, synopses)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return c.failDigest(ctx, logger, digest, err)
	}

	audioPath := filepath.Join(c.deps.AudioDir, uuid.NewString()+".mp3")
	if err := c.deps.Speech.SynthesizeToFile(ctx, script, audioPath); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return c.failDigest(ctx, logger, digest, err)
	}

	digest.SummaryText = script
	digest.AudioPath = audioPath
	digest.Status = records.StatusCompleted
	digest.ErrorMessage = ""
	if err := c.deps.Store.UpdateDigest(ctx, digest); err != nil {
		return fmt.Errorf("digest: mark %d completed: %w", digest.ID, err)
	}

	logger.Info("digest composition completed",
		logging.String("audio_path", audioPath),
		logging.Duration("elapsed", time.Since(started)),
		logging.String(logging.FieldEventType, "digest_completed"),
	)
	if err := c.deps.Notifier.NotifyDigestReady(ctx, digest.ID, audioPath); err != nil {
		logger.Debug("digest notification failed", logging.Error(err))
	}
	return nil
}

// collectSynopses gathers one-sentence summaries from the digest's items.
// Items without a stored summary are skipped; a digest with no usable
// synopses cannot be composed.
func (c *Composer) collectSynopses(ctx context.Context, digestID int64) ([]string, error) {
	items, err := c.deps.Store.DigestItems(ctx, digestID)
	if err != nil {
		return nil, fmt.Errorf("load digest items: %w", err)
	}

	var synopses []string
	for _, item := range items {
		summary, err := item.Summary()
		if err != nil || summary.Synopsis == "" {
			continue
		}
		synopses = append(synopses, summary.Synopsis)
	}
	if len(synopses) == 0 {
		return nil, errors.New("no item summaries available for digest")
	}
	return synopses, nil
}

func (c *Composer) failDigest(ctx context.Context, logger *slog.Logger, digest *records.Digest, cause error) error {
	logger.Error("digest composition failed",
		logging.Error(cause),
		logging.String("error_kind", services.Classify(cause)),
		logging.String(logging.FieldEventType, "digest_failed"),
	)
	digest.Status = records.StatusFailed
	digest.ErrorMessage = cause.Error()
	if err := c.deps.Store.UpdateDigest(ctx, digest); err != nil {
		return fmt.Errorf("digest: mark %d failed: %w", digest.ID, err)
	}
	if err := c.deps.Notifier.NotifyError(ctx, cause, "digest composition"); err != nil {
		logger.Debug("failure notification failed", logging.Error(err))
	}
	return nil
}
