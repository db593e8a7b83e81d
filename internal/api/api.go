// Package api is the operations facade the CLI talks to: submission with
// the idempotency gate, digest creation, and the read-side lookups. It owns
// no business logic beyond scheduling; the orchestrators do the work.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"briefcast/internal/logging"
	"briefcast/internal/notifications"
	"briefcast/internal/records"
	"briefcast/internal/tasks"
)

type store interface {
	CreateItem(ctx context.Context, sourceURL string) (*records.Item, bool, error)
	GetItem(ctx context.Context, id int64) (*records.Item, error)
	ListItems(ctx context.Context, statuses ...records.Status) ([]*records.Item, error)
	ResubmitIfIdle(ctx context.Context, id int64) (bool, error)
	CreateDigest(ctx context.Context, itemIDs []int64) (*records.Digest, error)
	GetDigest(ctx context.Context, id int64) (*records.Digest, error)
	ListDigests(ctx context.Context) ([]*records.Digest, error)
	DigestItems(ctx context.Context, digestID int64) ([]*records.Item, error)
	Health(ctx context.Context) (records.HealthSummary, error)
}

type scheduler interface {
	Enqueue(ctx context.Context, kind tasks.Kind, payload any) (*tasks.Task, error)
	PendingCount(ctx context.Context) (int, error)
}

// Deps bundles the facade's collaborators.
type Deps struct {
	Store     store
	Scheduler scheduler
	Notifier  notifications.Service
	Logger    *slog.Logger
}

// Service exposes the operations the CLI and daemon share.
type Service struct {
	deps Deps
}

// Status is a point-in-time health snapshot for the status command.
type Status struct {
	Items        records.HealthSummary
	PendingTasks int
}

// New constructs the facade.
func New(deps Deps) *Service {
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.Noop()
	}
	return &Service{deps: deps}
}

// Submit registers a source URL and schedules a pipeline run for it. The
// call is idempotent: resubmitting a source that is already processing or
// completed returns the existing item without scheduling anything. A failed
// or still-pending item is reset to pending and scheduled again. The reset
// is a single conditional update, so two concurrent submissions of the same
// source schedule at most one run between them.
func (s *Service) Submit(ctx context.Context, sourceURL string) (*records.Item, bool, error) {
	item, created, err := s.deps.Store.CreateItem(ctx, sourceURL)
	if err != nil {
		return nil, false, fmt.Errorf("submit: %w", err)
	}

	logger := s.deps.Logger.With(
		logging.String(logging.FieldComponent, "api"),
		logging.Int64(logging.FieldItemID, item.ID),
	)

	if !created {
		reset, err := s.deps.Store.ResubmitIfIdle(ctx, item.ID)
		if err != nil {
			return nil, false, fmt.Errorf("submit: %w", err)
		}
		if !reset {
			logger.Info("submission skipped, item already active or completed",
				logging.String("status", string(item.Status)),
				logging.String(logging.FieldEventType, "submit_skipped"),
			)
			return item, false, nil
		}
		item.Status = records.StatusPending
		item.ErrorMessage = ""
	}

	if _, err := s.deps.Scheduler.Enqueue(ctx, tasks.KindProcessItem, tasks.ItemPayload{ItemID: item.ID}); err != nil {
		return nil, false, fmt.Errorf("submit: schedule processing: %w", err)
	}
	logger.Info("item submitted",
		logging.String("source_url", item.SourceURL),
		logging.Bool("created", created),
		logging.String(logging.FieldEventType, "item_submitted"),
	)
	if err := s.deps.Notifier.NotifyItemSubmitted(ctx, item.SourceURL); err != nil {
		logger.Debug("submission notification failed", logging.Error(err))
	}
	return item, true, nil
}

// CreateDigest records a new digest over the given items and schedules its
// composition. With no explicit items it covers every completed item.
func (s *Service) CreateDigest(ctx context.Context, itemIDs []int64) (*records.Digest, error) {
	if len(itemIDs) == 0 {
		completed, err := s.deps.Store.ListItems(ctx, records.StatusCompleted)
		if err != nil {
			return nil, fmt.Errorf("create digest: %w", err)
		}
		for _, item := range completed {
			itemIDs = append(itemIDs, item.ID)
		}
	}
	if len(itemIDs) == 0 {
		return nil, errors.New("create digest: no completed items to include")
	}

	digest, err := s.deps.Store.CreateDigest(ctx, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("create digest: %w", err)
	}
	if _, err := s.deps.Scheduler.Enqueue(ctx, tasks.KindComposeDigest, tasks.DigestPayload{DigestID: digest.ID}); err != nil {
		return nil, fmt.Errorf("create digest: schedule composition: %w", err)
	}
	s.deps.Logger.Info("digest scheduled",
		logging.String(logging.FieldComponent, "api"),
		logging.Int64(logging.FieldDigestID, digest.ID),
		logging.Int("items", len(itemIDs)),
		logging.String(logging.FieldEventType, "digest_submitted"),
	)
	return digest, nil
}

// Item returns one item, or nil when it does not exist.
func (s *Service) Item(ctx context.Context, id int64) (*records.Item, error) {
	return s.deps.Store.GetItem(ctx, id)
}

// Items lists items, optionally filtered by status.
func (s *Service) Items(ctx context.Context, statuses ...records.Status) ([]*records.Item, error) {
	return s.deps.Store.ListItems(ctx, statuses...)
}

// Digest returns one digest, or nil when it does not exist.
func (s *Service) Digest(ctx context.Context, id int64) (*records.Digest, error) {
	return s.deps.Store.GetDigest(ctx, id)
}

// Digests lists digests, newest first.
func (s *Service) Digests(ctx context.Context) ([]*records.Digest, error) {
	return s.deps.Store.ListDigests(ctx)
}

// DigestItems returns a digest's member items in digest order.
func (s *Service) DigestItems(ctx context.Context, digestID int64) ([]*records.Item, error) {
	return s.deps.Store.DigestItems(ctx, digestID)
}

// Health reports item counts and outstanding task work.
func (s *Service) Health(ctx context.Context) (Status, error) {
	items, err := s.deps.Store.Health(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("health: %w", err)
	}
	pending, err := s.deps.Scheduler.PendingCount(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("health: %w", err)
	}
	return Status{Items: items, PendingTasks: pending}, nil
}
