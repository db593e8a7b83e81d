package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"briefcast/internal/logging"
	"briefcast/internal/services"
)

// Handler executes one task kind. A returned error marks the task failed;
// record-level failure handling (failing an item) is the handler's job.
type Handler func(ctx context.Context, task *Task) error

// ItemPayload identifies the item a task operates on.
type ItemPayload struct {
	ItemID int64 `json:"item_id"`
}

// DigestPayload identifies the digest a task operates on.
type DigestPayload struct {
	DigestID int64 `json:"digest_id"`
}

// PoolConfig tunes the worker pool.
type PoolConfig struct {
	Workers            int
	PollInterval       time.Duration
	ErrorRetryInterval time.Duration
	LeaseTimeout       time.Duration
}

// Pool runs registered handlers against the task queue with a fixed set of
// polling workers.
type Pool struct {
	queue  *Queue
	logger *slog.Logger
	cfg    PoolConfig

	mu       sync.Mutex
	handlers map[Kind]Handler
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewPool constructs a worker pool over the queue.
func NewPool(queue *Queue, logger *slog.Logger, cfg PoolConfig) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.ErrorRetryInterval <= 0 {
		cfg.ErrorRetryInterval = cfg.PollInterval
	}
	if cfg.LeaseTimeout <= 0 {
		cfg.LeaseTimeout = time.Hour
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pool{
		queue:    queue,
		logger:   logger.With(logging.String(logging.FieldComponent, "tasks")),
		cfg:      cfg,
		handlers: make(map[Kind]Handler),
	}
}

// Register binds a handler to a task kind. Registration after Start is not
// supported.
func (p *Pool) Register(kind Kind, handler Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[kind] = handler
}

// Start launches the worker goroutines.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return errors.New("task pool already running")
	}
	if len(p.handlers) == 0 {
		return errors.New("no task handlers registered")
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true

	p.wg.Add(p.cfg.Workers)
	for i := 0; i < p.cfg.Workers; i++ {
		workerID := fmt.Sprintf("worker-%d", i+1)
		go p.runWorker(runCtx, workerID, i == 0)
	}
	return nil
}

// Stop terminates workers and waits for in-flight tasks to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	p.running = false
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	p.wg.Wait()
}

func (p *Pool) runWorker(ctx context.Context, workerID string, runReclaimer bool) {
	defer p.wg.Done()
	logger := p.logger.With(logging.String("worker", workerID))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if runReclaimer {
			if reclaimed, err := p.queue.ReclaimStale(ctx, p.cfg.LeaseTimeout); err != nil {
				logger.Warn("reclaim stale tasks failed; stuck tasks may remain",
					logging.Error(err),
					logging.String(logging.FieldEventType, "task_reclaim_failed"),
				)
			} else if reclaimed > 0 {
				logger.Info("requeued stale tasks",
					logging.Int64("count", reclaimed),
					logging.String(logging.FieldEventType, "task_reclaimed"),
				)
			}
		}

		task, err := p.queue.Claim(ctx, workerID)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			logger.Error("failed to claim next task",
				logging.Error(err),
				logging.String(logging.FieldEventType, "task_claim_failed"),
			)
			if !sleepCtx(ctx, p.cfg.ErrorRetryInterval) {
				return
			}
			continue
		}
		if task == nil {
			if !sleepCtx(ctx, p.cfg.PollInterval) {
				return
			}
			continue
		}

		p.runTask(ctx, logger, task)
	}
}

func (p *Pool) runTask(ctx context.Context, logger *slog.Logger, task *Task) {
	p.mu.Lock()
	handler := p.handlers[task.Kind]
	p.mu.Unlock()

	// Each claimed task gets a fresh correlation id so its log records can
	// be stitched together across the handler and the services it calls.
	taskCtx := services.WithCorrelationID(
		services.WithTaskKind(ctx, string(task.Kind)),
		uuid.NewString(),
	)
	taskLogger := logging.WithContext(taskCtx, logger).With(
		logging.Int64("task_id", task.ID),
	)

	if handler == nil {
		taskLogger.Error("no handler registered for task kind",
			logging.String(logging.FieldEventType, "task_unroutable"),
		)
		if err := p.queue.Fail(ctx, task.ID, "no handler registered for "+string(task.Kind)); err != nil {
			taskLogger.Error("failed to mark task failed", logging.Error(err))
		}
		return
	}

	taskLogger.Info("task started", logging.String(logging.FieldEventType, "task_started"))
	start := time.Now()

	err := p.invoke(taskCtx, handler, task)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Leave the claim in place so the lease reclaimer requeues it.
			return
		}
		taskLogger.Error("task failed",
			logging.Error(err),
			logging.Duration("elapsed", time.Since(start)),
			logging.String(logging.FieldEventType, "task_failed"),
		)
		if failErr := p.queue.Fail(ctx, task.ID, err.Error()); failErr != nil {
			taskLogger.Error("failed to mark task failed", logging.Error(failErr))
		}
		return
	}

	taskLogger.Info("task completed",
		logging.Duration("elapsed", time.Since(start)),
		logging.String(logging.FieldEventType, "task_completed"),
	)
	if err := p.queue.Complete(ctx, task.ID); err != nil {
		taskLogger.Error("failed to mark task done", logging.Error(err))
	}
}

func (p *Pool) invoke(ctx context.Context, handler Handler, task *Task) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("task handler panicked: %v", recovered)
		}
	}()
	return handler(ctx, task)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
