package tasks_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"briefcast/internal/logging"
	"briefcast/internal/services"
	"briefcast/internal/tasks"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func poolConfig() tasks.PoolConfig {
	return tasks.PoolConfig{
		Workers:            2,
		PollInterval:       10 * time.Millisecond,
		ErrorRetryInterval: 10 * time.Millisecond,
		LeaseTimeout:       time.Hour,
	}
}

func waitForState(t *testing.T, queue *tasks.Queue, id int64, want tasks.State) *tasks.Task {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		task, err := queue.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if task != nil && task.State == want {
			return task
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("task %d never reached state %s", id, want)
	return nil
}

func TestPoolRunsHandler(t *testing.T) {
	queue := newQueue(t)
	ctx := context.Background()

	var handled atomic.Int64
	pool := tasks.NewPool(queue, logging.NewNop(), poolConfig())
	pool.Register(tasks.KindProcessItem, func(ctx context.Context, task *tasks.Task) error {
		var payload tasks.ItemPayload
		if err := task.DecodePayload(&payload); err != nil {
			return err
		}
		handled.Store(payload.ItemID)
		return nil
	})

	enqueued, err := queue.Enqueue(ctx, tasks.KindProcessItem, tasks.ItemPayload{ItemID: 42})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	if err := pool.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer pool.Stop()

	waitForState(t, queue, enqueued.ID, tasks.StateDone)
	if handled.Load() != 42 {
		t.Fatalf("handler saw item %d", handled.Load())
	}
}

func TestPoolStampsCorrelationID(t *testing.T) {
	queue := newQueue(t)
	ctx := context.Background()

	var out lockedBuffer
	logger := slog.New(slog.NewJSONHandler(&out, nil))

	ids := make(chan string, 2)
	pool := tasks.NewPool(queue, logger, poolConfig())
	pool.Register(tasks.KindProcessItem, func(ctx context.Context, task *tasks.Task) error {
		id, ok := services.CorrelationIDFromContext(ctx)
		if !ok {
			t.Error("handler context missing correlation id")
		}
		ids <- id
		return nil
	})

	first, err := queue.Enqueue(ctx, tasks.KindProcessItem, tasks.ItemPayload{ItemID: 1})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	second, err := queue.Enqueue(ctx, tasks.KindProcessItem, tasks.ItemPayload{ItemID: 2})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	if err := pool.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer pool.Stop()

	waitForState(t, queue, first.ID, tasks.StateDone)
	waitForState(t, queue, second.ID, tasks.StateDone)

	a, b := <-ids, <-ids
	if a == "" || b == "" || a == b {
		t.Fatalf("expected distinct correlation ids per task, got %q and %q", a, b)
	}
	if !strings.Contains(out.String(), logging.FieldCorrelationID) {
		t.Fatal("expected correlation id on task log records")
	}
}

func TestPoolMarksHandlerErrorFailed(t *testing.T) {
	queue := newQueue(t)
	ctx := context.Background()

	pool := tasks.NewPool(queue, logging.NewNop(), poolConfig())
	pool.Register(tasks.KindComposeDigest, func(ctx context.Context, task *tasks.Task) error {
		return errors.New("synthesis rejected")
	})

	enqueued, err := queue.Enqueue(ctx, tasks.KindComposeDigest, tasks.DigestPayload{DigestID: 9})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	if err := pool.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer pool.Stop()

	failed := waitForState(t, queue, enqueued.ID, tasks.StateFailed)
	if failed.Error != "synthesis rejected" {
		t.Fatalf("unexpected task error %q", failed.Error)
	}
}

func TestPoolRecoversFromPanic(t *testing.T) {
	queue := newQueue(t)
	ctx := context.Background()

	pool := tasks.NewPool(queue, logging.NewNop(), poolConfig())
	pool.Register(tasks.KindEnrichItem, func(ctx context.Context, task *tasks.Task) error {
		panic("chunker exploded")
	})

	enqueued, err := queue.Enqueue(ctx, tasks.KindEnrichItem, tasks.ItemPayload{ItemID: 1})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	if err := pool.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer pool.Stop()

	failed := waitForState(t, queue, enqueued.ID, tasks.StateFailed)
	if failed.Error == "" {
		t.Fatal("expected panic message recorded on task")
	}
}

func TestPoolFailsUnroutableKinds(t *testing.T) {
	queue := newQueue(t)
	ctx := context.Background()

	pool := tasks.NewPool(queue, logging.NewNop(), poolConfig())
	pool.Register(tasks.KindProcessItem, func(ctx context.Context, task *tasks.Task) error {
		return nil
	})

	enqueued, err := queue.Enqueue(ctx, tasks.Kind("item.unknown"), tasks.ItemPayload{ItemID: 1})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	if err := pool.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer pool.Stop()

	waitForState(t, queue, enqueued.ID, tasks.StateFailed)
}

func TestPoolStartRequiresHandlers(t *testing.T) {
	queue := newQueue(t)
	pool := tasks.NewPool(queue, logging.NewNop(), poolConfig())
	if err := pool.Start(context.Background()); err == nil {
		t.Fatal("expected error when no handlers registered")
	}
}
