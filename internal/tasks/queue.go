package tasks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const taskColumns = "id, kind, payload, state, attempts, claimed_by, claimed_at, error, created_at, updated_at"

var taskMigrations = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        kind TEXT NOT NULL,
        payload TEXT NOT NULL,
        state TEXT NOT NULL,
        attempts INTEGER NOT NULL DEFAULT 0,
        claimed_by TEXT,
        claimed_at TEXT,
        error TEXT,
        created_at TEXT NOT NULL,
        updated_at TEXT NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_state ON tasks(state)`,
}

// Queue is a durable task queue sharing the record store's SQLite handle so
// task scheduling commits alongside record writes.
type Queue struct {
	db *sql.DB
}

// NewQueue binds the task queue to an open database and ensures its schema.
func NewQueue(db *sql.DB) (*Queue, error) {
	if db == nil {
		return nil, errors.New("database handle is nil")
	}
	for idx, statement := range taskMigrations {
		if _, err := db.Exec(statement); err != nil {
			return nil, fmt.Errorf("apply task migration %d: %w", idx+1, err)
		}
	}
	return &Queue{db: db}, nil
}

// Enqueue persists a new queued task. The payload must be JSON-encodable.
func (q *Queue) Enqueue(ctx context.Context, kind Kind, payload any) (*Task, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	res, err := q.db.ExecContext(
		ctx,
		`INSERT INTO tasks (kind, payload, state, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		kind,
		string(encoded),
		StateQueued,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("enqueue task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("task id: %w", err)
	}
	return &Task{
		ID:        id,
		Kind:      kind,
		Payload:   string(encoded),
		State:     StateQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Claim atomically takes the oldest queued task, marks it running, and
// records the claiming worker. The read and the write share an immediate
// transaction so two workers never claim the same task. Returns nil when no
// work is queued.
func (q *Queue) Claim(ctx context.Context, workerID string) (*Task, error) {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin claim tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	row := tx.QueryRowContext(
		ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE state = ? ORDER BY id LIMIT 1`,
		StateQueued,
	)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select queued task: %w", err)
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(
		ctx,
		`UPDATE tasks
         SET state = ?, attempts = attempts + 1, claimed_by = ?, claimed_at = ?, updated_at = ?
         WHERE id = ? AND state = ?`,
		StateRunning,
		workerID,
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
		task.ID,
		StateQueued,
	)
	if err != nil {
		return nil, fmt.Errorf("claim task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}

	task.State = StateRunning
	task.Attempts++
	task.ClaimedBy = workerID
	task.ClaimedAt = &now
	task.UpdatedAt = now
	return task, nil
}

// Complete marks a task done.
func (q *Queue) Complete(ctx context.Context, id int64) error {
	return q.finish(ctx, id, StateDone, "")
}

// Fail marks a task failed with the given message.
func (q *Queue) Fail(ctx context.Context, id int64, message string) error {
	return q.finish(ctx, id, StateFailed, message)
}

func (q *Queue) finish(ctx context.Context, id int64, state State, message string) error {
	var errVal any
	if message != "" {
		errVal = message
	}
	_, err := q.db.ExecContext(
		ctx,
		`UPDATE tasks SET state = ?, error = ?, claimed_by = NULL, claimed_at = NULL, updated_at = ? WHERE id = ?`,
		state,
		errVal,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish task: %w", err)
	}
	return nil
}

// ReclaimStale requeues running tasks whose claim is older than the lease
// timeout, so work held by a crashed worker becomes runnable again.
func (q *Queue) ReclaimStale(ctx context.Context, lease time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-lease).Format(time.RFC3339Nano)
	res, err := q.db.ExecContext(
		ctx,
		`UPDATE tasks
         SET state = ?, claimed_by = NULL, claimed_at = NULL, updated_at = ?
         WHERE state = ? AND claimed_at IS NOT NULL AND claimed_at < ?`,
		StateQueued,
		time.Now().UTC().Format(time.RFC3339Nano),
		StateRunning,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale tasks: %w", err)
	}
	return res.RowsAffected()
}

// Get fetches a task by identifier.
func (q *Queue) Get(ctx context.Context, id int64) (*Task, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// PendingCount reports how many tasks are queued or running.
func (q *Queue) PendingCount(ctx context.Context) (int, error) {
	var count int
	err := q.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM tasks WHERE state IN (?, ?)`,
		StateQueued,
		StateRunning,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("pending count: %w", err)
	}
	return count, nil
}

// DecodePayload unmarshals the task payload into the destination.
func (t *Task) DecodePayload(dest any) error {
	if err := json.Unmarshal([]byte(t.Payload), dest); err != nil {
		return fmt.Errorf("decode %s payload: %w", t.Kind, err)
	}
	return nil
}

func scanTask(scanner interface{ Scan(dest ...any) error }) (*Task, error) {
	var (
		id         int64
		kind       string
		payload    string
		state      string
		attempts   int
		claimedBy  sql.NullString
		claimedRaw sql.NullString
		errMsg     sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)

	if err := scanner.Scan(&id, &kind, &payload, &state, &attempts, &claimedBy, &claimedRaw, &errMsg, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	task := &Task{
		ID:        id,
		Kind:      Kind(kind),
		Payload:   payload,
		State:     State(state),
		Attempts:  attempts,
		ClaimedBy: claimedBy.String,
		Error:     errMsg.String,
	}
	if claimedRaw.Valid {
		if claimed, err := time.Parse(time.RFC3339Nano, claimedRaw.String); err == nil {
			task.ClaimedAt = &claimed
		}
	}
	if created, err := time.Parse(time.RFC3339Nano, createdRaw.String); err == nil {
		task.CreatedAt = created
	}
	if updated, err := time.Parse(time.RFC3339Nano, updatedRaw.String); err == nil {
		task.UpdatedAt = updated
	}
	return task, nil
}
