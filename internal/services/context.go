package services

import "context"

type contextKey string

const (
	itemIDKey        contextKey = "item_id"
	digestIDKey      contextKey = "digest_id"
	taskKindKey      contextKey = "task_kind"
	correlationIDKey contextKey = "correlation_id"
)

// WithItemID tags a context with the item the current task operates on.
func WithItemID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, itemIDKey, id)
}

// ItemIDFromContext extracts the item identifier, if present.
func ItemIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(itemIDKey).(int64)
	return id, ok
}

// WithDigestID tags a context with the digest the current task operates on.
func WithDigestID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, digestIDKey, id)
}

// DigestIDFromContext extracts the digest identifier, if present.
func DigestIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(digestIDKey).(int64)
	return id, ok
}

// WithTaskKind tags a context with the running task kind.
func WithTaskKind(ctx context.Context, kind string) context.Context {
	return context.WithValue(ctx, taskKindKey, kind)
}

// TaskKindFromContext extracts the task kind, if present.
func TaskKindFromContext(ctx context.Context) (string, bool) {
	kind, ok := ctx.Value(taskKindKey).(string)
	return kind, ok && kind != ""
}

// WithCorrelationID tags a context with a per-invocation correlation id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFromContext extracts the correlation id, if present.
func CorrelationIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(correlationIDKey).(string)
	return id, ok && id != ""
}
