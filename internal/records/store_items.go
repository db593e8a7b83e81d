package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const itemColumns = "id, source_url, title, thumbnail_url, published_at, speaker, status, transcript_json, summary_json, error_message, created_at, updated_at"

// CreateItem inserts a new pending item for a source URL, or returns the
// existing item when the URL was submitted before. The second return value
// reports whether a new row was created.
func (s *Store) CreateItem(ctx context.Context, sourceURL string) (*Item, bool, error) {
	sourceURL = strings.TrimSpace(sourceURL)
	if sourceURL == "" {
		return nil, false, errors.New("source url is required")
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO items (source_url, status, created_at, updated_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(source_url) DO NOTHING`,
		sourceURL,
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert item: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}

	item, err := s.GetItemBySource(ctx, sourceURL)
	if err != nil {
		return nil, false, err
	}
	if item == nil {
		return nil, false, fmt.Errorf("item for %q vanished after insert", sourceURL)
	}
	return item, affected > 0, nil
}

// GetItem fetches an item by identifier.
func (s *Store) GetItem(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// GetItemBySource fetches an item by its unique source URL.
func (s *Store) GetItemBySource(ctx context.Context, sourceURL string) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE source_url = ?`, strings.TrimSpace(sourceURL))
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item by source: %w", err)
	}
	return item, nil
}

// ListItems returns items filtered by status set (or all items when no
// status is provided), ordered by creation time.
func (s *Store) ListItems(ctx context.Context, statuses ...Status) ([]*Item, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + itemColumns + ` FROM items`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateItem persists changes to an existing item.
func (s *Store) UpdateItem(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE items
         SET source_url = ?, title = ?, thumbnail_url = ?, published_at = ?,
             speaker = ?, status = ?, transcript_json = ?, summary_json = ?,
             error_message = ?, updated_at = ?
         WHERE id = ?`,
		item.SourceURL,
		nullableString(item.Title),
		nullableString(item.ThumbnailURL),
		nullableTime(item.PublishedAt),
		nullableString(item.Speaker),
		item.Status,
		nullableString(item.TranscriptJSON),
		nullableString(item.SummaryJSON),
		nullableString(item.ErrorMessage),
		item.UpdatedAt.Format(time.RFC3339Nano),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// FailItem records a terminal pipeline failure without clobbering fields a
// concurrent writer may have touched since the caller loaded the item.
func (s *Store) FailItem(ctx context.Context, id int64, message string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE items SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		StatusFailed,
		nullableString(message),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("fail item: %w", err)
	}
	return nil
}

// ResubmitIfIdle atomically resets an item to pending unless a run is
// already in flight or has completed. The status check and the write are a
// single conditional UPDATE so concurrent submissions of the same source
// cannot both schedule a run. It returns true when the caller should
// schedule a new pipeline run.
func (s *Store) ResubmitIfIdle(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE items
         SET status = ?, error_message = NULL, updated_at = ?
         WHERE id = ? AND status NOT IN (?, ?)`,
		StatusPending,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		StatusProcessing,
		StatusCompleted,
	)
	if err != nil {
		return false, fmt.Errorf("resubmit item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id           int64
		sourceURL    string
		title        sql.NullString
		thumbnailURL sql.NullString
		publishedRaw sql.NullString
		speaker      sql.NullString
		statusStr    string
		transcript   sql.NullString
		summary      sql.NullString
		errorMessage sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sourceURL,
		&title,
		&thumbnailURL,
		&publishedRaw,
		&speaker,
		&statusStr,
		&transcript,
		&summary,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:             id,
		SourceURL:      sourceURL,
		Title:          title.String,
		ThumbnailURL:   thumbnailURL.String,
		Speaker:        speaker.String,
		Status:         Status(statusStr),
		TranscriptJSON: transcript.String,
		SummaryJSON:    summary.String,
		ErrorMessage:   errorMessage.String,
	}
	if publishedRaw.Valid {
		if published, err := parseTimeString(publishedRaw.String); err == nil {
			item.PublishedAt = &published
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}
