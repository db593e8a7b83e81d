package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const digestColumns = "id, status, summary_text, audio_path, error_message, created_at, updated_at"

// CreateDigest inserts a pending digest bound to a fixed item set. The item
// membership is recorded in the same transaction so a digest never exists
// without its composition list.
func (s *Store) CreateDigest(ctx context.Context, itemIDs []int64) (*Digest, error) {
	if len(itemIDs) == 0 {
		return nil, errors.New("digest requires at least one item")
	}
	// Repeated ids collapse to one membership row; they would otherwise
	// throw off the COUNT verification below and duplicate the item in
	// the composed narrative.
	itemIDs = dedupeIDs(itemIDs)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin digest tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	placeholders := makePlaceholders(len(itemIDs))
	args := make([]any, len(itemIDs))
	for i, id := range itemIDs {
		args[i] = id
	}
	var known int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM items WHERE id IN (`+placeholders+`)`, args...).Scan(&known); err != nil {
		return nil, fmt.Errorf("verify digest items: %w", err)
	}
	if known != len(itemIDs) {
		return nil, fmt.Errorf("digest references %d unknown item(s)", len(itemIDs)-known)
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO digests (status, created_at, updated_at) VALUES (?, ?, ?)`,
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert digest: %w", err)
	}
	digestID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("digest id: %w", err)
	}

	for position, itemID := range itemIDs {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO digest_items (digest_id, item_id, position) VALUES (?, ?, ?)`,
			digestID,
			itemID,
			position,
		); err != nil {
			return nil, fmt.Errorf("insert digest item %d: %w", itemID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit digest: %w", err)
	}

	return &Digest{
		ID:        digestID,
		Status:    StatusPending,
		ItemIDs:   append([]int64(nil), itemIDs...),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetDigest fetches a digest and its ordered item membership.
func (s *Store) GetDigest(ctx context.Context, id int64) (*Digest, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+digestColumns+` FROM digests WHERE id = ?`, id)
	digest, err := scanDigest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get digest: %w", err)
	}
	if digest.ItemIDs, err = s.digestItemIDs(ctx, digest.ID); err != nil {
		return nil, err
	}
	return digest, nil
}

// ListDigests returns all digests, newest first, with item membership.
func (s *Store) ListDigests(ctx context.Context) ([]*Digest, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+digestColumns+` FROM digests ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list digests: %w", err)
	}
	defer rows.Close()

	var digests []*Digest
	for rows.Next() {
		digest, err := scanDigest(rows)
		if err != nil {
			return nil, err
		}
		digests = append(digests, digest)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, digest := range digests {
		if digest.ItemIDs, err = s.digestItemIDs(ctx, digest.ID); err != nil {
			return nil, err
		}
	}
	return digests, nil
}

// UpdateDigest persists changes to an existing digest. Item membership is
// immutable after creation and is not written here.
func (s *Store) UpdateDigest(ctx context.Context, digest *Digest) error {
	if digest == nil {
		return errors.New("digest is nil")
	}
	digest.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE digests
         SET status = ?, summary_text = ?, audio_path = ?, error_message = ?, updated_at = ?
         WHERE id = ?`,
		digest.Status,
		nullableString(digest.SummaryText),
		nullableString(digest.AudioPath),
		nullableString(digest.ErrorMessage),
		digest.UpdatedAt.Format(time.RFC3339Nano),
		digest.ID,
	)
	if err != nil {
		return fmt.Errorf("update digest: %w", err)
	}
	return nil
}

// DigestItems loads the full item rows for a digest in composition order.
func (s *Store) DigestItems(ctx context.Context, digestID int64) ([]*Item, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+prefixColumns("i", itemColumns)+`
         FROM items i
         JOIN digest_items di ON di.item_id = i.id
         WHERE di.digest_id = ?
         ORDER BY di.position`,
		digestID,
	)
	if err != nil {
		return nil, fmt.Errorf("digest items: %w", err)
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

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}

func (s *Store) digestItemIDs(ctx context.Context, digestID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT item_id FROM digest_items WHERE digest_id = ? ORDER BY position`,
		digestID,
	)
	if err != nil {
		return nil, fmt.Errorf("digest item ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanDigest(scanner interface{ Scan(dest ...any) error }) (*Digest, error) {
	var (
		id           int64
		statusStr    string
		summaryText  sql.NullString
		audioPath    sql.NullString
		errorMessage sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(&id, &statusStr, &summaryText, &audioPath, &errorMessage, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	digest := &Digest{
		ID:           id,
		Status:       Status(statusStr),
		SummaryText:  summaryText.String,
		AudioPath:    audioPath.String,
		ErrorMessage: errorMessage.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		digest.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		digest.UpdatedAt = updated
	}
	return digest, nil
}
