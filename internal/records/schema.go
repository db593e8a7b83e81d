package records

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS items (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        source_url TEXT NOT NULL UNIQUE,
        title TEXT,
        thumbnail_url TEXT,
        published_at TEXT,
        speaker TEXT,
        status TEXT NOT NULL,
        transcript_json TEXT,
        summary_json TEXT,
        error_message TEXT,
        created_at TEXT NOT NULL,
        updated_at TEXT NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS idx_items_status ON items(status)`,
	`CREATE TABLE IF NOT EXISTS digests (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        status TEXT NOT NULL,
        summary_text TEXT,
        audio_path TEXT,
        error_message TEXT,
        created_at TEXT NOT NULL,
        updated_at TEXT NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS digest_items (
        digest_id INTEGER NOT NULL REFERENCES digests(id),
        item_id INTEGER NOT NULL REFERENCES items(id),
        position INTEGER NOT NULL,
        PRIMARY KEY (digest_id, item_id)
    )`,
	`CREATE INDEX IF NOT EXISTS idx_digest_items_item ON digest_items(item_id)`,
}

func (s *Store) applyMigrations(ctx context.Context) error {
	for idx, statement := range migrations {
		if _, err := s.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("apply migration %d: %w", idx+1, err)
		}
	}
	return nil
}
