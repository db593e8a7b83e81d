// Package enrich indexes completed transcripts into the vector store. It is
// the fan-out stage after item processing: a chunked transcript is embedded
// and upserted so the collection stays searchable. Enrichment failures never
// touch item status.
package enrich

import (
	"context"
	"fmt"
	"log/slog"

	"briefcast/internal/logging"
	"briefcast/internal/records"
	"briefcast/internal/services/chroma"
)

type embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float64, error)
}

type indexer interface {
	Upsert(ctx context.Context, docs []chroma.Document) error
}

type itemLoader interface {
	GetItem(ctx context.Context, id int64) (*records.Item, error)
}

// Config tunes transcript chunking.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
}

// Service chunks, embeds, and indexes item transcripts.
type Service struct {
	store    itemLoader
	embedder embedder
	indexer  indexer
	cfg      Config
	logger   *slog.Logger
}

// NewService constructs an enrichment service.
func NewService(store itemLoader, embedder embedder, indexer indexer, cfg Config, logger *slog.Logger) *Service {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = 200
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		store:    store,
		embedder: embedder,
		indexer:  indexer,
		cfg:      cfg,
		logger:   logger.With(logging.String(logging.FieldComponent, "enrich")),
	}
}

// EnrichItem indexes one item's transcript. Items without a usable
// transcript are skipped without error.
func (s *Service) EnrichItem(ctx context.Context, itemID int64) error {
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return fmt.Errorf("enrich item %d: %w", itemID, err)
	}
	if item == nil {
		return fmt.Errorf("enrich item %d: item not found", itemID)
	}

	logger := s.logger.With(logging.Int64(logging.FieldItemID, item.ID))

	transcript, err := item.Transcript()
	if err != nil {
		return fmt.Errorf("enrich item %d: %w", itemID, err)
	}
	text := transcript.Flatten()
	if text == "" {
		logger.Info("item has no transcript text, skipping enrichment",
			logging.String(logging.FieldEventType, "enrich_skipped"),
		)
		return nil
	}

	chunks := Chunk(text, s.cfg.ChunkSize, s.cfg.ChunkOverlap)
	logger.Info("indexing transcript chunks",
		logging.Int("chunks", len(chunks)),
		logging.String(logging.FieldEventType, "enrich_started"),
	)

	vectors, err := s.embedder.Embed(ctx, chunks)
	if err != nil {
		return fmt.Errorf("enrich item %d: embed: %w", itemID, err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("enrich item %d: expected %d vectors, got %d", itemID, len(chunks), len(vectors))
	}

	docs := make([]chroma.Document, len(chunks))
	for i, chunk := range chunks {
		metadata := map[string]any{"item_id": item.ID, "chunk": i}
		if item.Speaker != "" {
			metadata["speaker"] = item.Speaker
		}
		if item.Title != "" {
			metadata["title"] = item.Title
		}
		docs[i] = chroma.Document{
			ID:        fmt.Sprintf("item-%d-chunk-%d", item.ID, i),
			Text:      chunk,
			Embedding: vectors[i],
			Metadata:  metadata,
		}
	}

	if err := s.indexer.Upsert(ctx, docs); err != nil {
		return fmt.Errorf("enrich item %d: index: %w", itemID, err)
	}

	logger.Info("transcript indexed",
		logging.Int("chunks", len(chunks)),
		logging.String(logging.FieldEventType, "enrich_completed"),
	)
	return nil
}
