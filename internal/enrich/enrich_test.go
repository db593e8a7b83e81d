package enrich_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"briefcast/internal/enrich"
	"briefcast/internal/records"
	"briefcast/internal/services/chroma"
	"briefcast/internal/testsupport"
)

type stubEmbedder struct {
	inputs [][]string
	err    error
}

func (s *stubEmbedder) Embed(ctx context.Context, inputs []string) ([][]float64, error) {
	s.inputs = append(s.inputs, inputs)
	if s.err != nil {
		return nil, s.err
	}
	vectors := make([][]float64, len(inputs))
	for i := range vectors {
		vectors[i] = []float64{float64(i)}
	}
	return vectors, nil
}

type stubIndexer struct {
	docs []chroma.Document
	err  error
}

func (s *stubIndexer) Upsert(ctx context.Context, docs []chroma.Document) error {
	if s.err != nil {
		return s.err
	}
	s.docs = append(s.docs, docs...)
	return nil
}

func TestEnrichItemIndexesChunks(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	item := testsupport.NewItem(t, store, "https://youtube.com/watch?v=enrich")
	item.Title = "Trade Deadline Update"
	item.Speaker = "Dana Mitchell"
	longText := strings.Repeat("the coach spoke about the roster ", 60)
	if err := item.SetTranscript(records.Transcript{Segments: []records.Segment{{Text: longText}}}); err != nil {
		t.Fatalf("SetTranscript: %v", err)
	}
	if err := store.UpdateItem(ctx, item); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	embedder := &stubEmbedder{}
	indexer := &stubIndexer{}
	svc := enrich.NewService(store, embedder, indexer, enrich.Config{ChunkSize: 200, ChunkOverlap: 40}, nil)

	if err := svc.EnrichItem(ctx, item.ID); err != nil {
		t.Fatalf("EnrichItem: %v", err)
	}
	if len(indexer.docs) < 2 {
		t.Fatalf("expected multiple indexed chunks, got %d", len(indexer.docs))
	}
	first := indexer.docs[0]
	if first.ID != "item-"+strconv.FormatInt(item.ID, 10)+"-chunk-0" {
		t.Fatalf("unexpected doc id %q", first.ID)
	}
	if first.Metadata["speaker"] != "Dana Mitchell" || first.Metadata["title"] != "Trade Deadline Update" {
		t.Fatalf("unexpected metadata %v", first.Metadata)
	}
}

func TestEnrichItemSkipsEmptyTranscript(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	item := testsupport.NewItem(t, store, "https://youtube.com/watch?v=silent")

	embedder := &stubEmbedder{}
	indexer := &stubIndexer{}
	svc := enrich.NewService(store, embedder, indexer, enrich.Config{}, nil)

	if err := svc.EnrichItem(ctx, item.ID); err != nil {
		t.Fatalf("EnrichItem: %v", err)
	}
	if len(embedder.inputs) != 0 || len(indexer.docs) != 0 {
		t.Fatal("expected no embedding or indexing for empty transcript")
	}
}

func TestEnrichItemFailuresDoNotTouchItemStatus(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	item := testsupport.NewItem(t, store, "https://youtube.com/watch?v=indexed")
	item.Status = records.StatusCompleted
	if err := item.SetTranscript(records.Transcript{Segments: []records.Segment{{Text: "short transcript"}}}); err != nil {
		t.Fatalf("SetTranscript: %v", err)
	}
	if err := store.UpdateItem(ctx, item); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	svc := enrich.NewService(store, &stubEmbedder{err: errors.New("embedding api down")}, &stubIndexer{}, enrich.Config{}, nil)
	if err := svc.EnrichItem(ctx, item.ID); err == nil {
		t.Fatal("expected embedding failure to propagate")
	}

	reloaded, err := store.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if reloaded.Status != records.StatusCompleted {
		t.Fatalf("expected item status untouched, got %s", reloaded.Status)
	}
}

func TestEnrichItemMissingItem(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	svc := enrich.NewService(store, &stubEmbedder{}, &stubIndexer{}, enrich.Config{}, nil)
	if err := svc.EnrichItem(context.Background(), 4242); err == nil {
		t.Fatal("expected error for missing item")
	}
}
