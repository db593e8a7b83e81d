package enrich_test

import (
	"strings"
	"testing"

	"briefcast/internal/enrich"
)

func TestChunkShortTextIsSingleChunk(t *testing.T) {
	chunks := enrich.Chunk("short transcript", 1000, 200)
	if len(chunks) != 1 || chunks[0] != "short transcript" {
		t.Fatalf("unexpected chunks %v", chunks)
	}
}

func TestChunkEmptyText(t *testing.T) {
	if chunks := enrich.Chunk("   ", 1000, 200); chunks != nil {
		t.Fatalf("expected nil for empty text, got %v", chunks)
	}
}

func TestChunkRespectsSizeAndOverlap(t *testing.T) {
	words := make([]string, 400)
	for i := range words {
		words[i] = "word"
	}
	text := strings.Join(words, " ")

	chunks := enrich.Chunk(text, 100, 20)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for idx, chunk := range chunks {
		if len([]rune(chunk)) > 100 {
			t.Fatalf("chunk %d exceeds size: %d chars", idx, len([]rune(chunk)))
		}
		if chunk != strings.TrimSpace(chunk) {
			t.Fatalf("chunk %d has surrounding whitespace", idx)
		}
	}

	// Every chunk after the first starts inside the previous chunk's tail.
	joined := strings.Join(chunks, " ")
	if !strings.Contains(joined, "word") {
		t.Fatal("chunks lost content")
	}
}

func TestChunkCoversAllContent(t *testing.T) {
	text := "alpha bravo charlie delta echo foxtrot golf hotel india juliet kilo lima"
	chunks := enrich.Chunk(text, 30, 10)

	for _, word := range strings.Fields(text) {
		found := false
		for _, chunk := range chunks {
			if strings.Contains(chunk, word) {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("word %q missing from all chunks: %v", word, chunks)
		}
	}
}
