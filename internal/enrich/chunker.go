package enrich

import "strings"

// Chunk splits text into overlapping windows of at most size characters.
// Consecutive chunks share overlap characters so sentences cut at a boundary
// stay searchable. Splits prefer whitespace near the window edge to avoid
// breaking words.
func Chunk(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if size <= 0 {
		return []string{text}
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	var chunks []string
	step := size - overlap
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end >= len(runes) {
			chunk := strings.TrimSpace(string(runes[start:]))
			if chunk != "" {
				chunks = append(chunks, chunk)
			}
			break
		}
		cut := end
		// Walk back to the nearest space so words stay intact, but never
		// shrink the window below the overlap step.
		for cut > start+step && runes[cut-1] != ' ' {
			cut--
		}
		if cut == start+step {
			cut = end
		}
		chunk := strings.TrimSpace(string(runes[start:cut]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		step = cut - start - overlap
		if step <= 0 {
			step = cut - start
		}
	}
	return chunks
}
