// Package speakerid infers the speaker named in a video title. Titles like
// "Coach Dana Mitchell Postgame Press Conference" carry the subject's name;
// a model extracts it so items can be grouped by speaker.
package speakerid

import (
	"context"
	"fmt"
	"strings"

	"briefcast/internal/services/llm"
)

const systemPrompt = "You extract person names from video titles. " +
	"Respond with a JSON object only."

const userPromptTemplate = `Find the full name of the person who is the subject of this video title.
Return a JSON object with one key, "name", holding the person's full name as it appears in the title.
If no person is named, return {"name": ""}.

Title: %s`

type completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Service infers speakers from titles.
type Service struct {
	client completer
}

// NewService constructs a speaker inference service.
func NewService(client completer) *Service {
	return &Service{client: client}
}

// Infer returns the speaker named in the title, or "" when no person is
// found. Callers treat errors as non-fatal; items process fine without a
// speaker.
func (s *Service) Infer(ctx context.Context, title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", nil
	}
	if s.client == nil {
		return "", fmt.Errorf("infer speaker: no model client configured")
	}

	content, err := s.client.CompleteJSON(ctx, systemPrompt, fmt.Sprintf(userPromptTemplate, title))
	if err != nil {
		return "", fmt.Errorf("infer speaker: %w", err)
	}

	var parsed struct {
		Name string `json:"name"`
	}
	if err := llm.DecodeLLMJSON(content, &parsed); err != nil {
		return "", fmt.Errorf("infer speaker: parse payload: %w", err)
	}
	return strings.TrimSpace(parsed.Name), nil
}
