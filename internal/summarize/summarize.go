// Package summarize turns transcripts into structured item summaries and
// composes the narrative script for digests.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"briefcast/internal/records"
	"briefcast/internal/services/llm"
)

const itemSystemPrompt = "You are an experienced news analyst. Generate a structured summary " +
	"from the provided transcript. The output must be a valid JSON object."

const itemUserPromptTemplate = `Analyze the following transcript and generate a summary. Return a JSON
object with three keys: "headline" (a catchy, newspaper-style headline), "synopsis" (a single,
concise sentence), and "bullets" (a list of 3-5 important string bullet points). The bullets must
be information dense and cover the key quotes and takeaways, not restate the headline or synopsis.

SPECIFIC INSTRUCTIONS:
1. The "bullets" value must be a JSON list of strings.
2. Correctly escape any special characters like quotes or newlines inside JSON strings.
3. Do not output any text, explanation, or markdown before or after the JSON object.

Transcript: %s`

const digestSystemPrompt = "You are the host of a daily audio news digest. " +
	"Write natural, conversational scripts suitable for speech synthesis."

const digestUserPromptTemplate = `Write a short, engaging monologue that summarizes the key points
from today's items. The monologue should be approximately 150-200 words.

KEY POINTS FROM TODAY:
%s

INSTRUCTIONS:
- Write a natural, conversational script suitable for a podcast.
- Start with a brief welcome and end with a short sign-off.
- Weave the key points together into a coherent narrative. Do not just list them.
- Maintain a professional and engaging tone.
- Output plain text only, no headings or markdown.`

type completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	CompleteText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Service generates summaries through a chat completion model.
type Service struct {
	client completer
}

// NewService constructs a summarizer.
func NewService(client completer) *Service {
	return &Service{client: client}
}

// ItemSummary produces a validated structured summary for a transcript.
func (s *Service) ItemSummary(ctx context.Context, transcriptText string) (records.Summary, error) {
	var summary records.Summary
	transcriptText = strings.TrimSpace(transcriptText)
	if transcriptText == "" {
		return summary, errors.New("summarize item: transcript is empty")
	}
	if s.client == nil {
		return summary, errors.New("summarize item: no model client configured")
	}

	content, err := s.client.CompleteJSON(ctx, itemSystemPrompt, fmt.Sprintf(itemUserPromptTemplate, transcriptText))
	if err != nil {
		return summary, fmt.Errorf("summarize item: %w", err)
	}
	if err := llm.DecodeLLMJSON(content, &summary); err != nil {
		return summary, fmt.Errorf("summarize item: parse payload: %w", err)
	}
	if err := summary.Validate(); err != nil {
		return records.Summary{}, fmt.Errorf("summarize item: %w", err)
	}
	return summary, nil
}

// DigestScript composes a spoken-word narrative from per-item synopses.
func (s *Service) DigestScript(ctx context.Context, synopses []string) (string, error) {
	cleaned := make([]string, 0, len(synopses))
	for _, synopsis := range synopses {
		if trimmed := strings.TrimSpace(synopsis); trimmed != "" {
			cleaned = append(cleaned, "- "+trimmed)
		}
	}
	if len(cleaned) == 0 {
		return "", errors.New("summarize digest: no synopses provided")
	}
	if s.client == nil {
		return "", errors.New("summarize digest: no model client configured")
	}

	prompt := fmt.Sprintf(digestUserPromptTemplate, strings.Join(cleaned, "\n"))
	script, err := s.client.CompleteText(ctx, digestSystemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("summarize digest: %w", err)
	}
	script = strings.TrimSpace(script)
	if script == "" {
		return "", errors.New("summarize digest: model returned empty script")
	}
	return script, nil
}
