package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Segment is one time-aligned piece of a transcript.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Transcript is the ordered list of segments produced by the transcriber.
type Transcript struct {
	Segments []Segment `json:"segments"`
}

// Flatten concatenates segment text into a single string for the summarizer
// and the indexer.
func (t Transcript) Flatten() string {
	parts := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// IsEmpty reports whether the transcript carries no usable text.
func (t Transcript) IsEmpty() bool {
	return t.Flatten() == ""
}

// ParseTranscript decodes a stored transcript JSON payload.
func ParseTranscript(raw string) (Transcript, error) {
	var transcript Transcript
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return transcript, nil
	}
	if err := json.Unmarshal([]byte(trimmed), &transcript); err != nil {
		return Transcript{}, fmt.Errorf("parse transcript: %w", err)
	}
	return transcript, nil
}

// Transcript decodes the item's stored transcript.
func (i *Item) Transcript() (Transcript, error) {
	return ParseTranscript(i.TranscriptJSON)
}

// SetTranscript encodes and stores the transcript on the item.
func (i *Item) SetTranscript(transcript Transcript) error {
	encoded, err := json.Marshal(transcript)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	i.TranscriptJSON = string(encoded)
	return nil
}

// Summary is the fixed tagged structure produced by the item summarizer:
// a headline, a one-sentence synopsis, and a bullet list.
type Summary struct {
	Headline string   `json:"headline"`
	Synopsis string   `json:"synopsis"`
	Bullets  []string `json:"bullets"`
}

// Validate enforces the summary contract at the summarizer boundary.
func (s Summary) Validate() error {
	if strings.TrimSpace(s.Headline) == "" {
		return errors.New("summary headline is empty")
	}
	if strings.TrimSpace(s.Synopsis) == "" {
		return errors.New("summary synopsis is empty")
	}
	if len(s.Bullets) == 0 {
		return errors.New("summary has no bullet points")
	}
	for idx, bullet := range s.Bullets {
		if strings.TrimSpace(bullet) == "" {
			return fmt.Errorf("summary bullet %d is empty", idx+1)
		}
	}
	return nil
}

// ParseSummary decodes a stored summary JSON payload.
func ParseSummary(raw string) (Summary, error) {
	var summary Summary
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return summary, errors.New("summary is empty")
	}
	if err := json.Unmarshal([]byte(trimmed), &summary); err != nil {
		return Summary{}, fmt.Errorf("parse summary: %w", err)
	}
	return summary, nil
}

// Summary decodes the item's stored summary.
func (i *Item) Summary() (Summary, error) {
	return ParseSummary(i.SummaryJSON)
}

// SetSummary validates, encodes, and stores the summary on the item.
func (i *Item) SetSummary(summary Summary) error {
	if err := summary.Validate(); err != nil {
		return err
	}
	encoded, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	i.SummaryJSON = string(encoded)
	return nil
}
