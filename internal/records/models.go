package records

import (
	"strings"
	"time"
)

// Status represents the lifecycle of an item or digest.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status permits no further automatic transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Item represents one unit of source content progressing through the pipeline.
type Item struct {
	ID             int64
	SourceURL      string
	Title          string
	ThumbnailURL   string
	PublishedAt    *time.Time
	Speaker        string
	Status         Status
	TranscriptJSON string
	SummaryJSON    string
	ErrorMessage   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SetFailed marks the item as failed with the given error message.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
}

// HasSummary reports whether a parsed, non-empty summary is stored.
func (i *Item) HasSummary() bool {
	summary, err := ParseSummary(i.SummaryJSON)
	return err == nil && summary.Synopsis != ""
}

// Digest captures one synthesized narrative-plus-audio artifact compiled
// from a fixed set of items.
type Digest struct {
	ID           int64
	Status       Status
	SummaryText  string
	AudioPath    string
	ErrorMessage string
	ItemIDs      []int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HealthSummary describes aggregated record counts per lifecycle state.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Failed     int
}
