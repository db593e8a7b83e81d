package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"briefcast/internal/config"
	"briefcast/internal/notifications"
	"briefcast/internal/records"
)

var titleCaser = cases.Title(language.Und)

func newNotifier(cfg *config.Config) notifications.Service {
	return notifications.NewService(cfg)
}

func statusLabel(status records.Status) string {
	return titleCaser.String(string(status))
}

func parseStatuses(values []string) ([]records.Status, error) {
	statuses := make([]records.Status, 0, len(values))
	for _, value := range values {
		status := records.Status(strings.ToLower(strings.TrimSpace(value)))
		switch status {
		case records.StatusPending, records.StatusProcessing, records.StatusCompleted, records.StatusFailed:
			statuses = append(statuses, status)
		default:
			return nil, fmt.Errorf("invalid status %q", value)
		}
	}
	return statuses, nil
}

func parsePositiveIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Local().Format("2006-01-02 15:04")
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 1 {
		return string(runes[:limit])
	}
	return string(runes[:limit-1]) + "…"
}
