package services_test

import (
	"errors"
	"strings"
	"testing"

	"briefcast/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	cause := errors.New("connection refused")
	err := services.Wrap(services.ErrExternalTool, "process", "acquire audio", "yt-dlp failed", cause)

	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool marker, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	for _, want := range []string{"process", "acquire audio", "yt-dlp failed", "connection refused"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err.Error(), want)
		}
	}
}

func TestClassifyReportsTaxonomyBucket(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{services.Wrap(services.ErrExternalTool, "ytdlp", "download", "", errors.New("403")), "external_tool"},
		{services.Wrap(services.ErrValidation, "llm", "complete", "prompt required", nil), "validation"},
		{services.Wrap(services.ErrConfiguration, "llm", "complete", "api key required", nil), "configuration"},
		{services.Wrap(services.ErrNotFound, "records", "get item", "", nil), "not_found"},
		{services.Wrap(services.ErrTransient, "llm", "complete", "", errors.New("timeout")), "transient"},
		{errors.New("plain failure"), "unclassified"},
		{nil, "unclassified"},
	}
	for _, tc := range cases {
		if got := services.Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected ErrTransient fallback, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected generic detail, got %q", err.Error())
	}
}
