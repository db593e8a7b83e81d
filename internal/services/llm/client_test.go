package llm_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"briefcast/internal/services/llm"
)

func newTestClient(t *testing.T, handler http.Handler) *llm.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return llm.NewClient(llm.Config{
		APIKey:         "test-key",
		BaseURL:        server.URL,
		Model:          "test-model",
		EmbeddingModel: "test-embed",
	}, llm.WithSleeper(func(time.Duration) {}))
}

func TestCompleteJSONReturnsContent(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`))
	}))

	content, err := client.CompleteJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if content != `{"ok":true}` {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestCompleteJSONRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "busy", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	}))

	if _, err := client.CompleteJSON(context.Background(), "system", "user"); err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestCompleteJSONDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))

	if _, err := client.CompleteJSON(context.Background(), "system", "user"); err == nil {
		t.Fatal("expected error for http 400")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestCompleteTextRequiresPrompts(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be reached")
	}))

	if _, err := client.CompleteText(context.Background(), "", "user"); err == nil {
		t.Fatal("expected error for missing system prompt")
	}
	if _, err := client.CompleteText(context.Background(), "system", " "); err == nil {
		t.Fatal("expected error for missing user prompt")
	}
}

func TestEmbedReturnsVectorsInInputOrder(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0.2]},{"index":0,"embedding":[0.1]}]}`))
	}))

	vectors, err := client.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vectors) != 2 || vectors[0][0] != 0.1 || vectors[1][0] != 0.2 {
		t.Fatalf("unexpected vectors %v", vectors)
	}
}

func TestDecodeLLMJSONHandlesFencesAndProse(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	cases := []string{
		`{"name":"direct"}`,
		"```json\n{\"name\":\"direct\"}\n```",
		"Here is the JSON you asked for: {\"name\":\"direct\"} hope that helps",
	}
	for idx, raw := range cases {
		var decoded payload
		if err := llm.DecodeLLMJSON(raw, &decoded); err != nil {
			t.Fatalf("case %d: DecodeLLMJSON: %v", idx, err)
		}
		if decoded.Name != "direct" {
			t.Fatalf("case %d: unexpected name %q", idx, decoded.Name)
		}
	}

	var decoded payload
	if err := llm.DecodeLLMJSON("not json at all", &decoded); err == nil {
		t.Fatal("expected error for non-JSON payload")
	}
	if err := llm.DecodeLLMJSON("  ", &decoded); err == nil {
		t.Fatal("expected error for empty payload")
	}
}
