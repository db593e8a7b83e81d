// Package chroma is a minimal REST client for a Chroma vector database,
// covering collection creation and document upserts.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Config captures runtime settings for the index client.
type Config struct {
	BaseURL        string
	Collection     string
	TimeoutSeconds int
}

// Client talks to a Chroma server over its v1 HTTP API. It is safe for
// concurrent use by multiple workers.
type Client struct {
	cfg        Config
	httpClient *http.Client

	mu           sync.Mutex
	collectionID string
}

// Document is one chunk queued for indexing.
type Document struct {
	ID        string
	Text      string
	Embedding []float64
	Metadata  map[string]any
}

// NewClient constructs an index client.
func NewClient(cfg Config) *Client {
	timeout := 30 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient overrides the default HTTP client (for testing).
func (c *Client) WithHTTPClient(client *http.Client) {
	if client != nil {
		c.httpClient = client
	}
}

type collectionResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EnsureCollection creates the configured collection if needed and caches
// its identifier for subsequent upserts.
func (c *Client) EnsureCollection(ctx context.Context) error {
	_, err := c.ensureCollection(ctx)
	return err
}

// ensureCollection resolves the collection id exactly once. The lock covers
// the whole lookup so concurrent workers never race on the cached id or
// issue duplicate create calls.
func (c *Client) ensureCollection(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.collectionID != "" {
		return c.collectionID, nil
	}
	if c.cfg.BaseURL == "" {
		return "", errors.New("chroma: base url not configured")
	}
	if strings.TrimSpace(c.cfg.Collection) == "" {
		return "", errors.New("chroma: collection name not configured")
	}

	payload := map[string]any{
		"name":          c.cfg.Collection,
		"get_or_create": true,
	}
	body, err := c.post(ctx, "/api/v1/collections", payload)
	if err != nil {
		return "", fmt.Errorf("chroma: ensure collection: %w", err)
	}

	var decoded collectionResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("chroma: decode collection: %w", err)
	}
	if decoded.ID == "" {
		return "", errors.New("chroma: collection response missing id")
	}
	c.collectionID = decoded.ID
	return c.collectionID, nil
}

// Upsert writes documents with precomputed embeddings into the collection.
func (c *Client) Upsert(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	collectionID, err := c.ensureCollection(ctx)
	if err != nil {
		return err
	}

	ids := make([]string, len(docs))
	texts := make([]string, len(docs))
	embeddings := make([][]float64, len(docs))
	metadatas := make([]map[string]any, len(docs))
	for i, doc := range docs {
		if doc.ID == "" {
			return fmt.Errorf("chroma: document %d missing id", i)
		}
		if len(doc.Embedding) == 0 {
			return fmt.Errorf("chroma: document %q missing embedding", doc.ID)
		}
		ids[i] = doc.ID
		texts[i] = doc.Text
		embeddings[i] = doc.Embedding
		metadatas[i] = doc.Metadata
	}

	payload := map[string]any{
		"ids":        ids,
		"documents":  texts,
		"embeddings": embeddings,
		"metadatas":  metadatas,
	}
	if _, err := c.post(ctx, "/api/v1/collections/"+collectionID+"/upsert", payload); err != nil {
		return fmt.Errorf("chroma: upsert: %w", err)
	}
	return nil
}

// Health verifies the server is reachable.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/api/v1/heartbeat", nil)
	if err != nil {
		return fmt.Errorf("chroma: new request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chroma: heartbeat: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("chroma: heartbeat http %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
