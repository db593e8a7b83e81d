// Package youtube fetches video metadata from the YouTube Data API.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const defaultBaseURL = "https://www.googleapis.com/youtube/v3"

var (
	watchIDPattern = regexp.MustCompile(`[?&]v=([\w-]+)`)
	shortIDPattern = regexp.MustCompile(`youtu\.be/([\w-]+)`)
)

// Metadata is the subset of video details the pipeline records.
type Metadata struct {
	Title        string
	ThumbnailURL string
	PublishedAt  *time.Time
}

// Config captures runtime settings for the metadata client.
type Config struct {
	APIKey         string
	BaseURL        string
	TimeoutSeconds int
}

// Client talks to the YouTube Data API videos endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient constructs a metadata client.
func NewClient(cfg Config) *Client {
	timeout := 15 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
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

// ExtractVideoID pulls the video identifier out of watch and short-link URLs.
func ExtractVideoID(sourceURL string) (string, bool) {
	if match := watchIDPattern.FindStringSubmatch(sourceURL); len(match) == 2 {
		return match[1], true
	}
	if match := shortIDPattern.FindStringSubmatch(sourceURL); len(match) == 2 {
		return match[1], true
	}
	return "", false
}

type videosResponse struct {
	Items []struct {
		Snippet struct {
			Title       string `json:"title"`
			PublishedAt string `json:"publishedAt"`
			Thumbnails  map[string]struct {
				URL string `json:"url"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

// FetchMetadata looks up snippet metadata for a video URL. Callers treat
// failures as non-fatal; an item processes fine without a title.
func (c *Client) FetchMetadata(ctx context.Context, sourceURL string) (Metadata, error) {
	var meta Metadata
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return meta, errors.New("youtube metadata: api key not configured")
	}
	videoID, ok := ExtractVideoID(sourceURL)
	if !ok {
		return meta, fmt.Errorf("youtube metadata: no video id in %q", sourceURL)
	}

	query := url.Values{}
	query.Set("part", "snippet")
	query.Set("id", videoID)
	query.Set("key", c.cfg.APIKey)
	endpoint := c.cfg.BaseURL + "/videos?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return meta, fmt.Errorf("youtube metadata: new request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return meta, fmt.Errorf("youtube metadata: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return meta, fmt.Errorf("youtube metadata: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return meta, fmt.Errorf("youtube metadata: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded videosResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return meta, fmt.Errorf("youtube metadata: decode response: %w", err)
	}
	if len(decoded.Items) == 0 {
		return meta, fmt.Errorf("youtube metadata: no items for video %s", videoID)
	}

	snippet := decoded.Items[0].Snippet
	meta.Title = snippet.Title
	// Prefer the largest thumbnail the API offers.
	for _, size := range []string{"high", "medium", "default"} {
		if thumb, ok := snippet.Thumbnails[size]; ok && thumb.URL != "" {
			meta.ThumbnailURL = thumb.URL
			break
		}
	}
	if snippet.PublishedAt != "" {
		if published, err := time.Parse(time.RFC3339, snippet.PublishedAt); err == nil {
			utc := published.UTC()
			meta.PublishedAt = &utc
		}
	}
	return meta, nil
}
