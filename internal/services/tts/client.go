// Package tts synthesizes speech through the Google Cloud Text-to-Speech
// REST API.
package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const defaultBaseURL = "https://texttospeech.googleapis.com/v1"

// Config captures runtime settings for speech synthesis.
type Config struct {
	APIKey         string
	BaseURL        string
	Voice          string
	LanguageCode   string
	TimeoutSeconds int
}

// Client wraps the text:synthesize endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient constructs a synthesis client.
func NewClient(cfg Config) *Client {
	timeout := 60 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if strings.TrimSpace(cfg.Voice) == "" {
		cfg.Voice = "en-US-Standard-C"
	}
	if strings.TrimSpace(cfg.LanguageCode) == "" {
		cfg.LanguageCode = "en-US"
	}
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

type synthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string `json:"audioEncoding"`
	} `json:"audioConfig"`
}

type synthesizeResponse struct {
	AudioContent string `json:"audioContent"`
	Error        *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Synthesize converts text into MP3 bytes.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("tts synthesize: text required")
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, errors.New("tts synthesize: api key required")
	}

	var payload synthesizeRequest
	payload.Input.Text = text
	payload.Voice.LanguageCode = c.cfg.LanguageCode
	payload.Voice.Name = c.cfg.Voice
	payload.AudioConfig.AudioEncoding = "MP3"

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("tts synthesize: encode body: %w", err)
	}
	endpoint := c.cfg.BaseURL + "/text:synthesize?key=" + c.cfg.APIKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("tts synthesize: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts synthesize: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tts synthesize: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts synthesize: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded synthesizeResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("tts synthesize: decode response: %w", err)
	}
	if decoded.Error != nil {
		return nil, fmt.Errorf("tts synthesize: api error: %s", strings.TrimSpace(decoded.Error.Message))
	}
	if decoded.AudioContent == "" {
		return nil, errors.New("tts synthesize: empty audio content")
	}

	audio, err := base64.StdEncoding.DecodeString(decoded.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("tts synthesize: decode audio: %w", err)
	}
	return audio, nil
}

// SynthesizeToFile writes synthesized MP3 audio to the given path.
func (c *Client) SynthesizeToFile(ctx context.Context, text, dest string) error {
	audio, err := c.Synthesize(ctx, text)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("tts synthesize: ensure dest dir: %w", err)
	}
	if err := os.WriteFile(dest, audio, 0o644); err != nil {
		return fmt.Errorf("tts synthesize: write audio: %w", err)
	}
	return nil
}
