// Package ollama resolves vibes and detects emotions with models served by
// a local Ollama instance. Requests go to the /api/chat endpoint in
// non-streaming JSON mode; images are attached to the user message.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/justestif/vibesync/internal/mood"
)

const (
	defaultBaseURL     = "http://localhost:11434"
	defaultTextModel   = "llama3.2"
	defaultVisionModel = "llava"
)

// Client implements mood.VibeResolver and mood.EmotionDetector.
type Client struct {
	baseURL     string
	textModel   string
	visionModel string
	httpClient  *http.Client
}

var (
	_ mood.VibeResolver    = (*Client)(nil)
	_ mood.EmotionDetector = (*Client)(nil)
)

type chatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error,omitempty"`
}

// Option configures a Client.
type Option func(*Client)

// WithModels overrides the text and vision model names. Empty values keep the defaults.
func WithModels(text, vision string) Option {
	return func(c *Client) {
		if text != "" {
			c.textModel = text
		}
		if vision != "" {
			c.visionModel = vision
		}
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a client for the Ollama server at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	c := &Client{
		baseURL:     baseURL,
		textModel:   defaultTextModel,
		visionModel: defaultVisionModel,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResolveVibe asks the text model for a 2-3 word playlist search phrase.
func (c *Client) ResolveVibe(ctx context.Context, moodText, language string) (mood.VibeResult, error) {
	content, err := c.chat(ctx, c.textModel, chatMessage{
		Role:    "user",
		Content: mood.VibePrompt(moodText, language),
	})
	if err != nil {
		return mood.VibeResult{}, err
	}
	return mood.DecodeVibe(content)
}

// DetectEmotion attaches the photo to the prompt and asks the vision model for one word.
func (c *Client) DetectEmotion(ctx context.Context, photo mood.Image) (mood.EmotionResult, error) {
	content, err := c.chat(ctx, c.visionModel, chatMessage{
		Role:    "user",
		Content: mood.EmotionPrompt,
		Images:  []string{photo.Base64()},
	})
	if err != nil {
		return mood.EmotionResult{}, err
	}
	return mood.DecodeEmotion(content)
}

// chat sends a single user message and returns the assistant's content.
func (c *Client) chat(ctx context.Context, model string, msg chatMessage) (string, error) {
	payload := chatRequest{
		Model:    model,
		Stream:   false,
		Format:   "json",
		Messages: []chatMessage{msg},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("ollama: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ollama: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("ollama: unexpected status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("ollama: decode response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("ollama: %s", parsed.Error)
	}

	return parsed.Message.Content, nil
}
