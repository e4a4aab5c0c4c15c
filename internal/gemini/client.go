// Package gemini resolves vibes and detects emotions with Google's Gemini
// models through the genai SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/justestif/vibesync/internal/mood"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.0-flash"

// ErrMissingAPIKey is returned when no Gemini API key is configured.
var ErrMissingAPIKey = errors.New("missing GEMINI_API_KEY")

// Config holds Gemini client settings.
type Config struct {
	APIKey      string
	TextModel   string
	VisionModel string
	BaseURL     string // optional endpoint override
	HTTPClient  *http.Client
}

// Client implements mood.VibeResolver and mood.EmotionDetector.
type Client struct {
	models      *genai.Models
	textModel   string
	visionModel string
}

var (
	_ mood.VibeResolver    = (*Client)(nil)
	_ mood.EmotionDetector = (*Client)(nil)
)

// New creates a Gemini client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	c := &Client{
		models:      client.Models,
		textModel:   cfg.TextModel,
		visionModel: cfg.VisionModel,
	}
	if c.textModel == "" {
		c.textModel = DefaultModel
	}
	if c.visionModel == "" {
		c.visionModel = DefaultModel
	}
	return c, nil
}

// ResolveVibe asks the text model for a 2-3 word playlist search phrase.
func (c *Client) ResolveVibe(ctx context.Context, moodText, language string) (mood.VibeResult, error) {
	contents := genai.Text(mood.VibePrompt(moodText, language))

	raw, err := c.generate(ctx, c.textModel, contents, "vibe")
	if err != nil {
		return mood.VibeResult{}, err
	}

	return mood.DecodeVibe(raw)
}

// DetectEmotion sends the photo inline and asks for a single emotion word.
func (c *Client) DetectEmotion(ctx context.Context, photo mood.Image) (mood.EmotionResult, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(mood.EmotionPrompt),
		genai.NewPartFromBytes(photo.Data, photo.MIMEType),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	raw, err := c.generate(ctx, c.visionModel, contents, "emotion")
	if err != nil {
		return mood.EmotionResult{}, err
	}

	return mood.DecodeEmotion(raw)
}

// generate requests a JSON object with a single required string field.
func (c *Client) generate(ctx context.Context, model string, contents []*genai.Content, field string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				field: {Type: genai.TypeString},
			},
			Required: []string{field},
		},
	}

	resp, err := c.models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: generating %s: %w", field, err)
	}

	return resp.Text(), nil
}
