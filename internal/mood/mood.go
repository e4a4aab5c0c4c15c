// Package mood defines the model-backed capabilities that turn free-form
// mood text or a face photo into a short label usable as a catalog search
// query, along with the prompts and response decoding they share.
package mood

import (
	"context"
	"errors"
)

// ErrEmptyResult is returned when a model answers with no usable label.
var ErrEmptyResult = errors.New("model returned an empty result")

// VibeResult is a short phrase (2-3 words) intended as a search query fragment.
type VibeResult struct {
	Vibe string `json:"vibe"`
}

// EmotionResult is a single-word emotion label.
type EmotionResult struct {
	Emotion string `json:"emotion"`
}

// VibeResolver maps mood text and a language preference to a vibe.
// Implementations call a generative model, so results are not deterministic.
type VibeResolver interface {
	ResolveVibe(ctx context.Context, moodText, language string) (VibeResult, error)
}

// EmotionDetector maps a face photo to a single emotion word.
type EmotionDetector interface {
	DetectEmotion(ctx context.Context, photo Image) (EmotionResult, error)
}
