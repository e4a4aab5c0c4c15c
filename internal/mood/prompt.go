package mood

import (
	"encoding/json"
	"fmt"
	"strings"
)

const vibeTemplate = `You are a music expert. Analyze the user's mood and determine the best musical vibe for them, taking into account their language preference.

Mood: %s
Language Preference: %s

Respond with a short, descriptive search query (2-3 words) that would find a good playlist on Spotify. For example: "feel good pop", "sad rap", "upbeat workout", "chill ambient", "summer indie".
Return JSON of the form {"vibe": "<query>"}.`

// EmotionPrompt asks a vision model for the dominant emotion of a face.
const EmotionPrompt = `You are an expert in analyzing human emotions from facial expressions. Analyze the provided image and describe the person's dominant emotion in a single word.
Return JSON of the form {"emotion": "<word>"}.`

// VibePrompt renders the vibe instruction with both inputs embedded verbatim.
func VibePrompt(moodText, language string) string {
	return fmt.Sprintf(vibeTemplate, moodText, language)
}

// DecodeVibe extracts the vibe from a model reply. JSON replies are
// preferred; a bare phrase is accepted as-is.
func DecodeVibe(raw string) (VibeResult, error) {
	var res VibeResult
	value := decodeField(raw, func() (string, bool) {
		if err := json.Unmarshal([]byte(stripFence(raw)), &res); err != nil {
			return "", false
		}
		return res.Vibe, true
	})
	if value == "" {
		return VibeResult{}, ErrEmptyResult
	}
	return VibeResult{Vibe: value}, nil
}

// DecodeEmotion extracts the emotion word from a model reply.
func DecodeEmotion(raw string) (EmotionResult, error) {
	var res EmotionResult
	value := decodeField(raw, func() (string, bool) {
		if err := json.Unmarshal([]byte(stripFence(raw)), &res); err != nil {
			return "", false
		}
		return res.Emotion, true
	})
	if value == "" {
		return EmotionResult{}, ErrEmptyResult
	}
	return EmotionResult{Emotion: value}, nil
}

// decodeField runs fromJSON and falls back to the raw text when the reply is not JSON.
func decodeField(raw string, fromJSON func() (string, bool)) string {
	value, ok := fromJSON()
	if !ok {
		value = raw
		if strings.HasPrefix(strings.TrimSpace(value), "{") {
			// Malformed JSON is not a usable phrase.
			return ""
		}
	}
	return strings.Trim(strings.TrimSpace(value), `"'.`)
}

// stripFence removes a surrounding markdown code fence some models add.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
