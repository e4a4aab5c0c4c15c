package playlist

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by Service matches exactly one of
// these with errors.Is.
var (
	ErrValidation     = errors.New("invalid input")
	ErrConfiguration  = errors.New("configuration error")
	ErrAuthentication = errors.New("authentication error")
	ErrCatalog        = errors.New("catalog error")
	ErrNotFound       = errors.New("playlist not found")
	ErrModel          = errors.New("model error")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is reports ErrValidation so callers can match the category.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError is returned when the catalog has no playlist for a vibe.
type NotFoundError struct {
	Vibe string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no playlist found for vibe %q", e.Vibe)
}

// Is reports ErrNotFound so callers can match the category.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ModelError wraps a failed vibe or emotion call.
type ModelError struct {
	Op  string // opResolveVibe or opDetectEmotion
	Err error
}

const (
	opResolveVibe   = "resolve vibe"
	opDetectEmotion = "detect emotion"
)

func (e *ModelError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ModelError) Unwrap() []error {
	return []error{ErrModel, e.Err}
}

// categorize tags err with its category sentinel.
func categorize(category, err error) error {
	if errors.Is(err, category) {
		return err
	}
	return fmt.Errorf("%w: %w", category, err)
}

// UserMessage converts a pipeline error into a message safe to show to the
// person using the app. Messages differ per category but never include
// internal detail.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}

	var notFoundErr *NotFoundError
	if errors.As(err, &notFoundErr) {
		return fmt.Sprintf("Could not find a suitable playlist on Spotify for %q. Try a different mood!", notFoundErr.Vibe)
	}

	var modelErr *ModelError
	if errors.As(err, &modelErr) && modelErr.Op == opDetectEmotion {
		return "Could not read a mood from your photo. Please try again with a clearer picture."
	}

	switch {
	case errors.Is(err, ErrValidation):
		return "Invalid input."
	case errors.Is(err, ErrModel):
		return "Could not determine the vibe from your mood. Please try being more descriptive."
	case errors.Is(err, ErrConfiguration):
		return "Spotify is not configured on this server. Please try again later."
	case errors.Is(err, ErrAuthentication):
		return "Could not connect to Spotify. Please try again later."
	case errors.Is(err, ErrCatalog):
		return "Spotify is not responding right now. Please try again."
	default:
		return "An unexpected error occurred. Please try again."
	}
}
