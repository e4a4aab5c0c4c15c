package spotify

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/zmb3/spotify/v2"
)

// ErrUnauthorized is returned when the catalog rejects the bearer token.
var ErrUnauthorized = errors.New("catalog rejected the access token")

// apiError tags a 401 from the Web API with ErrUnauthorized.
func apiError(err error) error {
	if statusOf(err) == http.StatusUnauthorized {
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return err
}

func statusOf(err error) int {
	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	var apiErrPtr *spotify.Error
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Status
	}
	return 0
}
