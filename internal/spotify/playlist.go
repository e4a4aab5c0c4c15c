package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

// SearchPlaylist returns the first playlist matching query, or nil when the
// catalog has no match. No re-ranking or pagination is performed.
func (c *Client) SearchPlaylist(ctx context.Context, token *oauth2.Token, query string) (*PlaylistSummary, error) {
	if err := c.wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	result, err := c.api(token).Search(ctx, query, spotify.SearchTypePlaylist, spotify.Limit(1))
	if err != nil {
		return nil, fmt.Errorf("searching playlists: %w", apiError(err))
	}

	if result == nil || result.Playlists == nil || len(result.Playlists.Playlists) == 0 {
		return nil, nil
	}

	// The catalog occasionally returns null entries; a null first item is no match.
	first := result.Playlists.Playlists[0]
	if first.ID == "" {
		return nil, nil
	}

	return &PlaylistSummary{
		ID:          first.ID.String(),
		Name:        first.Name,
		Description: first.Description,
		ExternalURL: first.ExternalURLs["spotify"],
	}, nil
}
