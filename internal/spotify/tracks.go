package spotify

import (
	"context"
	"fmt"
	"strings"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

// trackPageSize is the number of playlist items requested. No further pages are fetched.
const trackPageSize = 10

// FetchTracks returns up to ten tracks of a playlist in catalog order.
// Items that are not tracks (podcast episodes, removed tracks) are skipped.
func (c *Client) FetchTracks(ctx context.Context, token *oauth2.Token, playlistID string) ([]Track, error) {
	if err := c.wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	page, err := c.api(token).GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(trackPageSize))
	if err != nil {
		return nil, fmt.Errorf("fetching playlist tracks: %w", apiError(err))
	}

	tracks := make([]Track, 0, len(page.Items))
	for _, item := range page.Items {
		if item.Track.Track == nil {
			continue
		}
		tracks = append(tracks, convertTrack(*item.Track.Track))
	}

	return tracks, nil
}

// convertTrack converts a catalog FullTrack into a display Track.
func convertTrack(t spotify.FullTrack) Track {
	// Join artist names
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	albumArt := PlaceholderAlbumArt
	if len(t.Album.Images) > 0 && t.Album.Images[0].URL != "" {
		albumArt = t.Album.Images[0].URL
	}

	return Track{
		Name:        t.Name,
		Artist:      strings.Join(artists, ", "),
		AlbumArtURL: albumArt,
		ExternalURL: t.ExternalURLs["spotify"],
		DisplayHint: trackDisplayHint,
	}
}
