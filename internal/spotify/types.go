package spotify

// PlaceholderAlbumArt is shown for tracks whose album has no images.
const PlaceholderAlbumArt = "https://placehold.co/100x100.png"

// trackDisplayHint is attached to every track for UI theming only.
const trackDisplayHint = "song album"

// PlaylistSummary is the first playlist returned by a catalog search.
type PlaylistSummary struct {
	ID          string
	Name        string
	Description string // may be empty
	ExternalURL string
}

// Track is a display-only projection of a catalog track.
type Track struct {
	Name        string `json:"name"`
	Artist      string `json:"artist"` // Comma-separated artist names
	AlbumArtURL string `json:"albumArt"`
	ExternalURL string `json:"url"`
	DisplayHint string `json:"displayHint,omitempty"`
}
