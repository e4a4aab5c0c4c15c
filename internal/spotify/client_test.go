package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

var testToken = &oauth2.Token{AccessToken: "test-token", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}

func TestConvertTrack(t *testing.T) {
	tests := []struct {
		name             string
		track            spotify.FullTrack
		expectedName     string
		expectedArtist   string
		expectedAlbumArt string
		expectedURL      string
	}{
		{
			name: "single artist with album art",
			track: spotify.FullTrack{
				SimpleTrack: spotify.SimpleTrack{
					Name:         "Test Song",
					Artists:      []spotify.SimpleArtist{{Name: "Artist One"}},
					ExternalURLs: map[string]string{"spotify": "https://open.spotify.com/track/1"},
				},
				Album: spotify.SimpleAlbum{
					Images: []spotify.Image{{URL: "https://i.scdn.co/image/large"}, {URL: "https://i.scdn.co/image/small"}},
				},
			},
			expectedName:     "Test Song",
			expectedArtist:   "Artist One",
			expectedAlbumArt: "https://i.scdn.co/image/large",
			expectedURL:      "https://open.spotify.com/track/1",
		},
		{
			name: "multiple artists keep catalog order",
			track: spotify.FullTrack{
				SimpleTrack: spotify.SimpleTrack{
					Name:    "Collab Track",
					Artists: []spotify.SimpleArtist{{Name: "A"}, {Name: "B"}},
				},
			},
			expectedName:     "Collab Track",
			expectedArtist:   "A, B",
			expectedAlbumArt: PlaceholderAlbumArt,
		},
		{
			name: "no album images uses placeholder",
			track: spotify.FullTrack{
				SimpleTrack: spotify.SimpleTrack{
					Name:    "Bare Track",
					Artists: []spotify.SimpleArtist{{Name: "Solo"}},
				},
				Album: spotify.SimpleAlbum{Images: []spotify.Image{}},
			},
			expectedName:     "Bare Track",
			expectedArtist:   "Solo",
			expectedAlbumArt: PlaceholderAlbumArt,
		},
		{
			name: "no artists",
			track: spotify.FullTrack{
				SimpleTrack: spotify.SimpleTrack{
					Name:    "Unknown Track",
					Artists: []spotify.SimpleArtist{},
				},
			},
			expectedName:     "Unknown Track",
			expectedArtist:   "",
			expectedAlbumArt: PlaceholderAlbumArt,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := convertTrack(tt.track)

			if got.Name != tt.expectedName {
				t.Errorf("Name = %q, want %q", got.Name, tt.expectedName)
			}
			if got.Artist != tt.expectedArtist {
				t.Errorf("Artist = %q, want %q", got.Artist, tt.expectedArtist)
			}
			if got.AlbumArtURL != tt.expectedAlbumArt {
				t.Errorf("AlbumArtURL = %q, want %q", got.AlbumArtURL, tt.expectedAlbumArt)
			}
			if got.ExternalURL != tt.expectedURL {
				t.Errorf("ExternalURL = %q, want %q", got.ExternalURL, tt.expectedURL)
			}
			if got.DisplayHint != trackDisplayHint {
				t.Errorf("DisplayHint = %q, want %q", got.DisplayHint, trackDisplayHint)
			}
		})
	}
}

func TestNew_NormalizesBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: DefaultAPIURL},
		{in: "http://example.test/v1", want: "http://example.test/v1/"},
		{in: "http://example.test/v1/", want: "http://example.test/v1/"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := New(tt.in).baseURL; got != tt.want {
				t.Errorf("baseURL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClient_SearchPlaylist(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantNil  bool
		wantErr  bool
		wantName string
		wantDesc string
		wantURL  string
		wantID   string
	}{
		{
			name:   "first item wins",
			status: http.StatusOK,
			body: `{"playlists":{"items":[
				{"id":"pl1","name":"Upbeat Dance Hits","description":"Move!","external_urls":{"spotify":"https://open.spotify.com/playlist/pl1"}},
				{"id":"pl2","name":"Second","description":"","external_urls":{"spotify":"https://open.spotify.com/playlist/pl2"}}
			],"total":2}}`,
			wantID:   "pl1",
			wantName: "Upbeat Dance Hits",
			wantDesc: "Move!",
			wantURL:  "https://open.spotify.com/playlist/pl1",
		},
		{
			name:    "empty result is no match",
			status:  http.StatusOK,
			body:    `{"playlists":{"items":[],"total":0}}`,
			wantNil: true,
		},
		{
			name:    "null first item is no match",
			status:  http.StatusOK,
			body:    `{"playlists":{"items":[null],"total":1}}`,
			wantNil: true,
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `{"error":{"status":500,"message":"boom"}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotQuery, gotType, gotLimit, gotAuth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/search" {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				gotQuery = r.URL.Query().Get("q")
				gotType = r.URL.Query().Get("type")
				gotLimit = r.URL.Query().Get("limit")
				gotAuth = r.Header.Get("Authorization")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			client := New(srv.URL, WithHTTPClient(srv.Client()))
			got, err := client.SearchPlaylist(context.Background(), testToken, "English upbeat dance")

			if (err != nil) != tt.wantErr {
				t.Fatalf("SearchPlaylist() err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			if gotQuery != "English upbeat dance" {
				t.Errorf("q = %q, want %q", gotQuery, "English upbeat dance")
			}
			if gotType != "playlist" {
				t.Errorf("type = %q, want playlist", gotType)
			}
			if gotLimit != "1" {
				t.Errorf("limit = %q, want 1", gotLimit)
			}
			if gotAuth != "Bearer test-token" {
				t.Errorf("Authorization = %q, want Bearer test-token", gotAuth)
			}

			if tt.wantNil {
				if got != nil {
					t.Fatalf("expected no match, got %+v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("expected a playlist, got nil")
			}
			if got.ID != tt.wantID || got.Name != tt.wantName || got.Description != tt.wantDesc || got.ExternalURL != tt.wantURL {
				t.Errorf("got %+v", got)
			}
		})
	}
}

const trackItemsBody = `{"items":[
	{"track":{"type":"track","id":"t1","name":"Dance Monkey","artists":[{"name":"Tones and I"}],
		"album":{"name":"The Kids Are Coming","images":[{"url":"https://i.scdn.co/image/t1"}]},
		"external_urls":{"spotify":"https://open.spotify.com/track/t1"}}},
	{"track":{"type":"track","id":"t2","name":"Levitating","artists":[{"name":"Dua Lipa"},{"name":"DaBaby"}],
		"album":{"name":"Future Nostalgia","images":[]},
		"external_urls":{"spotify":"https://open.spotify.com/track/t2"}}}
],"total":2,"limit":10}`

func TestClient_FetchTracks(t *testing.T) {
	var gotPath, gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotLimit = r.URL.Query().Get("limit")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, trackItemsBody)
	}))
	defer srv.Close()

	client := New(srv.URL, WithHTTPClient(srv.Client()))
	tracks, err := client.FetchTracks(context.Background(), testToken, "pl1")
	if err != nil {
		t.Fatalf("FetchTracks() error = %v", err)
	}

	if !strings.HasPrefix(gotPath, "/playlists/pl1/") {
		t.Errorf("path = %q, want /playlists/pl1/...", gotPath)
	}
	if gotLimit != "10" {
		t.Errorf("limit = %q, want 10", gotLimit)
	}

	if len(tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(tracks))
	}
	if tracks[0].Name != "Dance Monkey" || tracks[0].AlbumArtURL != "https://i.scdn.co/image/t1" {
		t.Errorf("tracks[0] = %+v", tracks[0])
	}
	if tracks[1].Artist != "Dua Lipa, DaBaby" {
		t.Errorf("tracks[1].Artist = %q, want %q", tracks[1].Artist, "Dua Lipa, DaBaby")
	}
	if tracks[1].AlbumArtURL != PlaceholderAlbumArt {
		t.Errorf("tracks[1].AlbumArtURL = %q, want placeholder", tracks[1].AlbumArtURL)
	}
}

func TestClient_FetchTracks_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"status":404,"message":"Not found."}}`)
	}))
	defer srv.Close()

	client := New(srv.URL, WithHTTPClient(srv.Client()))
	if _, err := client.FetchTracks(context.Background(), testToken, "missing"); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestClient_RateLimitHonorsContext(t *testing.T) {
	client := New("http://unused.test", WithRateLimit(0.001))
	// Drain the single burst token so the next wait must block.
	if !client.limiter.Allow() {
		t.Fatal("expected initial burst token")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.SearchPlaylist(ctx, testToken, "anything"); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestClient_UnauthorizedToken(t *testing.T) {
	tests := []struct {
		name             string
		status           int
		body             string
		wantUnauthorized bool
	}{
		{
			name:             "expired token",
			status:           http.StatusUnauthorized,
			body:             `{"error":{"status":401,"message":"The access token expired"}}`,
			wantUnauthorized: true,
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `{"error":{"status":500,"message":"boom"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			client := New(srv.URL, WithHTTPClient(srv.Client()))

			_, searchErr := client.SearchPlaylist(context.Background(), testToken, "sad rap")
			_, tracksErr := client.FetchTracks(context.Background(), testToken, "pl1")

			for op, err := range map[string]error{"search": searchErr, "tracks": tracksErr} {
				if err == nil {
					t.Fatalf("%s: expected error", op)
				}
				if got := errors.Is(err, ErrUnauthorized); got != tt.wantUnauthorized {
					t.Errorf("%s: errors.Is(err, ErrUnauthorized) = %v, want %v (err = %v)", op, got, tt.wantUnauthorized, err)
				}
			}
		})
	}
}
