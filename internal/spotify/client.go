// Package spotify searches the Spotify catalog for playlists and lists their
// tracks using an application bearer token.
package spotify

import (
	"context"
	"net/http"
	"strings"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// DefaultAPIURL is the Spotify Web API base URL.
const DefaultAPIURL = "https://api.spotify.com/v1/"

// Client talks to the catalog on behalf of a caller-supplied token.
// It holds no per-request state and is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client whose transport and timeout are used
// underneath the bearer-token transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRateLimit caps outgoing catalog requests per second. Zero disables the cap.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// New creates a catalog client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	// The underlying library joins paths onto the base without a separator.
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// api returns a library client that authorizes every request with token.
func (c *Client) api(token *oauth2.Token) *spotify.Client {
	base := c.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	hc := &http.Client{
		Timeout: c.httpClient.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(token),
			Base:   base,
		},
	}

	return spotify.New(hc, spotify.WithBaseURL(c.baseURL))
}

// wait blocks until the rate limiter admits another request.
func (c *Client) wait(ctx context.Context) error {
	return c.limiter.Wait(ctx)
}
