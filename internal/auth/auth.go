// Package auth exchanges catalog client credentials for short-lived bearer
// tokens using the OAuth2 client-credentials grant.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/justestif/vibesync/internal/config"
)

// DefaultTokenURL is the Spotify accounts token endpoint.
const DefaultTokenURL = "https://accounts.spotify.com/api/token"

// Authenticator exchanges credentials for a bearer token.
type Authenticator interface {
	Authenticate(ctx context.Context, creds config.Credentials) (*oauth2.Token, error)
}

// Error is returned when the token endpoint rejects the credentials.
type Error struct {
	StatusCode  int
	Code        string // OAuth2 "error" field, if any
	Description string // "error_description", or the HTTP status text when absent
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to authenticate with catalog: %s", e.Description)
}

// Client performs the client-credentials exchange against a token endpoint.
type Client struct {
	tokenURL   string
	httpClient *http.Client
}

// compile-time interface assertion
var _ Authenticator = (*Client)(nil)

// New creates a Client for tokenURL. A nil httpClient uses a client whose
// requests ask intermediaries not to serve a cached response.
func New(tokenURL string, httpClient *http.Client) *Client {
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	hc := *httpClient
	hc.Transport = noCacheTransport{base: base}

	return &Client{
		tokenURL:   tokenURL,
		httpClient: &hc,
	}
}

// Authenticate requests a fresh bearer token. Every call hits the token
// endpoint; wrap the Client in a TokenCache to reuse tokens until expiry.
func (c *Client) Authenticate(ctx context.Context, creds config.Credentials) (*oauth2.Token, error) {
	cc := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     c.tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := cc.Token(ctx)
	if err != nil {
		return nil, toError(err)
	}

	return token, nil
}

// toError converts an oauth2 retrieval failure into an *Error carrying the
// provider's description. Transport failures are returned wrapped as-is.
func toError(err error) error {
	var rErr *oauth2.RetrieveError
	if !errors.As(err, &rErr) {
		return fmt.Errorf("requesting token: %w", err)
	}

	authErr := &Error{
		Code:        rErr.ErrorCode,
		Description: rErr.ErrorDescription,
	}
	if rErr.Response != nil {
		authErr.StatusCode = rErr.Response.StatusCode
		if authErr.Description == "" {
			authErr.Description = http.StatusText(rErr.Response.StatusCode)
		}
	}
	if authErr.Description == "" {
		authErr.Description = "unknown error"
	}

	return authErr
}

// noCacheTransport marks every token request as non-cacheable.
type noCacheTransport struct {
	base http.RoundTripper
}

func (t noCacheTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("Cache-Control", "no-cache")
	return t.base.RoundTrip(r)
}
