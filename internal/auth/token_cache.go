package auth

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/justestif/vibesync/internal/config"
)

const (
	// defaultLeeway treats a token as expired slightly before the provider does.
	defaultLeeway = 30 * time.Second
	// defaultRefreshTimeout bounds a shared refresh that no caller can cancel.
	defaultRefreshTimeout = 15 * time.Second
)

// cachedToken pairs a token with the client id it was issued to.
type cachedToken struct {
	clientID string
	token    *oauth2.Token
}

// TokenCache reuses bearer tokens until they are about to expire.
// Reads are lock-free; concurrent refreshes collapse into a single request.
type TokenCache struct {
	source  Authenticator
	current atomic.Pointer[cachedToken]
	group   singleflight.Group
	leeway  time.Duration
	now     func() time.Time

	refreshTimeout time.Duration
}

// compile-time interface assertion
var _ Authenticator = (*TokenCache)(nil)

// NewTokenCache wraps source with an in-memory token cache.
func NewTokenCache(source Authenticator) *TokenCache {
	return &TokenCache{
		source: source,
		leeway: defaultLeeway,
		now:    time.Now,

		refreshTimeout: defaultRefreshTimeout,
	}
}

// Authenticate returns the cached token when it is still fresh for the same
// client id, otherwise it fetches and stores a new one. The shared refresh is
// detached from any single caller's cancellation; each caller stops waiting
// when its own ctx is done.
func (c *TokenCache) Authenticate(ctx context.Context, creds config.Credentials) (*oauth2.Token, error) {
	if tok, ok := c.load(creds.ClientID); ok {
		return tok, nil
	}

	ch := c.group.DoChan(creds.ClientID, func() (any, error) {
		if tok, ok := c.load(creds.ClientID); ok {
			return tok, nil
		}

		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
		defer cancel()

		tok, err := c.source.Authenticate(refreshCtx, creds)
		if err != nil {
			return nil, err
		}
		c.current.Store(&cachedToken{clientID: creds.ClientID, token: tok})
		return tok, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*oauth2.Token), nil
	}
}

// Invalidate drops the cached token so the next call re-authenticates.
func (c *TokenCache) Invalidate() {
	c.current.Store(nil)
}

func (c *TokenCache) load(clientID string) (*oauth2.Token, bool) {
	entry := c.current.Load()
	if entry == nil || entry.clientID != clientID || entry.token == nil {
		return nil, false
	}
	// A zero expiry means the provider did not say; treat it as single use.
	if entry.token.Expiry.IsZero() || !c.now().Add(c.leeway).Before(entry.token.Expiry) {
		return nil, false
	}
	return entry.token, true
}
