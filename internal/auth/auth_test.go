package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/justestif/vibesync/internal/config"
)

var testCreds = config.Credentials{ClientID: "client-id", ClientSecret: "client-secret"}

func TestClient_Authenticate(t *testing.T) {
	var gotAuth, gotGrant, gotCache, gotMethod string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		gotCache = r.Header.Get("Cache-Control")
		if err := r.ParseForm(); err != nil {
			t.Errorf("parsing form: %v", err)
		}
		gotGrant = r.PostForm.Get("grant_type")

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"abc123","token_type":"Bearer","expires_in":3600}`)
	}))
	defer server.Close()

	client := New(server.URL, server.Client())
	token, err := client.Authenticate(context.Background(), testCreds)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}

	if token.AccessToken != "abc123" {
		t.Errorf("AccessToken = %q, want abc123", token.AccessToken)
	}
	if token.Expiry.IsZero() {
		t.Error("Expiry should be set from expires_in")
	}
	if gotMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", gotMethod)
	}
	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("client-id:client-secret"))
	if gotAuth != wantAuth {
		t.Errorf("Authorization = %q, want %q", gotAuth, wantAuth)
	}
	if gotGrant != "client_credentials" {
		t.Errorf("grant_type = %q, want client_credentials", gotGrant)
	}
	if gotCache != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", gotCache)
	}
}

func TestClient_Authenticate_Errors(t *testing.T) {
	tests := []struct {
		name            string
		status          int
		contentType     string
		body            string
		wantStatus      int
		wantDescription string
	}{
		{
			name:            "provider description",
			status:          http.StatusBadRequest,
			contentType:     "application/json",
			body:            `{"error":"invalid_client","error_description":"Invalid client secret"}`,
			wantStatus:      http.StatusBadRequest,
			wantDescription: "Invalid client secret",
		},
		{
			name:            "falls back to status text",
			status:          http.StatusUnauthorized,
			contentType:     "application/json",
			body:            `{}`,
			wantStatus:      http.StatusUnauthorized,
			wantDescription: "Unauthorized",
		},
		{
			name:            "non-json body",
			status:          http.StatusServiceUnavailable,
			contentType:     "text/html",
			body:            `<html>down</html>`,
			wantStatus:      http.StatusServiceUnavailable,
			wantDescription: "Service Unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			_, err := New(server.URL, server.Client()).Authenticate(context.Background(), testCreds)

			var authErr *Error
			if !errors.As(err, &authErr) {
				t.Fatalf("Authenticate() error = %v, want *Error", err)
			}
			if authErr.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", authErr.StatusCode, tt.wantStatus)
			}
			if authErr.Description != tt.wantDescription {
				t.Errorf("Description = %q, want %q", authErr.Description, tt.wantDescription)
			}
		})
	}
}

// fakeAuthenticator counts calls and hands out tokens with a fixed lifetime.
type fakeAuthenticator struct {
	calls    atomic.Int32
	lifetime time.Duration
	err      error
	delay    time.Duration
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, _ config.Credentials) (*oauth2.Token, error) {
	n := f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &oauth2.Token{
		AccessToken: fmt.Sprintf("token-%d", n),
		Expiry:      time.Now().Add(f.lifetime),
	}, nil
}

func TestTokenCache_ReusesFreshToken(t *testing.T) {
	src := &fakeAuthenticator{lifetime: time.Hour}
	cache := NewTokenCache(src)

	first, err := cache.Authenticate(context.Background(), testCreds)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	second, err := cache.Authenticate(context.Background(), testCreds)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}

	if first.AccessToken != second.AccessToken {
		t.Errorf("expected cached token, got %q then %q", first.AccessToken, second.AccessToken)
	}
	if got := src.calls.Load(); got != 1 {
		t.Errorf("source called %d times, want 1", got)
	}
}

func TestTokenCache_RefreshesNearExpiry(t *testing.T) {
	src := &fakeAuthenticator{lifetime: time.Hour}
	cache := NewTokenCache(src)

	if _, err := cache.Authenticate(context.Background(), testCreds); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}

	// Jump to within the leeway window.
	cache.now = func() time.Time { return time.Now().Add(time.Hour - 10*time.Second) }

	tok, err := cache.Authenticate(context.Background(), testCreds)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if tok.AccessToken != "token-2" {
		t.Errorf("AccessToken = %q, want token-2", tok.AccessToken)
	}
}

func TestTokenCache_KeyedByClientID(t *testing.T) {
	src := &fakeAuthenticator{lifetime: time.Hour}
	cache := NewTokenCache(src)

	if _, err := cache.Authenticate(context.Background(), testCreds); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	other := config.Credentials{ClientID: "other", ClientSecret: "x"}
	if _, err := cache.Authenticate(context.Background(), other); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}

	if got := src.calls.Load(); got != 2 {
		t.Errorf("source called %d times, want 2", got)
	}
}

func TestTokenCache_Invalidate(t *testing.T) {
	src := &fakeAuthenticator{lifetime: time.Hour}
	cache := NewTokenCache(src)

	_, _ = cache.Authenticate(context.Background(), testCreds)
	cache.Invalidate()
	_, _ = cache.Authenticate(context.Background(), testCreds)

	if got := src.calls.Load(); got != 2 {
		t.Errorf("source called %d times, want 2", got)
	}
}

func TestTokenCache_ErrorNotCached(t *testing.T) {
	src := &fakeAuthenticator{lifetime: time.Hour, err: &Error{Description: "nope"}}
	cache := NewTokenCache(src)

	for i := 0; i < 2; i++ {
		if _, err := cache.Authenticate(context.Background(), testCreds); err == nil {
			t.Fatal("expected error")
		}
	}
	if got := src.calls.Load(); got != 2 {
		t.Errorf("source called %d times, want 2", got)
	}
}

func TestTokenCache_ConcurrentRefreshCollapses(t *testing.T) {
	src := &fakeAuthenticator{lifetime: time.Hour, delay: 50 * time.Millisecond}
	cache := NewTokenCache(src)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Authenticate(context.Background(), testCreds); err != nil {
				t.Errorf("Authenticate() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := src.calls.Load(); got != 1 {
		t.Errorf("source called %d times, want 1", got)
	}
}

// slowAuthenticator honors ctx while it waits to issue a token.
type slowAuthenticator struct {
	calls atomic.Int32
	delay time.Duration
}

func (s *slowAuthenticator) Authenticate(ctx context.Context, _ config.Credentials) (*oauth2.Token, error) {
	s.calls.Add(1)
	select {
	case <-time.After(s.delay):
		return &oauth2.Token{AccessToken: "slow-token", Expiry: time.Now().Add(time.Hour)}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestTokenCache_CancelledCallerDoesNotFailOthers(t *testing.T) {
	src := &slowAuthenticator{delay: 100 * time.Millisecond}
	cache := NewTokenCache(src)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := cache.Authenticate(ctxA, testCreds)
		errA <- err
	}()

	// Let A start the shared refresh before B joins it.
	time.Sleep(10 * time.Millisecond)

	type result struct {
		token *oauth2.Token
		err   error
	}
	resB := make(chan result, 1)
	go func() {
		tok, err := cache.Authenticate(context.Background(), testCreds)
		resB <- result{tok, err}
	}()

	time.Sleep(20 * time.Millisecond)
	cancelA()

	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled caller err = %v, want context.Canceled", err)
	}

	b := <-resB
	if b.err != nil {
		t.Fatalf("live caller err = %v, want nil", b.err)
	}
	if b.token.AccessToken != "slow-token" {
		t.Errorf("AccessToken = %q, want slow-token", b.token.AccessToken)
	}
	if got := src.calls.Load(); got != 1 {
		t.Errorf("source called %d times, want 1", got)
	}

	// The refresh finished despite A's cancellation, so the token is cached.
	if _, ok := cache.load(testCreds.ClientID); !ok {
		t.Error("token should be cached after the shared refresh")
	}
}

func TestTokenCache_RefreshTimeout(t *testing.T) {
	src := &slowAuthenticator{delay: time.Second}
	cache := NewTokenCache(src)
	cache.refreshTimeout = 20 * time.Millisecond

	_, err := cache.Authenticate(context.Background(), testCreds)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
}
