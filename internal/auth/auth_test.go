package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider("dida")
	require.NoError(t, err)
	assert.Equal(t, ProviderDida, p)

	_, err = ParseProvider("todoist")
	assert.Error(t, err)
}

func TestOAuthConfig(t *testing.T) {
	creds := Credentials{ClientID: "id", ClientSecret: "secret"}

	dida, err := OAuthConfig(ProviderDida, creds)
	require.NoError(t, err)
	assert.Equal(t, DidaEndpoint.TokenURL, dida.Endpoint.TokenURL)
	assert.Equal(t, []string{"tasks:read", "tasks:write"}, dida.Scopes)
	assert.Equal(t, OOBRedirectURL, dida.RedirectURL)

	g, err := OAuthConfig(ProviderGoogle, Credentials{ClientID: "id", ClientSecret: "s", RedirectURL: "http://localhost:6789/cb"})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://www.googleapis.com/auth/tasks"}, g.Scopes)
	assert.Equal(t, "http://localhost:6789/cb", g.RedirectURL)

	_, err = OAuthConfig(ProviderDida, Credentials{ClientID: "id"})
	assert.Error(t, err)
}

func TestAuthURL(t *testing.T) {
	conf, err := OAuthConfig(ProviderDida, Credentials{ClientID: "id", ClientSecret: "secret"})
	require.NoError(t, err)

	u := AuthURL(conf, "xyz")
	assert.Contains(t, u, "https://dida365.com/oauth/authorize?")
	assert.Contains(t, u, "access_type=offline")
	assert.Contains(t, u, "state=xyz")
	assert.Contains(t, u, "scope=tasks%3Aread+tasks%3Awrite")
}

func TestTokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dida.token")

	_, err := LoadToken(path)
	assert.ErrorIs(t, err, ErrNoToken)
	assert.False(t, HasToken(path))

	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, SaveToken(path, &oauth2.Token{AccessToken: "a", RefreshToken: "r", Expiry: expiry}))
	assert.True(t, HasToken(path))

	tok, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "a", tok.AccessToken)
	assert.Equal(t, "r", tok.RefreshToken)
	assert.True(t, expiry.Equal(tok.Expiry))
}

func TestTokenPath(t *testing.T) {
	assert.Equal(t, "google.token", filepath.Base(TokenPath(ProviderGoogle)))
	assert.Equal(t, "didagoals", filepath.Base(filepath.Dir(TokenPath(ProviderGoogle))))
}

type tokenServer struct {
	*httptest.Server
	calls atomic.Int32
}

func newTokenServer(t *testing.T, status int) *tokenServer {
	t.Helper()
	ts := &tokenServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.calls.Add(1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "r1", r.Form.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte(`{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`))
		} else {
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func testConfig(tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInParams},
	}
}

func TestCachingSource_ValidTokenIsReused(t *testing.T) {
	srv := newTokenServer(t, http.StatusOK)
	src := NewCachingSource(context.Background(), testConfig(srv.URL),
		&oauth2.Token{AccessToken: "current", RefreshToken: "r1", Expiry: time.Now().Add(time.Hour)}, "", nil)

	tok, err := src.Token()
	require.NoError(t, err)
	assert.Equal(t, "current", tok.AccessToken)
	assert.Zero(t, srv.calls.Load())
}

func TestCachingSource_RefreshesAndPersists(t *testing.T) {
	srv := newTokenServer(t, http.StatusOK)
	path := filepath.Join(t.TempDir(), "dida.token")

	var refreshes []error
	src := NewCachingSource(context.Background(), testConfig(srv.URL),
		&oauth2.Token{AccessToken: "stale", RefreshToken: "r1", Expiry: time.Now().Add(-time.Hour)}, path,
		func(err error) { refreshes = append(refreshes, err) })

	tok, err := src.Token()
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok.AccessToken)
	assert.Equal(t, "r1", tok.RefreshToken, "refresh token is carried over")
	assert.Equal(t, []error{nil}, refreshes)

	saved, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "fresh", saved.AccessToken)

	_, err = src.Token()
	require.NoError(t, err)
	assert.EqualValues(t, 1, srv.calls.Load())
}

func TestCachingSource_Invalidate(t *testing.T) {
	srv := newTokenServer(t, http.StatusOK)
	src := NewCachingSource(context.Background(), testConfig(srv.URL),
		&oauth2.Token{AccessToken: "rejected", RefreshToken: "r1"}, "", nil)

	tok, err := src.Token()
	require.NoError(t, err)
	assert.Equal(t, "rejected", tok.AccessToken, "tokens without expiry are valid until invalidated")

	src.Invalidate()
	tok, err = src.Token()
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok.AccessToken)
}

func TestCachingSource_RefreshFailure(t *testing.T) {
	srv := newTokenServer(t, http.StatusBadRequest)

	var got error
	src := NewCachingSource(context.Background(), testConfig(srv.URL),
		&oauth2.Token{AccessToken: "stale", RefreshToken: "r1", Expiry: time.Now().Add(-time.Hour)}, "",
		func(err error) { got = err })

	_, err := src.Token()
	require.Error(t, err)
	assert.Error(t, got)

	var re *oauth2.RetrieveError
	assert.True(t, errors.As(err, &re))
}

func TestCachingSource_NoRefreshToken(t *testing.T) {
	src := NewCachingSource(context.Background(), nil, &oauth2.Token{AccessToken: "x", Expiry: time.Now().Add(-time.Hour)}, "", nil)
	_, err := src.Token()
	assert.ErrorContains(t, err, "didagoals auth")
}

func TestStaticToken(t *testing.T) {
	tok, err := StaticToken("pre-issued").Token()
	require.NoError(t, err)
	assert.Equal(t, "pre-issued", tok.AccessToken)
}

func TestHTTPClient_SetsBearer(t *testing.T) {
	var header string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	client := HTTPClient(context.Background(), StaticToken("abc"))
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "Bearer abc", header)
}
