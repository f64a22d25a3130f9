package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// ErrNoToken is returned when no token has been cached for a provider.
var ErrNoToken = errors.New("no OAuth token found")

// TokenPath returns the default token cache file of p:
// <user cache dir>/didagoals/<provider>.token.
func TokenPath(p Provider) string {
	return filepath.Join(userCacheDir(), "didagoals", string(p)+".token")
}

// HasToken reports whether a token file exists at path.
func HasToken(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadToken reads a JSON encoded token.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w at %s", ErrNoToken, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	tok := &oauth2.Token{}
	if err := json.Unmarshal(data, tok); err != nil {
		return nil, fmt.Errorf("failed to decode token file %s: %w", path, err)
	}
	return tok, nil
}

// SaveToken writes tok to path, readable by the owner only.
func SaveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Exchange trades an authorization code for a token and caches it at path.
func Exchange(ctx context.Context, conf *oauth2.Config, code, path string) (*oauth2.Token, error) {
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	if err := SaveToken(path, tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// RefreshFunc is told about every refresh attempt.
type RefreshFunc func(err error)

// CachingSource is an oauth2.TokenSource that refreshes through conf,
// persists every new token and can be told to drop its token after the host
// rejected it.
type CachingSource struct {
	mu        sync.Mutex
	ctx       context.Context
	conf      *oauth2.Config
	path      string
	tok       *oauth2.Token
	onRefresh RefreshFunc
}

// NewCachingSource returns a source starting from tok. path may be empty to
// skip persisting refreshed tokens. ctx is used for refresh requests.
func NewCachingSource(ctx context.Context, conf *oauth2.Config, tok *oauth2.Token, path string, onRefresh RefreshFunc) *CachingSource {
	return &CachingSource{
		ctx:       ctx,
		conf:      conf,
		path:      path,
		tok:       tok,
		onRefresh: onRefresh,
	}
}

// Token returns the cached token while it is valid and refreshes it
// otherwise.
func (s *CachingSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tok.Valid() {
		return s.tok, nil
	}
	if s.tok == nil || s.tok.RefreshToken == "" || s.conf == nil {
		return nil, errors.New("access token expired and cannot be refreshed, run \"didagoals auth\" again")
	}

	fresh, err := s.conf.TokenSource(s.ctx, &oauth2.Token{RefreshToken: s.tok.RefreshToken}).Token()
	if s.onRefresh != nil {
		s.onRefresh(err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to refresh access token: %w", err)
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = s.tok.RefreshToken
	}
	s.tok = fresh

	if s.path != "" {
		if err := SaveToken(s.path, fresh); err != nil {
			return nil, err
		}
	}
	return fresh, nil
}

// Invalidate marks the cached token as expired so the next call to Token
// refreshes it.
func (s *CachingSource) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tok == nil {
		return
	}
	expired := *s.tok
	expired.Expiry = time.Unix(1, 0)
	s.tok = &expired
}

// StaticToken returns a source for a pre-issued access token.
func StaticToken(accessToken string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
}

func userCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir
	}
	if runtime.GOOS == "windows" {
		return os.TempDir()
	}
	return filepath.Join(os.Getenv("HOME"), ".cache")
}
