package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ErrNoToken is returned when the token file does not exist.
var ErrNoToken = errors.New("no Gmail OAuth token found, run 'mailmcp authenticate' first")

// LoadConfig reads an OAuth client configuration from a credentials.json
// file. Without scopes, DefaultOAuthScopes are requested.
func LoadConfig(credentialsFile string, scopes ...string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	if len(scopes) == 0 {
		scopes = DefaultOAuthScopes
	}
	conf, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials file %s: %w", credentialsFile, err)
	}
	return conf, nil
}

// AuthURL returns the consent page URL. Offline access with forced approval
// makes Google return a refresh token.
func AuthURL(conf *oauth2.Config, state string) string {
	return conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token.
func Exchange(ctx context.Context, conf *oauth2.Config, code string) (*oauth2.Token, error) {
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return tok, nil
}

// HasToken reports whether the token file exists.
func HasToken(tokenFile string) bool {
	_, err := os.Stat(tokenFile)
	return err == nil
}

// LoadToken reads a JSON encoded token.
func LoadToken(tokenFile string) (*oauth2.Token, error) {
	data, err := os.ReadFile(tokenFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoToken
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", tokenFile, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("invalid token file %s: no access or refresh token", tokenFile)
	}
	return &tok, nil
}

// SaveToken writes tok to tokenFile with owner-only permissions.
func SaveToken(tokenFile string, tok *oauth2.Token) error {
	if dir := filepath.Dir(tokenFile); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(tokenFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// TokenSource returns a token source for the stored token that writes
// refreshed tokens back to tokenFile.
func TokenSource(ctx context.Context, conf *oauth2.Config, tokenFile string) (oauth2.TokenSource, error) {
	tok, err := LoadToken(tokenFile)
	if err != nil {
		return nil, err
	}
	return &savingTokenSource{
		base: conf.TokenSource(ctx, tok),
		file: tokenFile,
		last: tok.AccessToken,
	}, nil
}

// HTTPClient returns an HTTP client authenticated with the stored token.
// The client is configured to use HTTP/1.1 to avoid HTTP/2 protocol errors.
func HTTPClient(ctx context.Context, credentialsFile, tokenFile string) (*http.Client, error) {
	conf, err := LoadConfig(credentialsFile)
	if err != nil {
		return nil, err
	}
	ts, err := TokenSource(ctx, conf, tokenFile)
	if err != nil {
		return nil, err
	}

	return &http.Client{
		Transport: &oauth2.Transport{
			Source: ts,
			Base:   &http.Transport{ForceAttemptHTTP2: false},
		},
	}, nil
}

// savingTokenSource persists every token whose access token differs from
// the last one seen.
type savingTokenSource struct {
	base oauth2.TokenSource
	file string

	mu   sync.Mutex
	last string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		if err := SaveToken(s.file, tok); err != nil {
			return nil, err
		}
		s.last = tok.AccessToken
	}
	return tok, nil
}
