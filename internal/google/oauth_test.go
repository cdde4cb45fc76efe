package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func writeCredentials(t *testing.T, tokenURL string) string {
	t.Helper()
	creds := map[string]any{
		"installed": map[string]any{
			"client_id":     "client-123",
			"client_secret": "secret-456",
			"auth_uri":      "https://accounts.google.com/o/oauth2/auth",
			"token_uri":     tokenURL,
			"redirect_uris": []string{"http://localhost"},
		},
	}
	data, err := json.Marshal(creds)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func tokenServer(t *testing.T, accessToken string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  accessToken,
			"refresh_token": "refresh-1",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoadConfig(t *testing.T) {
	path := writeCredentials(t, "https://oauth2.googleapis.com/token")

	conf, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "client-123", conf.ClientID)
	assert.Equal(t, "http://localhost", conf.RedirectURL)
	assert.Equal(t, DefaultOAuthScopes, conf.Scopes)

	conf, err = LoadConfig(path, "scope-a")
	require.NoError(t, err)
	assert.Equal(t, []string{"scope-a"}, conf.Scopes)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"web": 1}`), 0o600))
	_, err = LoadConfig(bad)
	assert.Error(t, err)
}

func TestAuthURL(t *testing.T) {
	conf, err := LoadConfig(writeCredentials(t, "https://oauth2.googleapis.com/token"))
	require.NoError(t, err)

	u, err := url.Parse(AuthURL(conf, "state-xyz"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.True(t, q.Get("prompt") == "consent" || q.Get("approval_prompt") == "force", "forced approval missing in %s", u)
	assert.Equal(t, "state-xyz", q.Get("state"))
	assert.Equal(t, "client-123", q.Get("client_id"))
}

func TestExchange(t *testing.T) {
	srv := tokenServer(t, "access-1")
	conf, err := LoadConfig(writeCredentials(t, srv.URL))
	require.NoError(t, err)

	tok, err := Exchange(context.Background(), conf, "code-1")
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok.AccessToken)
	assert.Equal(t, "refresh-1", tok.RefreshToken)
}

func TestSaveAndLoadToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	assert.False(t, HasToken(path))

	_, err := LoadToken(path)
	assert.True(t, errors.Is(err, ErrNoToken))

	require.NoError(t, SaveToken(path, &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer"}))
	assert.True(t, HasToken(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	tok, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "a", tok.AccessToken)
	assert.Equal(t, "r", tok.RefreshToken)
}

func TestLoadToken_Invalid(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage.json")
	require.NoError(t, os.WriteFile(garbage, []byte("not json"), 0o600))
	_, err := LoadToken(garbage)
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{}`), 0o600))
	_, err = LoadToken(empty)
	assert.Error(t, err)
}

func TestTokenSource_PersistsRefreshedToken(t *testing.T) {
	srv := tokenServer(t, "refreshed")
	conf, err := LoadConfig(writeCredentials(t, srv.URL))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, SaveToken(path, &oauth2.Token{
		AccessToken:  "expired",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(-time.Hour),
	}))

	ts, err := TokenSource(context.Background(), conf, path)
	require.NoError(t, err)

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "refreshed", tok.AccessToken)

	stored, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "refreshed", stored.AccessToken)
}

func TestHTTPClient_NoToken(t *testing.T) {
	creds := writeCredentials(t, "https://oauth2.googleapis.com/token")

	_, err := HTTPClient(context.Background(), creds, filepath.Join(t.TempDir(), "token.json"))
	assert.ErrorIs(t, err, ErrNoToken)
}
