package utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/jakechorley/shift-ledger/internal/config"
)

func testOAuthClientConfig() *config.OAuthClientConfig {
	return &config.OAuthClientConfig{
		Installed: config.OAuthInstalled{
			ClientID:                "client-id",
			ProjectID:               "project",
			AuthURI:                 "https://accounts.google.com/o/oauth2/auth",
			TokenURI:                "https://oauth2.googleapis.com/token",
			AuthProviderX509CertURL: "https://www.googleapis.com/oauth2/v1/certs",
			ClientSecret:            "secret",
			RedirectURIs:            []string{"http://localhost"},
		},
	}
}

func TestGetOAuthConfig(t *testing.T) {
	cfg, err := GetOAuthConfig(testOAuthClientConfig())
	require.NoError(t, err)

	assert.Equal(t, "client-id", cfg.ClientID)
	assert.Equal(t, []string{ScopeSheets}, cfg.Scopes)
	assert.Equal(t, "http://localhost:3000/oauth/callback", cfg.RedirectURL)
}

func TestTokenCache(t *testing.T) {
	cache := &TokenCache{Dir: filepath.Join(t.TempDir(), "tokens")}

	token, err := cache.Load("test")
	require.NoError(t, err)
	assert.Nil(t, token)

	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, cache.Save("test", &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       expiry,
	}))

	loaded, err := cache.Load("test")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "access", loaded.AccessToken)
	assert.Equal(t, "refresh", loaded.RefreshToken)
	assert.True(t, loaded.Expiry.Equal(expiry))

	info, err := os.Stat(filepath.Join(cache.Dir, "token-test.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(tokenFilePerms), info.Mode().Perm())

	require.NoError(t, cache.Delete("test"))
	loaded, err = cache.Load("test")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// Deleting twice is fine
	assert.NoError(t, cache.Delete("test"))
}

func TestTokenCache_Corrupt(t *testing.T) {
	cache := &TokenCache{Dir: t.TempDir()}
	require.NoError(t, os.WriteFile(filepath.Join(cache.Dir, "token-prod.json"), []byte("{"), 0o600))

	_, err := cache.Load("prod")
	assert.Error(t, err)
}

func TestDefaultTokenCache(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cache, err := DefaultTokenCache()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".shift-ledger", "tokens"), cache.Dir)
}

func TestTokenSource_UsesValidCachedToken(t *testing.T) {
	cache := &TokenCache{Dir: t.TempDir()}
	require.NoError(t, cache.Save("prod", &oauth2.Token{
		AccessToken: "stored",
		Expiry:      time.Now().Add(time.Hour),
	}))

	cfg, err := GetOAuthConfig(testOAuthClientConfig())
	require.NoError(t, err)

	source, err := TokenSource(context.Background(), cfg, cache, "prod", zap.NewNop())
	require.NoError(t, err)

	token, err := source.Token()
	require.NoError(t, err)
	assert.Equal(t, "stored", token.AccessToken)
}

type staticSource struct{ token *oauth2.Token }

func (s staticSource) Token() (*oauth2.Token, error) { return s.token, nil }

func TestCachingSource_SavesNewTokens(t *testing.T) {
	cache := &TokenCache{Dir: t.TempDir()}
	source := &cachingSource{
		base:   staticSource{token: &oauth2.Token{AccessToken: "fresh"}},
		cache:  cache,
		env:    "prod",
		last:   "stale",
		logger: zap.NewNop(),
	}

	_, err := source.Token()
	require.NoError(t, err)

	saved, err := cache.Load("prod")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "fresh", saved.AccessToken)

	// An unchanged token is not rewritten
	require.NoError(t, cache.Delete("prod"))
	_, err = source.Token()
	require.NoError(t, err)
	saved, err = cache.Load("prod")
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestCallbackHandler(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		code    string
		wantErr bool
	}{
		{name: "accepted", query: "state=abc&code=xyz", code: "xyz"},
		{name: "wrong state", query: "state=other&code=xyz", wantErr: true},
		{name: "denied", query: "state=abc&error=access_denied", wantErr: true},
		{name: "missing code", query: "state=abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := make(chan callbackResult, 1)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, callbackPath+"?"+tt.query, nil)

			callbackHandler("abc", results)(rec, req)

			res := <-results
			if tt.wantErr {
				assert.Error(t, res.err)
				assert.Equal(t, http.StatusBadRequest, rec.Code)
				return
			}
			require.NoError(t, res.err)
			assert.Equal(t, tt.code, res.code)
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestServiceAccountClient_BadKey(t *testing.T) {
	dir := t.TempDir()

	_, err := ServiceAccountClient(context.Background(), filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"type":"nope"}`), 0o600))
	_, err = ServiceAccountClient(context.Background(), bad)
	assert.Error(t, err)
}
