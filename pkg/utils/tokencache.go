package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	tokenDirName   = ".shift-ledger/tokens"
	tokenFilePerms = 0600
	tokenDirPerms  = 0700
)

// TokenCache keeps one OAuth token per environment as JSON files in Dir
type TokenCache struct {
	Dir string
}

// DefaultTokenCache returns the cache rooted in the user's home directory
func DefaultTokenCache() (*TokenCache, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return &TokenCache{Dir: filepath.Join(home, tokenDirName)}, nil
}

func (c *TokenCache) path(env string) string {
	return filepath.Join(c.Dir, "token-"+env+".json")
}

// Load returns the cached token for env, or nil when none is cached
func (c *TokenCache) Load(env string) (*oauth2.Token, error) {
	data, err := os.ReadFile(c.path(env))
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	token := new(oauth2.Token)
	if err := json.Unmarshal(data, token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return token, nil
}

// Save writes the token for env, readable by the owner only
func (c *TokenCache) Save(env string, token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := os.MkdirAll(c.Dir, tokenDirPerms); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(c.path(env), data, tokenFilePerms); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Delete removes the token for env. A missing file is not an error.
func (c *TokenCache) Delete(env string) error {
	if err := os.Remove(c.path(env)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}

// cachingSource writes every newly issued token back to the cache so a
// refresh performed mid-run survives the next start
type cachingSource struct {
	mu     sync.Mutex
	base   oauth2.TokenSource
	cache  *TokenCache
	env    string
	last   string
	logger *zap.Logger
}

func (s *cachingSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token.AccessToken != s.last {
		s.last = token.AccessToken
		if err := s.cache.Save(s.env, token); err != nil {
			s.logger.Warn("Failed to cache refreshed token", zap.String("env", s.env), zap.Error(err))
		}
	}
	return token, nil
}
