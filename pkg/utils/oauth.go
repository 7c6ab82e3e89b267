package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/jakechorley/shift-ledger/internal/config"
)

const (
	AuthPort     = 3000
	consentWait  = 5 * time.Minute
	callbackPath = "/oauth/callback"
)

// ScopeSheets grants read/write access to spreadsheets
const ScopeSheets = "https://www.googleapis.com/auth/spreadsheets"

// ServiceAccountClient builds an HTTP client authorized as the service
// account whose JSON key lives at keyFile
func ServiceAccountClient(ctx context.Context, keyFile string) (*http.Client, error) {
	key, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account key: %w", err)
	}

	jwtConfig, err := google.JWTConfigFromJSON(key, ScopeSheets)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account key: %w", err)
	}
	return jwtConfig.Client(ctx), nil
}

// OAuthClient builds an HTTP client authorized as the end user. The cached
// token for env is reused when present; otherwise the browser consent flow runs.
func OAuthClient(ctx context.Context, oauthCfg *config.OAuthClientConfig, env string, logger *zap.Logger) (*http.Client, error) {
	conf, err := GetOAuthConfig(oauthCfg)
	if err != nil {
		return nil, err
	}
	cache, err := DefaultTokenCache()
	if err != nil {
		return nil, err
	}

	source, err := TokenSource(ctx, conf, cache, env, logger)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, source), nil
}

// GetOAuthConfig turns the installed-app client JSON into an oauth2 config
// redirecting to the local callback listener
func GetOAuthConfig(oauthCfg *config.OAuthClientConfig) (*oauth2.Config, error) {
	raw, err := json.Marshal(oauthCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal oauth config: %w", err)
	}

	conf, err := google.ConfigFromJSON(raw, ScopeSheets)
	if err != nil {
		return nil, fmt.Errorf("failed to create google config: %w", err)
	}
	conf.RedirectURL = fmt.Sprintf("http://localhost:%d%s", AuthPort, callbackPath)
	return conf, nil
}

// TokenSource returns a source seeded from the cache. A cached token that is
// expired and cannot be refreshed is discarded in favour of a new consent.
func TokenSource(ctx context.Context, conf *oauth2.Config, cache *TokenCache, env string, logger *zap.Logger) (oauth2.TokenSource, error) {
	seed, err := cache.Load(env)
	if err != nil {
		logger.Warn("Ignoring unreadable cached token", zap.String("env", env), zap.Error(err))
		seed = nil
	}

	if seed != nil && !seed.Valid() {
		if seed.RefreshToken == "" {
			seed = nil
		} else if refreshed, err := conf.TokenSource(ctx, seed).Token(); err != nil {
			logger.Info("Cached token could not be refreshed", zap.String("env", env), zap.Error(err))
			seed = nil
		} else {
			seed = refreshed
			if err := cache.Save(env, seed); err != nil {
				logger.Warn("Failed to cache refreshed token", zap.String("env", env), zap.Error(err))
			}
		}
	}

	if seed == nil {
		if seed, err = requestConsent(ctx, conf); err != nil {
			return nil, fmt.Errorf("failed to get oauth token: %w", err)
		}
		if err := cache.Save(env, seed); err != nil {
			logger.Warn("Failed to cache token", zap.String("env", env), zap.Error(err))
		}
	}

	return &cachingSource{
		base:   oauth2.ReuseTokenSource(seed, conf.TokenSource(ctx, seed)),
		cache:  cache,
		env:    env,
		last:   seed.AccessToken,
		logger: logger,
	}, nil
}

// requestConsent prints the consent URL and exchanges the code delivered to
// the local callback
func requestConsent(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	state := uuid.NewString()
	fmt.Printf("\nVisit this URL to authorize shift-ledger:\n%s\n\n",
		conf.AuthCodeURL(state, oauth2.AccessTypeOffline))

	code, err := awaitCallback(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("failed to get authorization code: %w", err)
	}

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}
	return token, nil
}

type callbackResult struct {
	code string
	err  error
}

func callbackHandler(state string, results chan<- callbackResult) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var res callbackResult
		switch {
		case q.Get("state") != state:
			res.err = errors.New("authorization state mismatch")
		case q.Get("error") != "":
			res.err = fmt.Errorf("authorization denied: %s", q.Get("error"))
		case q.Get("code") == "":
			res.err = errors.New("no authorization code received")
		default:
			res.code = q.Get("code")
		}

		if res.err != nil {
			http.Error(w, "Authorization failed", http.StatusBadRequest)
		} else {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, "<html><body><h1>shift-ledger is authorized</h1><p>You can close this window.</p></body></html>")
		}

		select {
		case results <- res:
		default:
		}
	}
}

// awaitCallback serves the redirect target until one callback arrives, the
// context ends or the consent window passes
func awaitCallback(ctx context.Context, state string) (string, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", AuthPort))
	if err != nil {
		return "", fmt.Errorf("failed to listen for callback: %w", err)
	}

	results := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	mux.Handle(callbackPath, callbackHandler(state, results))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case results <- callbackResult{err: fmt.Errorf("callback server: %w", err)}:
			default:
			}
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	waitCtx, cancel := context.WithTimeout(ctx, consentWait)
	defer cancel()

	select {
	case res := <-results:
		return res.code, res.err
	case <-waitCtx.Done():
		return "", fmt.Errorf("authorization not completed within %v: %w", consentWait, waitCtx.Err())
	}
}
