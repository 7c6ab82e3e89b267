package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/shift-ledger/internal/config"
	"github.com/jakechorley/shift-ledger/pkg/auth"
	"github.com/jakechorley/shift-ledger/pkg/core/model"
	"github.com/jakechorley/shift-ledger/pkg/db"
)

// PasswordEnv holds the password used by non-interactive commands
const PasswordEnv = "SHIFT_LEDGER_PASSWORD"

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg      *config.Config
	Database db.Database
	Verifier auth.Verifier
	Session  *model.Session
	Logger   *zap.Logger
	Ctx      context.Context

	// User is the --user flag used to log in outside an interactive session
	User string
	Now  func() time.Time
	// Getenv reads the password variable; defaults to os.Getenv
	Getenv func(string) string
}

// StoreContext bounds a single command's store calls by the configured timeout
func (a *AppContext) StoreContext() (context.Context, context.CancelFunc) {
	if a.Cfg == nil || a.Cfg.RequestTimeout <= 0 {
		return context.WithCancel(a.Ctx)
	}
	return context.WithTimeout(a.Ctx, a.Cfg.RequestTimeout)
}

// Identity returns the logged-in user, logging in from --user and the
// password environment variable when the session is still anonymous
func (a *AppContext) Identity() (model.Identity, error) {
	if a.Session == nil {
		a.Session = model.NewSession()
	}
	if a.Session.State() == model.SessionAnonymous {
		if err := a.loginFromEnv(); err != nil {
			return model.Identity{}, err
		}
	}
	return a.Session.RequireAuthenticated()
}

// AdminIdentity is Identity restricted to admins
func (a *AppContext) AdminIdentity() (model.Identity, error) {
	if _, err := a.Identity(); err != nil {
		return model.Identity{}, err
	}
	return a.Session.RequireAdmin()
}

// Login verifies credentials and moves the session to authenticated
func (a *AppContext) Login(user, password string) (model.Identity, error) {
	identity, err := a.Verifier.Verify(a.Ctx, user, password)
	if err != nil {
		a.Logger.Info("Login rejected", zap.String("user", user))
		return model.Identity{}, err
	}
	if err := a.Session.Login(identity); err != nil {
		return model.Identity{}, err
	}
	a.Logger.Info("User logged in", zap.String("user", identity.User), zap.String("role", string(identity.Role)))
	return identity, nil
}

func (a *AppContext) loginFromEnv() error {
	if a.User == "" {
		return fmt.Errorf("%w: pass --user and set %s, or log in from an interactive session", model.ErrUnauthorized, PasswordEnv)
	}
	getenv := a.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	password := getenv(PasswordEnv)
	if password == "" {
		return fmt.Errorf("%w: %s is not set", model.ErrUnauthorized, PasswordEnv)
	}
	_, err := a.Login(a.User, password)
	return err
}

// now returns the current date and time of day in the configured timezone
func (a *AppContext) now() time.Time {
	if a.Now == nil {
		return time.Now().In(a.Cfg.Location())
	}
	return a.Now().In(a.Cfg.Location())
}
