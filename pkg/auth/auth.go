// Package auth verifies login credentials. The verifier is injected into the
// CLI and HTTP layers so the credential source can be swapped.
package auth

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/jakechorley/shift-ledger/internal/config"
	"github.com/jakechorley/shift-ledger/pkg/core/model"
)

// Verifier checks a user's password and returns who they are
type Verifier interface {
	Verify(ctx context.Context, user, password string) (model.Identity, error)
}

// ConfigVerifier checks passwords against the bcrypt hashes in the config file
type ConfigVerifier struct {
	users map[string]config.User
}

// NewConfigVerifier indexes the configured users by name
func NewConfigVerifier(users []config.User) *ConfigVerifier {
	byName := make(map[string]config.User, len(users))
	for _, u := range users {
		byName[u.Name] = u
	}
	return &ConfigVerifier{users: byName}
}

// Verify returns model.ErrInvalidCredentials for an unknown user or a wrong
// password, without saying which.
func (v *ConfigVerifier) Verify(ctx context.Context, user, password string) (model.Identity, error) {
	u, ok := v.users[strings.TrimSpace(user)]
	if !ok {
		return model.Identity{}, model.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return model.Identity{}, model.ErrInvalidCredentials
	}
	return model.Identity{User: u.Name, Role: model.Role(u.Role)}, nil
}

// HashPassword produces a bcrypt hash suitable for the passwordHash config field
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

var _ Verifier = (*ConfigVerifier)(nil)
