package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jakechorley/shift-ledger/internal/config"
	"github.com/jakechorley/shift-ledger/pkg/core/model"
)

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestConfigVerifier_Verify(t *testing.T) {
	v := NewConfigVerifier([]config.User{
		{Name: "ana", PasswordHash: hash(t, "secreto"), Role: "worker"},
		{Name: "jefe", PasswordHash: hash(t, "admin123"), Role: "admin"},
	})

	identity, err := v.Verify(context.Background(), "ana", "secreto")
	require.NoError(t, err)
	assert.Equal(t, model.Identity{User: "ana", Role: model.RoleWorker}, identity)

	identity, err = v.Verify(context.Background(), " jefe ", "admin123")
	require.NoError(t, err)
	assert.True(t, identity.IsAdmin())
}

func TestConfigVerifier_Rejects(t *testing.T) {
	v := NewConfigVerifier([]config.User{
		{Name: "ana", PasswordHash: hash(t, "secreto"), Role: "worker"},
		{Name: "broken", PasswordHash: "not-a-hash", Role: "worker"},
	})

	tests := []struct {
		name, user, password string
	}{
		{"wrong password", "ana", "SECRETO"},
		{"unknown user", "luis", "secreto"},
		{"empty password", "ana", ""},
		{"malformed hash", "broken", "anything"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tt.user, tt.password)
			assert.ErrorIs(t, err, model.ErrInvalidCredentials)
		})
	}
}

func TestHashPassword(t *testing.T) {
	h, err := HashPassword("secreto")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(h), []byte("secreto")))

	_, err = HashPassword("")
	assert.Error(t, err)
}
