package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ops-kit/opsconsole/internal/domain"
)

func TestGenerateAndParseToken(t *testing.T) {
	tm := NewTokenManager("test-secret", 30)
	identity := domain.Identity{SubjectID: "user-1", Username: "operator", Role: domain.UserRoleOperator}

	token, expiresAt, err := tm.GenerateToken(identity)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.WithinDuration(t, time.Now().Add(30*time.Minute), expiresAt, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "operator", claims.Username)
	require.Equal(t, domain.UserRoleOperator, claims.Role)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	tm := NewTokenManager("secret-a", 30)
	other := NewTokenManager("secret-b", 30)

	token, _, err := tm.GenerateToken(domain.Identity{SubjectID: "user-1"})
	require.NoError(t, err)

	_, err = other.ParseToken(token)
	require.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", 30)
	_, err := tm.ParseToken("not-a-jwt")
	require.Error(t, err)
}

func TestTokenManagerDefaultTTL(t *testing.T) {
	tm := NewTokenManager("test-secret", 0)
	require.Equal(t, 30*time.Minute, tm.TTL())
}
