package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/ops-kit/opsconsole/internal/auth"
	"github.com/ops-kit/opsconsole/internal/config"
	"github.com/ops-kit/opsconsole/internal/domain"
	"github.com/ops-kit/opsconsole/internal/events"
	apperrors "github.com/ops-kit/opsconsole/pkg/util"
)

type fakeUserRepo struct {
	users map[string]*domain.User
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.users[user.Username] = user
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.Username]; !ok {
		return pgx.ErrNoRows
	}
	r.users[user.Username] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	for _, user := range r.users {
		if user.ID == id {
			u := *user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	user, ok := r.users[username]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	u := *user
	return &u, nil
}

func newTestAuthService(t *testing.T, changeRequired bool) *AuthService {
	t.Helper()
	hash, err := auth.HashPassword("correct-horse", 4)
	require.NoError(t, err)

	repo := &fakeUserRepo{users: map[string]*domain.User{
		"admin": {
			ID:                     "user-1",
			Username:               "admin",
			PasswordHash:           hash,
			Role:                   domain.UserRoleAdmin,
			Status:                 domain.UserStatusActive,
			PasswordChangeRequired: changeRequired,
		},
	}}

	cfg := config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 30,
		MinPasswordLength:     8,
	}
	return NewAuthService(cfg, AuthDependencies{
		Provider:     auth.NewLocalProvider(repo, 4),
		RefreshStore: auth.NewMemoryRefreshStore(time.Hour),
		Dispatcher:   events.NewInMemoryDispatcher(),
	})
}

func TestLoginIssuesTokenPair(t *testing.T) {
	svc := newTestAuthService(t, false)
	outcome, err := svc.Login(context.Background(), "admin", "correct-horse")
	require.NoError(t, err)
	require.False(t, outcome.PasswordChangeRequired)
	require.NotEmpty(t, outcome.Tokens.AccessToken)
	require.NotEmpty(t, outcome.Tokens.RefreshToken)
	require.Equal(t, "Bearer", outcome.Tokens.TokenType)
	require.Greater(t, outcome.Tokens.ExpiresIn, int64(0))

	claims, err := svc.TokenManager().ParseToken(outcome.Tokens.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, domain.UserRoleAdmin, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestAuthService(t, false)
	for i := 0; i < 2; i++ {
		_, err := svc.Login(context.Background(), "admin", "wrong")
		require.True(t, apperrors.IsCode(err, "INVALID_CREDENTIALS"))
	}
}

func TestLoginUnknownUser(t *testing.T) {
	svc := newTestAuthService(t, false)
	_, err := svc.Login(context.Background(), "nobody", "whatever")
	require.True(t, apperrors.IsCode(err, "INVALID_CREDENTIALS"))
}

func TestLoginPasswordChangeRequired(t *testing.T) {
	svc := newTestAuthService(t, true)
	ctx := context.Background()

	outcome, err := svc.Login(ctx, "admin", "correct-horse")
	require.NoError(t, err)
	require.True(t, outcome.PasswordChangeRequired)
	require.Nil(t, outcome.Tokens)

	// Rotating the password unblocks login.
	outcome, err = svc.ChangePassword(ctx, "admin", "correct-horse", "brand-new-password")
	require.NoError(t, err)
	require.NotEmpty(t, outcome.Tokens.AccessToken)

	outcome, err = svc.Login(ctx, "admin", "brand-new-password")
	require.NoError(t, err)
	require.False(t, outcome.PasswordChangeRequired)
}

func TestChangePasswordPolicy(t *testing.T) {
	svc := newTestAuthService(t, false)
	ctx := context.Background()

	_, err := svc.ChangePassword(ctx, "admin", "correct-horse", "short")
	require.True(t, apperrors.IsCode(err, "POLICY_VIOLATION"))

	_, err = svc.ChangePassword(ctx, "admin", "correct-horse", "correct-horse")
	require.True(t, apperrors.IsCode(err, "POLICY_VIOLATION"))

	_, err = svc.ChangePassword(ctx, "admin", "not-the-password", "something-long-enough")
	require.True(t, apperrors.IsCode(err, "INVALID_CREDENTIALS"))
}

func TestRefreshRotatesAndIsSingleUse(t *testing.T) {
	svc := newTestAuthService(t, false)
	ctx := context.Background()

	outcome, err := svc.Login(ctx, "admin", "correct-horse")
	require.NoError(t, err)

	pair, err := svc.Refresh(ctx, outcome.Tokens.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEqual(t, outcome.Tokens.RefreshToken, pair.RefreshToken)

	// The consumed token cannot be replayed.
	_, err = svc.Refresh(ctx, outcome.Tokens.RefreshToken)
	require.True(t, apperrors.IsCode(err, "EXPIRED"))

	// The rotated token still works.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	svc := newTestAuthService(t, false)
	ctx := context.Background()

	outcome, err := svc.Login(ctx, "admin", "correct-horse")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, outcome.Tokens.RefreshToken))
	_, err = svc.Refresh(ctx, outcome.Tokens.RefreshToken)
	require.True(t, apperrors.IsCode(err, "EXPIRED"))
}
