package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/ops-kit/opsconsole/internal/domain"
	"github.com/ops-kit/opsconsole/internal/repository"
	apperrors "github.com/ops-kit/opsconsole/pkg/util"
)

// LoginResult is the outcome of a credential check. Identity is nil when
// the account requires a password rotation before tokens may be issued.
type LoginResult struct {
	Identity               *domain.Identity
	PasswordChangeRequired bool
}

// IdentityProvider abstracts the credential backend. Two implementations
// exist: the local users table and an OIDC token endpoint.
type IdentityProvider interface {
	Authenticate(ctx context.Context, username, password string) (*LoginResult, error)
	ChangePassword(ctx context.Context, username, currentPassword, newPassword string) (*domain.Identity, error)
}

type localProvider struct {
	users      repository.UserRepository
	bcryptCost int
}

// NewLocalProvider authenticates against the users table with bcrypt.
func NewLocalProvider(users repository.UserRepository, bcryptCost int) IdentityProvider {
	return &localProvider{users: users, bcryptCost: bcryptCost}
}

func (p *localProvider) Authenticate(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := p.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInvalidCredentials()
		}
		return nil, apperrors.MapError(err)
	}
	if user.Status != domain.UserStatusActive {
		return nil, apperrors.NewInvalidCredentials()
	}
	if err := ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewInvalidCredentials()
	}
	if user.PasswordChangeRequired {
		return &LoginResult{PasswordChangeRequired: true}, nil
	}
	return &LoginResult{Identity: identityOf(user)}, nil
}

func (p *localProvider) ChangePassword(ctx context.Context, username, currentPassword, newPassword string) (*domain.Identity, error) {
	user, err := p.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInvalidCredentials()
		}
		return nil, apperrors.MapError(err)
	}
	if err := ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return nil, apperrors.NewInvalidCredentials()
	}
	hash, err := HashPassword(newPassword, p.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	user.PasswordHash = hash
	user.PasswordChangeRequired = false
	if err := p.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return identityOf(user), nil
}

func identityOf(user *domain.User) *domain.Identity {
	return &domain.Identity{
		SubjectID: user.ID,
		Username:  user.Username,
		Role:      user.Role,
	}
}
