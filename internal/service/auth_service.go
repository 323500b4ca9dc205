package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ops-kit/opsconsole/internal/auth"
	"github.com/ops-kit/opsconsole/internal/config"
	"github.com/ops-kit/opsconsole/internal/domain"
	"github.com/ops-kit/opsconsole/internal/events"
	apperrors "github.com/ops-kit/opsconsole/pkg/util"
)

// LoginOutcome is either a token pair or a password-change demand.
type LoginOutcome struct {
	Tokens                 *domain.TokenPair
	PasswordChangeRequired bool
}

// AuthService issues and rotates token pairs on top of a pluggable
// identity provider.
type AuthService struct {
	provider   auth.IdentityProvider
	tokenMgr   *auth.TokenManager
	refresh    auth.RefreshStore
	dispatcher events.Dispatcher
	minPwLen   int
}

// AuthDependencies bundles collaborators for the auth service.
type AuthDependencies struct {
	Provider     auth.IdentityProvider
	RefreshStore auth.RefreshStore
	Dispatcher   events.Dispatcher
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	return &AuthService{
		provider:   deps.Provider,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		refresh:    deps.RefreshStore,
		dispatcher: deps.Dispatcher,
		minPwLen:   cfg.MinPasswordLength,
	}
}

// Login validates credentials and mints a token pair. Accounts flagged for
// mandatory rotation get a password-change outcome instead of tokens.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginOutcome, error) {
	result, err := s.provider.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if result.PasswordChangeRequired {
		return &LoginOutcome{PasswordChangeRequired: true}, nil
	}

	tokens, err := s.issuePair(ctx, *result.Identity)
	if err != nil {
		return nil, err
	}
	s.publishAudit(ctx, events.EventLoginSucceeded, *result.Identity)
	return &LoginOutcome{Tokens: tokens}, nil
}

// ChangePassword verifies the current password, enforces the policy, writes
// the new password and logs the subject in with it.
func (s *AuthService) ChangePassword(ctx context.Context, username, currentPassword, newPassword string) (*LoginOutcome, error) {
	if err := auth.ValidateNewPassword(currentPassword, newPassword, s.minPwLen); err != nil {
		return nil, err
	}

	identity, err := s.provider.ChangePassword(ctx, username, currentPassword, newPassword)
	if err != nil {
		return nil, err
	}

	tokens, err := s.issuePair(ctx, *identity)
	if err != nil {
		return nil, err
	}
	s.publishAudit(ctx, events.EventLoginSucceeded, *identity)
	return &LoginOutcome{Tokens: tokens}, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// consumed whether or not it was still valid; reuse fails with EXPIRED.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	identity, err := s.refresh.Consume(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrRefreshTokenInvalid) {
			return nil, apperrors.NewExpired("refresh token expired or already used")
		}
		return nil, apperrors.MapError(err)
	}

	tokens, err := s.issuePair(ctx, *identity)
	if err != nil {
		return nil, err
	}
	s.publishAudit(ctx, events.EventTokenRefreshed, *identity)
	return tokens, nil
}

// Logout destroys the stored refresh token; access tokens simply lapse.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.refresh.Revoke(ctx, refreshToken)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issuePair(ctx context.Context, identity domain.Identity) (*domain.TokenPair, error) {
	access, expiresAt, err := s.tokenMgr.GenerateToken(identity)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	refresh, err := s.refresh.Issue(ctx, identity)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
		ExpiresIn:    int64(time.Until(expiresAt).Seconds()),
		TokenType:    "Bearer",
	}, nil
}

func (s *AuthService) publishAudit(ctx context.Context, eventType events.EventType, identity domain.Identity) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		ActorID:   &identity.SubjectID,
		Timestamp: time.Now(),
		Payload: events.AuthAuditPayload{
			Subject:  identity.SubjectID,
			Username: identity.Username,
		},
	})
}
