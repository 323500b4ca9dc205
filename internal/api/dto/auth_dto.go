package dto

import "github.com/ops-kit/opsconsole/internal/service"

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	Username        string `json:"username"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// AuthResponse is returned by login, change-password and refresh. When
// PasswordChangeRequired is set the token fields are empty.
type AuthResponse struct {
	Success                bool   `json:"success"`
	Message                string `json:"message,omitempty"`
	AccessToken            string `json:"accessToken,omitempty"`
	RefreshToken           string `json:"refreshToken,omitempty"`
	ExpiresIn              int64  `json:"expiresIn,omitempty"`
	TokenType              string `json:"tokenType,omitempty"`
	PasswordChangeRequired bool   `json:"passwordChangeRequired,omitempty"`
}

func NewAuthResponse(outcome *service.LoginOutcome) AuthResponse {
	if outcome.PasswordChangeRequired {
		return AuthResponse{
			Success:                false,
			Message:                "password change required",
			PasswordChangeRequired: true,
		}
	}
	return AuthResponse{
		Success:      true,
		AccessToken:  outcome.Tokens.AccessToken,
		RefreshToken: outcome.Tokens.RefreshToken,
		ExpiresIn:    outcome.Tokens.ExpiresIn,
		TokenType:    outcome.Tokens.TokenType,
	}
}
