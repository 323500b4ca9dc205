package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ops-kit/opsconsole/internal/api/dto"
	"github.com/ops-kit/opsconsole/internal/service"
	apperrors "github.com/ops-kit/opsconsole/pkg/util"
)

// AuthHandler exposes login, password change and token refresh endpoints.
type AuthHandler struct {
	service *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Login POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return apperrors.NewValidationError("username and password required", nil)
	}
	outcome, err := h.service.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewAuthResponse(outcome))
}

// ChangePassword POST /api/v1/auth/change-password.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Username) == "" || req.CurrentPassword == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("username, currentPassword and newPassword required", nil)
	}
	outcome, err := h.service.ChangePassword(c.UserContext(), req.Username, req.CurrentPassword, req.NewPassword)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewAuthResponse(outcome))
}

// Refresh POST /api/v1/auth/refresh.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.RefreshToken == "" {
		return apperrors.NewValidationError("refreshToken required", nil)
	}
	pair, err := h.service.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewAuthResponse(&service.LoginOutcome{Tokens: pair}))
}

// Logout POST /api/v1/auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req dto.LogoutRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.RefreshToken == "" {
		return apperrors.NewValidationError("refreshToken required", nil)
	}
	if err := h.service.Logout(c.UserContext(), req.RefreshToken); err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{"success": true})
}
