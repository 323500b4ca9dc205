package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/ops-kit/opsconsole/internal/config"
	"github.com/ops-kit/opsconsole/internal/domain"
	apperrors "github.com/ops-kit/opsconsole/pkg/util"
)

// oidcProvider validates credentials with a Keycloak-style token endpoint
// using the Direct Access Grant. The endpoint rejecting an otherwise valid
// password with "not fully set up" marks an account that must rotate its
// password before tokens are issued.
type oidcProvider struct {
	cfg    config.OIDCConfig
	client *http.Client
	logger *zap.Logger
}

// NewOIDCProvider builds the OIDC-backed identity provider.
func NewOIDCProvider(cfg config.OIDCConfig, logger *zap.Logger) IdentityProvider {
	return &oidcProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

type tokenEndpointResult struct {
	status      int
	accessToken string
	errorDesc   string
}

func (p *oidcProvider) Authenticate(ctx context.Context, username, password string) (*LoginResult, error) {
	result, err := p.passwordGrant(ctx, p.cfg.Realm, p.cfg.ClientID, username, password)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if result.status == http.StatusOK {
		identity, err := p.identityFromToken(result.accessToken, username)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		return &LoginResult{Identity: identity}, nil
	}
	if strings.Contains(result.errorDesc, "not fully set up") {
		return &LoginResult{PasswordChangeRequired: true}, nil
	}
	p.logger.Warn("oidc login rejected", zap.String("username", username), zap.String("error", result.errorDesc))
	return nil, apperrors.NewInvalidCredentials()
}

// ChangePassword verifies the current password against the token endpoint,
// then rotates the credential through the provider's admin API: set the new
// password, clear the pending required actions, log in with the new value.
// A rejected current password still counts as verified when the rejection
// is the "not fully set up" required-action response.
func (p *oidcProvider) ChangePassword(ctx context.Context, username, currentPassword, newPassword string) (*domain.Identity, error) {
	result, err := p.passwordGrant(ctx, p.cfg.Realm, p.cfg.ClientID, username, currentPassword)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if result.status != http.StatusOK && !strings.Contains(result.errorDesc, "not fully set up") {
		return nil, apperrors.NewInvalidCredentials()
	}

	if p.cfg.AdminUsername == "" {
		return nil, apperrors.NewForbidden("identity provider admin credentials are not configured")
	}

	adminToken, err := p.adminToken(ctx)
	if err != nil {
		return nil, err
	}
	userID, err := p.lookupUserID(ctx, adminToken, username)
	if err != nil {
		return nil, err
	}
	if err := p.resetPassword(ctx, adminToken, userID, newPassword); err != nil {
		return nil, err
	}
	if err := p.clearRequiredActions(ctx, adminToken, userID); err != nil {
		return nil, err
	}

	login, err := p.passwordGrant(ctx, p.cfg.Realm, p.cfg.ClientID, username, newPassword)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if login.status != http.StatusOK {
		p.logger.Error("oidc login failed after password rotation",
			zap.String("username", username), zap.String("error", login.errorDesc))
		return nil, apperrors.NewInternalError(fmt.Errorf("post-rotation login rejected: %s", login.errorDesc))
	}
	identity, err := p.identityFromToken(login.accessToken, username)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return identity, nil
}

func (p *oidcProvider) adminToken(ctx context.Context) (string, error) {
	result, err := p.passwordGrant(ctx, p.cfg.AdminRealm, p.cfg.AdminClientID, p.cfg.AdminUsername, p.cfg.AdminPassword)
	if err != nil {
		return "", apperrors.MapError(err)
	}
	if result.status != http.StatusOK {
		p.logger.Error("oidc admin login rejected", zap.String("error", result.errorDesc))
		return "", apperrors.NewInternalError(fmt.Errorf("admin token rejected: %s", result.errorDesc))
	}
	return result.accessToken, nil
}

func (p *oidcProvider) lookupUserID(ctx context.Context, adminToken, username string) (string, error) {
	endpoint := fmt.Sprintf("%s/admin/realms/%s/users?username=%s&exact=true",
		p.cfg.ServerURL, p.cfg.Realm, url.QueryEscape(username))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", apperrors.MapError(err)
	}
	req.Header.Set("Authorization", "Bearer "+adminToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", apperrors.MapError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.NewInternalError(fmt.Errorf("user lookup status %d", resp.StatusCode))
	}
	var users []struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return "", apperrors.MapError(err)
	}
	if len(users) == 0 {
		return "", apperrors.NewInvalidCredentials()
	}
	return users[0].ID, nil
}

func (p *oidcProvider) resetPassword(ctx context.Context, adminToken, userID, newPassword string) error {
	endpoint := fmt.Sprintf("%s/admin/realms/%s/users/%s/reset-password", p.cfg.ServerURL, p.cfg.Realm, userID)
	payload := map[string]any{"type": "password", "value": newPassword, "temporary": false}
	return p.adminPut(ctx, adminToken, endpoint, payload)
}

func (p *oidcProvider) clearRequiredActions(ctx context.Context, adminToken, userID string) error {
	endpoint := fmt.Sprintf("%s/admin/realms/%s/users/%s", p.cfg.ServerURL, p.cfg.Realm, userID)
	return p.adminPut(ctx, adminToken, endpoint, map[string]any{"requiredActions": []string{}})
}

func (p *oidcProvider) adminPut(ctx context.Context, adminToken, endpoint string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.MapError(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return apperrors.MapError(err)
	}
	req.Header.Set("Authorization", "Bearer "+adminToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return apperrors.MapError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperrors.NewInternalError(fmt.Errorf("admin update %s status %d", endpoint, resp.StatusCode))
	}
	return nil
}

func (p *oidcProvider) passwordGrant(ctx context.Context, realm, clientID, username, password string) (*tokenEndpointResult, error) {
	endpoint := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", p.cfg.ServerURL, realm)
	form := url.Values{
		"grant_type": {"password"},
		"client_id":  {clientID},
		"username":   {username},
		"password":   {password},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var payload struct {
		AccessToken      string `json:"access_token"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	return &tokenEndpointResult{
		status:      resp.StatusCode,
		accessToken: payload.AccessToken,
		errorDesc:   payload.ErrorDescription,
	}, nil
}

// identityFromToken extracts subject claims from the upstream access token.
// The token was just issued over TLS by the endpoint we posted credentials
// to, so the claims are read without signature verification.
func (p *oidcProvider) identityFromToken(accessToken, fallbackUsername string) (*domain.Identity, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return nil, err
	}

	identity := &domain.Identity{Role: domain.UserRoleOperator}
	if sub, ok := claims["sub"].(string); ok {
		identity.SubjectID = sub
	}
	if username, ok := claims["preferred_username"].(string); ok {
		identity.Username = username
	}
	if identity.Username == "" {
		identity.Username = fallbackUsername
	}
	if identity.SubjectID == "" {
		identity.SubjectID = identity.Username
	}
	if hasRealmRole(claims, "admin") {
		identity.Role = domain.UserRoleAdmin
	}
	return identity, nil
}

func hasRealmRole(claims jwt.MapClaims, role string) bool {
	access, ok := claims["realm_access"].(map[string]any)
	if !ok {
		return false
	}
	roles, ok := access["roles"].([]any)
	if !ok {
		return false
	}
	for _, entry := range roles {
		if name, ok := entry.(string); ok && name == role {
			return true
		}
	}
	return false
}
