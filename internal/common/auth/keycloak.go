// internal/common/auth/keycloak.go
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leadfollow/internal/common/errors"
)

// Identity is the caller resolved from an access token.
type Identity struct {
	Subject           string `json:"sub"`
	Email             string `json:"email"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
	EmailVerified     bool   `json:"email_verified"`
}

// DisplayName prefers the full name, then the username, then the email.
func (i *Identity) DisplayName() string {
	switch {
	case i.Name != "":
		return i.Name
	case i.PreferredUsername != "":
		return i.PreferredUsername
	default:
		return i.Email
	}
}

// IdentityProvider resolves bearer tokens to identities.
type IdentityProvider interface {
	UserInfo(ctx context.Context, accessToken string) (*Identity, error)
}

// KeycloakClient resolves access tokens through the realm's OpenID Connect userinfo endpoint.
type KeycloakClient struct {
	baseURL    string
	realm      string
	httpClient *http.Client
}

func NewKeycloakClient(baseURL, realm string) *KeycloakClient {
	return &KeycloakClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		realm:      realm,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// UserInfo returns the identity behind accessToken. An inactive or malformed
// token yields an AUTHENTICATION_ERROR; transport problems an EXTERNAL_SERVICE_ERROR.
func (k *KeycloakClient) UserInfo(ctx context.Context, accessToken string) (*Identity, error) {
	if accessToken == "" {
		return nil, errors.NewAuthenticationError("missing access token")
	}

	userInfoURL := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/userinfo", k.baseURL, k.realm)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userInfoURL, nil)
	if err != nil {
		return nil, errors.NewExternalServiceError("keycloak", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewExternalServiceError("keycloak", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errors.NewAuthenticationError("access token is not active")
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		stdErr := errors.NewExternalServiceError("keycloak",
			fmt.Errorf("userinfo returned status %d: %s", resp.StatusCode, string(body)))
		stdErr.Retryable = isTransientHTTPError(resp.StatusCode)
		return nil, stdErr
	}

	var identity Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, errors.NewExternalServiceError("keycloak", fmt.Errorf("decode userinfo: %w", err))
	}
	if identity.Subject == "" {
		return nil, errors.NewAuthenticationError("userinfo response has no subject")
	}

	return &identity, nil
}

func isTransientHTTPError(statusCode int) bool {
	switch statusCode {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
