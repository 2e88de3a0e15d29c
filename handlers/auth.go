package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Nerzal/gocloak/v13"
	"github.com/google/uuid"

	"github.com/kova98/threadfeed.api/config"
)

// AuthUser is the caller identity resolved from a Keycloak bearer token.
type AuthUser struct {
	ID    uuid.UUID
	Name  string
	Email string
}

type AuthHandler struct {
	keycloak *gocloak.GoCloak
	clientId string
	token    string
	secret   string
	realm    string
}

func NewAuthHandler(keycloak *gocloak.GoCloak) *AuthHandler {
	return &AuthHandler{
		keycloak: keycloak,
		secret:   config.Config.KeycloakClientSecret,
		realm:    config.Config.KeycloakRealm,
		clientId: config.Config.KeycloakClientID,
	}
}

// StartTokenTicker keeps the service's own client token fresh until ctx
// is cancelled.
func (h *AuthHandler) StartTokenTicker(ctx context.Context) {
	if err := h.refreshApiToken(); err != nil {
		slog.Error("Failed to refresh API token on startup", "error", err)
	}

	ticker := time.NewTicker(4*time.Minute + 30*time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.refreshApiToken(); err != nil {
				slog.Error("Failed to refresh API token", "error", err)
			}
		}
	}
}

func (h *AuthHandler) refreshApiToken() error {
	res, err := h.keycloak.LoginClient(context.Background(), h.clientId, h.secret, h.realm)
	if err != nil {
		return err
	}
	if res.AccessToken == "" {
		return errors.New("refresh api token: access token is empty")
	}
	h.token = res.AccessToken

	return nil
}

// GetUser resolves the caller from the Authorization header.
func (h *AuthHandler) GetUser(ctx context.Context, authHeader string) Result {
	if authHeader == "" {
		return Unauthorized("Missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return Unauthorized("Invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")

	if _, _, err := h.keycloak.DecodeAccessToken(ctx, token, h.realm); err != nil {
		return Unauthorized("Invalid token")
	}

	userInfo, err := h.keycloak.GetUserInfo(ctx, token, h.realm)
	if err != nil {
		return InternalError(err, "Failed to get user info")
	}
	if userInfo == nil {
		return Unauthorized("User not found")
	}

	// If preferred_username is empty, use the part before the @ in the email
	name := *userInfo.PreferredUsername
	if name == "" {
		name = strings.Split(*userInfo.Email, "@")[0]
	}

	id, err := uuid.Parse(*userInfo.Sub)
	if err != nil {
		slog.Error("Failed to parse user ID from Keycloak", "sub", userInfo.Sub, "error", err)
		return InternalError(err, "Failed to parse user ID from Keycloak")
	}

	return Ok(AuthUser{
		ID:    id,
		Name:  name,
		Email: *userInfo.Email,
	})
}
