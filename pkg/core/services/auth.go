package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/jakechorley/volunteer-portal/pkg/core/model"
	"github.com/jakechorley/volunteer-portal/pkg/utils"
)

// AuthClient defines the portal operations needed for sign-in
type AuthClient interface {
	RequestLoginLink(ctx context.Context, email string) error
	GetUser(ctx context.Context) (*model.User, error)
	Logout(ctx context.Context) error
}

// TokenStore persists the portal session token
type TokenStore interface {
	Save(name, env string, token *oauth2.Token) error
	Delete(name, env string) error
}

type loginInput struct {
	Email string `validate:"required,email"`
}

// RequestLoginLink asks the portal to email a sign-in link to the address
func RequestLoginLink(ctx context.Context, client AuthClient, logger *zap.Logger, email string) error {
	input := loginInput{Email: strings.TrimSpace(email)}
	if err := validateStruct(input); err != nil {
		return err
	}

	if err := client.RequestLoginLink(ctx, input.Email); err != nil {
		return fmt.Errorf("failed to request login link: %w", err)
	}

	logger.Info("Login link requested", zap.String("email", input.Email))
	return nil
}

// StoreToken saves the token from a sign-in link. A zero expiresIn stores a token without expiry.
func StoreToken(store TokenStore, env string, accessToken, refreshToken string, expiresIn time.Duration, now time.Time) (*oauth2.Token, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return nil, fmt.Errorf("%w: token is required", ErrValidation)
	}

	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: strings.TrimSpace(refreshToken),
		TokenType:    "Bearer",
	}
	if expiresIn > 0 {
		token.Expiry = now.Add(expiresIn)
	}

	if err := store.Save(utils.TokenPortal, env, token); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}
	return token, nil
}

// CurrentUser returns the signed-in user
func CurrentUser(ctx context.Context, client AuthClient, logger *zap.Logger) (*model.User, error) {
	user, err := client.GetUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	logger.Debug("Current user", zap.String("employee_id", user.EmployeeID), zap.String("role", user.Role))
	return user, nil
}

// Logout ends the portal session and removes the stored token. The local
// token is removed even when the portal call fails.
func Logout(ctx context.Context, client AuthClient, store TokenStore, env string, logger *zap.Logger) error {
	remoteErr := client.Logout(ctx)
	if remoteErr != nil {
		logger.Warn("Portal logout failed", zap.Error(remoteErr))
	}

	if err := store.Delete(utils.TokenPortal, env); err != nil {
		return fmt.Errorf("failed to delete stored token: %w", err)
	}

	if remoteErr != nil {
		return fmt.Errorf("failed to log out: %w", remoteErr)
	}
	logger.Info("Logged out")
	return nil
}
