package portalclient

import (
	"context"
	"net/http"

	"github.com/jakechorley/volunteer-portal/pkg/core/model"
)

// RequestLoginLink asks the portal to email a sign-in link
func (c *Client) RequestLoginLink(ctx context.Context, email string) error {
	return c.sendJSON(ctx, http.MethodPost, "Auth/LoginLink", map[string]string{"email": email}, nil)
}

// GetUser returns the authenticated user
func (c *Client) GetUser(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.getJSON(ctx, "Auth/GetUser", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout invalidates the current session token
func (c *Client) Logout(ctx context.Context) error {
	return c.sendJSON(ctx, http.MethodPost, "Auth/Logout", nil, nil)
}
