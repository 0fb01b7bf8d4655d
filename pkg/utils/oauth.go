package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/jakechorley/volunteer-portal/internal/config"
)

const (
	AuthPort     = 3000
	authTimeout  = 5 * time.Minute
	callbackPath = "/oauth/callback"
	tokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
)

// OAuth scopes for Google APIs
const (
	ScopeSheets    = "https://www.googleapis.com/auth/spreadsheets"
	ScopeGmailSend = "https://www.googleapis.com/auth/gmail.send"
)

// GoogleScopes are requested upfront so one consent covers the export and reminder commands
var GoogleScopes = []string{ScopeSheets, ScopeGmailSend}

// GetOAuthConfig creates an OAuth2 config from the Google client file contents
func GetOAuthConfig(oauthCfg *config.OAuthClientConfig) (*oauth2.Config, error) {
	oauthConfigJSON, err := json.Marshal(oauthCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal oauth config: %w", err)
	}

	googleConfig, err := google.ConfigFromJSON(oauthConfigJSON, GoogleScopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to create google config: %w", err)
	}

	// Redirect to our local callback server
	googleConfig.RedirectURL = fmt.Sprintf("http://localhost:%d%s", AuthPort, callbackPath)

	return googleConfig, nil
}

// GoogleAuth obtains Google API tokens, caching them in memory and on disk
type GoogleAuth struct {
	config *oauth2.Config
	store  *TokenStore
	env    string
	logger *zap.Logger

	mu     sync.Mutex
	cached *oauth2.Token
}

// NewGoogleAuth creates a GoogleAuth for one environment
func NewGoogleAuth(oauthConfig *oauth2.Config, store *TokenStore, env string, logger *zap.Logger) *GoogleAuth {
	return &GoogleAuth{config: oauthConfig, store: store, env: env, logger: logger}
}

// HTTPClient returns an HTTP client authorised for the Google scopes,
// running the browser consent flow if no usable token is cached
func (a *GoogleAuth) HTTPClient(ctx context.Context) (*http.Client, error) {
	token, err := a.Token(ctx)
	if err != nil {
		return nil, err
	}
	return a.config.Client(ctx, token), nil
}

// Token returns a valid token. Only one consent flow runs at a time.
func (a *GoogleAuth) Token(ctx context.Context) (*oauth2.Token, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cached != nil && a.cached.Valid() {
		return a.cached, nil
	}

	fileToken, err := a.store.Load(TokenGoogle, a.env)
	if err != nil {
		a.logger.Warn("Failed to load google token from file", zap.Error(err))
	}

	if fileToken != nil {
		if token := a.reuse(ctx, fileToken); token != nil {
			a.cached = token
			return token, nil
		}
	}

	a.logger.Info("No valid google token found - starting OAuth flow")

	authURL := a.config.AuthCodeURL("state", oauth2.AccessTypeOffline)
	fmt.Printf("\nVisit this URL to authorize the application:\n%s\n\n", authURL)

	code, err := listenForAuthCallback(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get authorization code: %w", err)
	}

	token, err := a.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}

	if err := validateTokenScopes(ctx, token); err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	if err := a.store.Save(TokenGoogle, a.env, token); err != nil {
		a.logger.Warn("Failed to save google token", zap.Error(err))
	}

	a.cached = token
	return token, nil
}

// reuse returns fileToken (refreshed if needed) when it still carries every scope, nil otherwise
func (a *GoogleAuth) reuse(ctx context.Context, fileToken *oauth2.Token) *oauth2.Token {
	token := fileToken
	if !token.Valid() {
		if token.RefreshToken == "" {
			return nil
		}
		refreshed, err := a.config.TokenSource(ctx, token).Token()
		if err != nil {
			a.logger.Warn("Failed to refresh google token", zap.Error(err))
			return nil
		}
		token = refreshed
	}

	if err := validateTokenScopes(ctx, token); err != nil {
		a.logger.Warn("Cached google token is missing required scopes, deleting it", zap.Error(err))
		if err := a.store.Delete(TokenGoogle, a.env); err != nil {
			a.logger.Warn("Failed to delete google token", zap.Error(err))
		}
		return nil
	}

	if token != fileToken {
		if err := a.store.Save(TokenGoogle, a.env, token); err != nil {
			a.logger.Warn("Failed to save refreshed google token", zap.Error(err))
		}
	}

	return token
}

// Clear drops the in-memory token
func (a *GoogleAuth) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cached = nil
}

// validateTokenScopes checks the token against Google's tokeninfo endpoint
func validateTokenScopes(ctx context.Context, token *oauth2.Token) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tokenInfoURL+"?access_token="+token.AccessToken, nil)
	if err != nil {
		return fmt.Errorf("failed to create tokeninfo request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call tokeninfo endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("tokeninfo request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenInfo struct {
		Scope string `json:"scope"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenInfo); err != nil {
		return fmt.Errorf("failed to decode tokeninfo response: %w", err)
	}

	if missing := MissingScopes(strings.Fields(tokenInfo.Scope), GoogleScopes); len(missing) > 0 {
		return fmt.Errorf("token is missing required scopes: %v", missing)
	}

	return nil
}

// MissingScopes returns the entries of required not present in granted
func MissingScopes(granted, required []string) []string {
	var missing []string
	for _, scope := range required {
		if !slices.Contains(granted, scope) {
			missing = append(missing, scope)
		}
	}
	return missing
}

// listenForAuthCallback starts a local HTTP server and waits for the OAuth callback
func listenForAuthCallback(ctx context.Context) (string, error) {
	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			errChan <- fmt.Errorf("no authorization code received")
			http.Error(w, "Authorization failed", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title>Authorization Successful</title></head>
<body><h1>Authorization successful!</h1><p>You can close this window and return to the terminal.</p></body></html>`)

		codeChan <- code
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", AuthPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	timeoutCtx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	var code string
	var authErr error

	select {
	case code = <-codeChan:
	case authErr = <-errChan:
	case <-timeoutCtx.Done():
		authErr = fmt.Errorf("authorization timeout after %v", authTimeout)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	if authErr != nil {
		return "", authErr
	}

	return code, nil
}
