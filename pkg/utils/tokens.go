package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

const (
	tokenDirName   = ".volunteer-portal/tokens"
	tokenFilePerms = 0600 // Read/write for owner only
	tokenDirPerms  = 0700 // Read/write/execute for owner only
)

// Token file names, one per credential kind
const (
	TokenGoogle = "google"
	TokenPortal = "portal"
)

// TokenStore persists OAuth tokens as JSON files under a directory,
// one file per (name, env) pair.
type TokenStore struct {
	Dir string
}

// DefaultTokenStore returns a store rooted at ~/.volunteer-portal/tokens
func DefaultTokenStore() (*TokenStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return &TokenStore{Dir: filepath.Join(homeDir, tokenDirName)}, nil
}

// Path returns the token file path for the given name and environment
func (s *TokenStore) Path(name, env string) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%s-%s.json", name, env))
}

// Load reads a token from disk.
// Returns nil if the file doesn't exist (not an error - just means no cached token)
func (s *TokenStore) Load(name, env string) (*oauth2.Token, error) {
	data, err := os.ReadFile(s.Path(name, env))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}

	return &token, nil
}

// Save writes a token to disk with owner-only permissions
func (s *TokenStore) Save(name, env string, token *oauth2.Token) error {
	if err := os.MkdirAll(s.Dir, tokenDirPerms); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := os.WriteFile(s.Path(name, env), data, tokenFilePerms); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// Delete removes the token file; a missing file is not an error
func (s *TokenStore) Delete(name, env string) error {
	if err := os.Remove(s.Path(name, env)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}
