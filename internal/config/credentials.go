package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Credentials holds the secrets used to talk to the portal API.
// They are read from the environment, optionally seeded from .env.<env>.
type Credentials struct {
	Username     string `validate:"required"`
	Password     string `validate:"required"`
	ClientID     string `validate:"required_with=ClientSecret"`
	ClientSecret string
	DatabaseURL  string `validate:"omitempty,url"`
}

// Environment variable names
const (
	EnvUsername     = "PORTAL_USERNAME"
	EnvPassword     = "PORTAL_PASSWORD"
	EnvClientID     = "PORTAL_CLIENT_ID"
	EnvClientSecret = "PORTAL_CLIENT_SECRET"
	EnvDatabaseURL  = "DATABASE_URL"
)

// LoadCredentialsWithEnv loads .env.<env> if present (existing variables win) and reads the credentials
func LoadCredentialsWithEnv(env string) (*Credentials, error) {
	envFile := ".env"
	if env != "" {
		envFile = ".env." + env
	}

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	return CredentialsFromEnv()
}

// CredentialsFromEnv reads and validates the credentials from the process environment
func CredentialsFromEnv() (*Credentials, error) {
	creds := &Credentials{
		Username:     os.Getenv(EnvUsername),
		Password:     os.Getenv(EnvPassword),
		ClientID:     os.Getenv(EnvClientID),
		ClientSecret: os.Getenv(EnvClientSecret),
		DatabaseURL:  os.Getenv(EnvDatabaseURL),
	}

	if err := validate.Struct(creds); err != nil {
		return nil, fmt.Errorf("credentials validation failed: %w", err)
	}

	return creds, nil
}
