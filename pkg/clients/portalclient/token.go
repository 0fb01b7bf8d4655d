package portalclient

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// TokenConfig describes the portal's refresh-token grant
type TokenConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// TokenSaver persists a refreshed token
type TokenSaver func(*oauth2.Token) error

// NewTokenSource returns a source that serves initial until it expires, then
// refreshes it through the portal's token endpoint. Every new token is passed
// to save so later runs start from it.
func NewTokenSource(ctx context.Context, cfg TokenConfig, initial *oauth2.Token, save TokenSaver, logger *zap.Logger) oauth2.TokenSource {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &persistingSource{
		base:   oauthConfig.TokenSource(ctx, initial),
		last:   initial,
		save:   save,
		logger: logger,
	}
}

type persistingSource struct {
	base   oauth2.TokenSource
	save   TokenSaver
	logger *zap.Logger

	mu   sync.Mutex
	last *oauth2.Token
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last == nil || token.AccessToken != s.last.AccessToken {
		s.logger.Debug("Portal token refreshed", zap.Time("expiry", token.Expiry))
		if s.save != nil {
			if err := s.save(token); err != nil {
				// The token is still usable for this run
				s.logger.Warn("Failed to persist refreshed token", zap.Error(err))
			}
		}
		s.last = token
	}

	return token, nil
}
