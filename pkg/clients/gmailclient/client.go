package gmailclient

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/juju/clock"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Client wraps the Gmail API client
type Client struct {
	service      *gmail.Service
	userID       string
	sender       string
	clock        clock.Clock
	lastSendTime time.Time
	sendMutex    sync.Mutex
}

// NewClient creates a Gmail client from an HTTP client already authorised for gmail.send.
// userID defaults to "me"; sender, when set, becomes the From header.
func NewClient(ctx context.Context, httpClient *http.Client, userID, sender string, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)

	service, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	if userID == "" {
		userID = "me"
	}

	return &Client{
		service: service,
		userID:  userID,
		sender:  sender,
		clock:   clock.WallClock,
	}, nil
}
