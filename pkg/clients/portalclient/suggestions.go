package portalclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jakechorley/volunteer-portal/pkg/core/model"
)

func (c *Client) GetSuggestionsByEventID(ctx context.Context, eventID int) ([]model.Suggestion, error) {
	var suggestions []model.Suggestion
	query := url.Values{"eventId": {strconv.Itoa(eventID)}}
	if err := c.getJSON(ctx, "Suggestion/GetSuggestionByEventId", query, &suggestions); err != nil {
		return nil, err
	}
	return suggestions, nil
}

func (c *Client) ApproveSuggestion(ctx context.Context, suggestionID int) error {
	body := struct {
		SuggestionID int `json:"suggestionId"`
	}{suggestionID}
	return c.sendJSON(ctx, http.MethodPut, "Suggestion/ApproveSuggestion", body, nil)
}

func (c *Client) CreateSuggestion(ctx context.Context, suggestion model.Suggestion) (*model.Suggestion, error) {
	created := suggestion
	if err := c.sendJSON(ctx, http.MethodPost, "Suggestion/CreateSuggestion", suggestion, &created); err != nil {
		return nil, err
	}
	return &created, nil
}
