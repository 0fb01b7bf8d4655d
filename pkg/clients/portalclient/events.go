package portalclient

import (
	"context"
	"net/url"
	"strconv"

	"github.com/jakechorley/volunteer-portal/pkg/core/model"
)

func (c *Client) GetEventsByYear(ctx context.Context, year int) ([]model.Event, error) {
	var events []model.Event
	query := url.Values{"year": {strconv.Itoa(year)}}
	if err := c.getJSON(ctx, "Event/GetEventsByYear", query, &events); err != nil {
		return nil, err
	}
	return events, nil
}
