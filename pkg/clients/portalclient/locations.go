package portalclient

import (
	"context"

	"github.com/jakechorley/volunteer-portal/pkg/core/model"
)

func (c *Client) GetLocations(ctx context.Context) ([]model.Location, error) {
	var locations []model.Location
	if err := c.getJSON(ctx, "Location/GetLocations", nil, &locations); err != nil {
		return nil, err
	}
	return locations, nil
}
