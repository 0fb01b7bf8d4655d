package portalclient

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/jakechorley/volunteer-portal/pkg/core/model"
)

func (c *Client) ListActivities(ctx context.Context) ([]model.Activity, error) {
	var activities []model.Activity
	if err := c.getJSON(ctx, "Activity/GetActivities", nil, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// CreateActivity creates an activity and returns it as stored by the portal
func (c *Client) CreateActivity(ctx context.Context, activity model.Activity) (*model.Activity, error) {
	created := activity
	if err := c.sendJSON(ctx, http.MethodPost, "Activity/CreateActivity", activity, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateActivity(ctx context.Context, activity model.Activity) (*model.Activity, error) {
	updated := activity
	if err := c.sendJSON(ctx, http.MethodPut, "Activity/UpdateActivity", activity, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) UpdateActivityStatus(ctx context.Context, activityID int, status string) error {
	body := struct {
		ActivityID int    `json:"activityId"`
		Status     string `json:"status"`
	}{activityID, status}
	return c.sendJSON(ctx, http.MethodPut, "Activity/UpdateActivityStatus", body, nil)
}

// CreateActivityImage uploads an image for an activity as multipart form data
func (c *Client) CreateActivityImage(ctx context.Context, activityID int, fileName string, content io.Reader) (*model.ActivityImage, error) {
	image := model.ActivityImage{ActivityID: activityID, FileName: fileName}
	fields := map[string]string{"activityId": strconv.Itoa(activityID)}
	if err := c.postMultipart(ctx, "ActivityImage/CreateActivityImage", fields, "image", fileName, content, &image); err != nil {
		return nil, err
	}
	return &image, nil
}
