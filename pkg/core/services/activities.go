package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-portal/pkg/core/model"
)

// maxImageBytes caps activity image uploads
const maxImageBytes = 5 << 20

// ActivityClient defines the portal operations needed to manage activities
type ActivityClient interface {
	ListActivities(ctx context.Context) ([]model.Activity, error)
	CreateActivity(ctx context.Context, activity model.Activity) (*model.Activity, error)
	UpdateActivity(ctx context.Context, activity model.Activity) (*model.Activity, error)
	UpdateActivityStatus(ctx context.Context, activityID int, status string) error
	CreateActivityImage(ctx context.Context, activityID int, fileName string, content io.Reader) (*model.ActivityImage, error)
}

// ListActivities returns activities whose name or description contains query (case-insensitive).
// An empty query returns everything.
func ListActivities(ctx context.Context, client ActivityClient, logger *zap.Logger, query string) ([]model.Activity, error) {
	activities, err := client.ListActivities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return activities, nil
	}

	var matched []model.Activity
	for _, a := range activities {
		if strings.Contains(strings.ToLower(a.Name), query) || strings.Contains(strings.ToLower(a.Description), query) {
			matched = append(matched, a)
		}
	}
	logger.Debug("Filtered activities", zap.String("query", query), zap.Int("total", len(activities)), zap.Int("matched", len(matched)))
	return matched, nil
}

// CreateActivity validates the form and creates the activity
func CreateActivity(ctx context.Context, client ActivityClient, logger *zap.Logger, activity model.Activity) (*model.Activity, error) {
	activity.ActivityID = 0
	if err := validateStruct(activity); err != nil {
		return nil, err
	}

	created, err := client.CreateActivity(ctx, activity)
	if err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}

	logger.Info("Created activity", zap.Int("activity_id", created.ActivityID), zap.String("name", created.Name))
	return created, nil
}

// UpdateActivity validates the form and replaces an existing activity
func UpdateActivity(ctx context.Context, client ActivityClient, logger *zap.Logger, activity model.Activity) (*model.Activity, error) {
	if activity.ActivityID <= 0 {
		return nil, fmt.Errorf("%w: activity id is required", ErrValidation)
	}
	if err := validateStruct(activity); err != nil {
		return nil, err
	}

	updated, err := client.UpdateActivity(ctx, activity)
	if err != nil {
		return nil, fmt.Errorf("failed to update activity: %w", err)
	}

	logger.Info("Updated activity", zap.Int("activity_id", updated.ActivityID))
	return updated, nil
}

// UpdateActivityStatus changes an activity's status
func UpdateActivityStatus(ctx context.Context, client ActivityClient, logger *zap.Logger, activityID int, status string) error {
	status = strings.TrimSpace(status)
	if activityID <= 0 {
		return fmt.Errorf("%w: activity id is required", ErrValidation)
	}
	if status == "" {
		return fmt.Errorf("%w: status is required", ErrValidation)
	}

	if err := client.UpdateActivityStatus(ctx, activityID, status); err != nil {
		return fmt.Errorf("failed to update activity status: %w", err)
	}

	logger.Info("Updated activity status", zap.Int("activity_id", activityID), zap.String("status", status))
	return nil
}

// AddActivityImage uploads an image file for an activity. The file must be an image no larger than 5MB.
func AddActivityImage(ctx context.Context, client ActivityClient, logger *zap.Logger, activityID int, path string) (*model.ActivityImage, error) {
	if activityID <= 0 {
		return nil, fmt.Errorf("%w: activity id is required", ErrValidation)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(content) > maxImageBytes {
		return nil, fmt.Errorf("%w: image is larger than %d bytes", ErrValidation, maxImageBytes)
	}

	detected := mimetype.Detect(content)
	if !strings.HasPrefix(detected.String(), "image/") {
		return nil, fmt.Errorf("%w: %s is not an image (%s)", ErrValidation, filepath.Base(path), detected.String())
	}

	image, err := client.CreateActivityImage(ctx, activityID, filepath.Base(path), bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to upload activity image: %w", err)
	}

	logger.Info("Uploaded activity image",
		zap.Int("activity_id", activityID),
		zap.String("file", filepath.Base(path)),
		zap.String("type", detected.String()))
	return image, nil
}
