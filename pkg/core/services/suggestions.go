package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-portal/pkg/core/model"
)

// SuggestionClient defines the portal operations needed to review suggestions
type SuggestionClient interface {
	GetSuggestionsByEventID(ctx context.Context, eventID int) ([]model.Suggestion, error)
	ApproveSuggestion(ctx context.Context, suggestionID int) error
}

// ListSuggestions returns an event's suggestions, optionally only those awaiting approval
func ListSuggestions(ctx context.Context, client SuggestionClient, logger *zap.Logger, eventID int, pendingOnly bool) ([]model.Suggestion, error) {
	if eventID <= 0 {
		return nil, fmt.Errorf("%w: event id is required", ErrValidation)
	}

	suggestions, err := client.GetSuggestionsByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list suggestions: %w", err)
	}

	if !pendingOnly {
		return suggestions, nil
	}

	var pending []model.Suggestion
	for _, s := range suggestions {
		if !s.Approved {
			pending = append(pending, s)
		}
	}
	logger.Debug("Filtered pending suggestions", zap.Int("event_id", eventID), zap.Int("pending", len(pending)))
	return pending, nil
}

// ApproveSuggestion approves one suggestion
func ApproveSuggestion(ctx context.Context, client SuggestionClient, logger *zap.Logger, suggestionID int) error {
	if suggestionID <= 0 {
		return fmt.Errorf("%w: suggestion id is required", ErrValidation)
	}

	if err := client.ApproveSuggestion(ctx, suggestionID); err != nil {
		return fmt.Errorf("failed to approve suggestion: %w", err)
	}

	logger.Info("Approved suggestion", zap.Int("suggestion_id", suggestionID))
	return nil
}
