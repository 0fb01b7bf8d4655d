package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-portal/pkg/core/achievements"
	"github.com/jakechorley/volunteer-portal/pkg/core/model"
	"github.com/jakechorley/volunteer-portal/pkg/db"
)

// ErrNoEventContext means the record could not be matched to an event, so
// feedback cannot be attached to one
var ErrNoEventContext = errors.New("no event found for this volunteer record")

// FeedbackClient defines the portal operation needed to store feedback
type FeedbackClient interface {
	CreateFeedback(ctx context.Context, feedback model.FeedbackRecord, employeeID string) (*model.FeedbackRecord, error)
}

// FeedbackInput is the owner's free-text feedback
type FeedbackInput struct {
	Description string `validate:"required,max=2000"`
}

// SubmitFeedback stores the one-time feedback for a rated record. On success
// the record's feedback becomes read-only.
func SubmitFeedback(
	ctx context.Context,
	client FeedbackClient,
	loaded *AchievementsResult,
	guard *Guard,
	logger *zap.Logger,
	volunteerID int,
	description string,
) (*model.FeedbackRecord, error) {
	// Step 1: Validate the form before anything else
	input := FeedbackInput{Description: strings.TrimSpace(description)}
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	board := loaded.Board
	var stored *model.FeedbackRecord

	err := guard.run(ctx, board, volunteerID, transition{
		kind: db.KindFeedback,
		check: func(rec model.VolunteerRecord, hasFeedback bool) error {
			if err := achievements.CheckFeedback(rec, hasFeedback); err != nil {
				return err
			}
			if loaded.Events.EventIDFor(rec) == achievements.NoEventID {
				return ErrNoEventContext
			}
			return nil
		},
		send: func(ctx context.Context, rec model.VolunteerRecord) error {
			created, err := client.CreateFeedback(ctx, model.FeedbackRecord{
				VolunteerID: volunteerID,
				EventID:     loaded.Events.EventIDFor(rec),
				Description: input.Description,
				Rating:      rec.Rating,
			}, loaded.EmployeeID)
			if err != nil {
				return fmt.Errorf("failed to create feedback: %w", err)
			}
			stored = created
			return nil
		},
		apply: func(model.VolunteerRecord) error {
			return board.SetFeedback(*stored)
		},
	}, logger)
	if err != nil {
		return nil, err
	}

	return stored, nil
}
