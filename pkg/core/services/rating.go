package services

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-portal/pkg/core/achievements"
	"github.com/jakechorley/volunteer-portal/pkg/core/model"
	"github.com/jakechorley/volunteer-portal/pkg/db"
)

// RatingClient defines the portal operation needed to rate an event
type RatingClient interface {
	UpdateRating(ctx context.Context, volunteerID, rating int) error
}

// RateEvent sets the one-time rating of an attended record. The gate rejects
// records that are not attended, already rated or have feedback, and ratings
// outside 1-5, before any request is sent.
func RateEvent(
	ctx context.Context,
	client RatingClient,
	board *achievements.Board,
	guard *Guard,
	logger *zap.Logger,
	volunteerID int,
	rating int,
) error {
	return guard.run(ctx, board, volunteerID, transition{
		kind:  db.KindRating,
		value: strconv.Itoa(rating),
		check: func(rec model.VolunteerRecord, hasFeedback bool) error {
			return achievements.CheckRating(rec, hasFeedback, rating)
		},
		send: func(ctx context.Context, rec model.VolunteerRecord) error {
			if err := client.UpdateRating(ctx, volunteerID, rating); err != nil {
				return fmt.Errorf("failed to update rating: %w", err)
			}
			return nil
		},
		apply: func(model.VolunteerRecord) error {
			return board.ApplyRating(volunteerID, rating)
		},
	}, logger)
}
