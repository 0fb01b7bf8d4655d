package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-portal/pkg/core/achievements"
	"github.com/jakechorley/volunteer-portal/pkg/core/model"
	"github.com/jakechorley/volunteer-portal/pkg/db"
)

// ErrRejectCancelled is returned when the owner does not confirm a rejection
var ErrRejectCancelled = errors.New("rejection cancelled")

// StatusClient defines the portal operation needed to change participation status
type StatusClient interface {
	UpdateVolunteerStatus(ctx context.Context, volunteerID int, status model.Status) error
}

// Prompter asks the owner to confirm a destructive action
type Prompter interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// ConfirmParticipation moves a no-action record to confirmed
func ConfirmParticipation(
	ctx context.Context,
	client StatusClient,
	board *achievements.Board,
	guard *Guard,
	logger *zap.Logger,
	volunteerID int,
) error {
	return changeStatus(ctx, client, board, guard, logger, volunteerID, model.StatusConfirmed)
}

// RejectParticipation moves a no-action record to rejected after the owner confirms
func RejectParticipation(
	ctx context.Context,
	client StatusClient,
	board *achievements.Board,
	guard *Guard,
	prompter Prompter,
	logger *zap.Logger,
	volunteerID int,
) error {
	// Step 1: Gate before asking, so ineligible records are never prompted for
	rec, ok := board.Record(volunteerID)
	if !ok {
		return achievements.ErrUnknownVolunteer
	}
	if board.InFlight(volunteerID) {
		return achievements.ErrTransitionInFlight
	}
	if !achievements.CanConfirm(rec, false) {
		return achievements.ErrNotConfirmable
	}

	// Step 2: Explicit confirmation
	if prompter == nil {
		return ErrRejectCancelled
	}
	message := fmt.Sprintf("Reject participation in %s?", describeRecord(rec))
	confirmed, err := prompter.Confirm(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to confirm rejection: %w", err)
	}
	if !confirmed {
		logger.Debug("Rejection cancelled", zap.Int("volunteer_id", volunteerID))
		return ErrRejectCancelled
	}

	return changeStatus(ctx, client, board, guard, logger, volunteerID, model.StatusRejected)
}

func changeStatus(
	ctx context.Context,
	client StatusClient,
	board *achievements.Board,
	guard *Guard,
	logger *zap.Logger,
	volunteerID int,
	status model.Status,
) error {
	return guard.run(ctx, board, volunteerID, transition{
		kind:  db.KindStatus,
		value: string(status),
		check: func(rec model.VolunteerRecord, _ bool) error {
			if !achievements.CanConfirm(rec, false) {
				return achievements.ErrNotConfirmable
			}
			return nil
		},
		send: func(ctx context.Context, rec model.VolunteerRecord) error {
			if err := client.UpdateVolunteerStatus(ctx, volunteerID, status); err != nil {
				return fmt.Errorf("failed to update volunteer status: %w", err)
			}
			return nil
		},
		apply: func(model.VolunteerRecord) error {
			return board.ApplyStatus(volunteerID, status)
		},
	}, logger)
}

// describeRecord names a record for prompts and messages
func describeRecord(rec model.VolunteerRecord) string {
	name := rec.EventName
	if rec.EventSubName != "" {
		name += " - " + rec.EventSubName
	}
	if name == "" {
		name = fmt.Sprintf("volunteer record %d", rec.VolunteerID)
	}
	if rec.EventLocationName != "" {
		name += " (" + rec.EventLocationName + ")"
	}
	return name
}
